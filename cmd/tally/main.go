package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tallycount/tally/internal/browser"
	"github.com/tallycount/tally/internal/census"
	"github.com/tallycount/tally/internal/logging"
	"github.com/tallycount/tally/internal/tui"
)

func main() {
	target := ""
	if len(os.Args) > 1 {
		target = os.Args[1]
	}
	if target == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine working directory: %v\n", err)
			os.Exit(1)
		}
		target = cwd
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot resolve %q: %v\n", target, err)
		os.Exit(1)
	}

	log, closeLog := logging.New("tally")
	defer closeLog()

	cache := census.NewCache()
	pool := census.NewPool(runtime.NumCPU(), cache, log)
	defer pool.Close()

	engine := browser.NewEngine(abs, cache, pool, log)
	log.Info("session start", "home", abs, "workers", runtime.NumCPU())

	p := tea.NewProgram(tui.New(engine, pool, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tally error: %v\n", err)
		os.Exit(1)
	}
}
