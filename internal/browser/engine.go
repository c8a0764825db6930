// Package browser owns the listing, sort order and selection state of the
// directory browser, and feeds cache misses to the census worker pool.
package browser

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tallycount/tally/internal/census"
)

// CountPending marks a directory whose census has not arrived yet.
const CountPending int64 = -1

// ParentLabel is the synthetic first row shown everywhere except the
// browsing root.
const ParentLabel = ".. (Back to parent directory)"

// Entry is one row of the current listing. Count is CountPending until a
// census result is merged in; files never carry a count.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Count int64
}

// Engine drives navigation. It is single-threaded: the worker pool only
// talks back through the result channel, which the owner drains and feeds
// into MergeCount.
type Engine struct {
	currentDir   string
	homeDir      string
	currentCount int64
	entries      []Entry
	selected     int
	pendingEnter int

	cache *census.Cache
	pool  *census.Pool
	log   *slog.Logger
}

// NewEngine starts browsing at startDir, which becomes the home directory
// for the session. The initial listing is built immediately.
func NewEngine(startDir string, cache *census.Cache, pool *census.Pool, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		currentDir:   startDir,
		homeDir:      startDir,
		currentCount: CountPending,
		pendingEnter: -1,
		cache:        cache,
		pool:         pool,
		log:          log,
	}
	e.Refresh()
	return e
}

func (e *Engine) CurrentDir() string  { return e.currentDir }
func (e *Engine) HomeDir() string     { return e.homeDir }
func (e *Engine) CurrentCount() int64 { return e.currentCount }
func (e *Engine) Entries() []Entry    { return e.entries }
func (e *Engine) Selected() int       { return e.selected }

// hasParentRow reports whether the listing starts with the pinned parent
// entry. The engine never navigates above homeDir, so the row exists exactly
// when we are below it.
func (e *Engine) hasParentRow() bool {
	return e.currentDir != e.homeDir && filepath.Dir(e.currentDir) != e.currentDir
}

// requestCount submits a counting job for path unless one is already ready
// or in flight. Claim is the atomic gate that keeps concurrent refreshes
// from double-submitting the same directory.
func (e *Engine) requestCount(path string) {
	if e.cache.Claim(path) {
		e.pool.Submit(path)
	}
}

// Refresh rebuilds the listing for the current directory: a pinned parent
// row when below home, then one row per directory entry, each directory
// carrying its cached count or a freshly dispatched counting job. The
// selection index is preserved and clamped, not remapped.
func (e *Engine) Refresh() {
	e.entries = e.entries[:0]

	if count, ok := e.cache.Get(e.currentDir); ok {
		e.currentCount = count
	} else {
		e.currentCount = CountPending
		e.requestCount(e.currentDir)
	}

	if e.hasParentRow() {
		parent := filepath.Dir(e.currentDir)
		count, ok := e.cache.Get(parent)
		if !ok {
			count = CountPending
			e.requestCount(parent)
		}
		e.entries = append(e.entries, Entry{
			Name:  ParentLabel,
			Path:  parent,
			IsDir: true,
			Count: count,
		})
	}

	children, err := os.ReadDir(e.currentDir)
	if err != nil {
		// Unreadable directory shows as empty rather than failing the
		// refresh.
		e.log.Warn("cannot read directory", "path", e.currentDir, "error", err)
		children = nil
	}

	for _, child := range children {
		path := filepath.Join(e.currentDir, child.Name())
		isDir := entryIsDir(child, path)
		count := CountPending
		if isDir {
			if cached, ok := e.cache.Get(path); ok {
				count = cached
			} else {
				e.requestCount(path)
			}
		}
		e.entries = append(e.entries, Entry{
			Name:  displayName(child.Name()),
			Path:  path,
			IsDir: isDir,
			Count: count,
		})
	}

	e.sortEntries()
	e.clampSelection()
}

// MergeCount folds one drained census result into the navigation state. It
// updates the current directory total and any listing row whose path
// matches, and reports whether anything actually changed so the caller can
// decide about re-sorting and redrawing.
func (e *Engine) MergeCount(path string, count int64) bool {
	changed := false
	if path == e.currentDir && e.currentCount != count {
		e.currentCount = count
		changed = true
	}
	for i := range e.entries {
		if e.entries[i].Path == path && e.entries[i].Count != count {
			e.entries[i].Count = count
			changed = true
		}
	}
	return changed
}

// Resort re-applies the sort policy after count merges. The selection
// follows the entry it was on by path; if that row is gone the index is
// clamped instead.
func (e *Engine) Resort() {
	var selectedPath string
	if e.selected >= 0 && e.selected < len(e.entries) {
		selectedPath = e.entries[e.selected].Path
	}
	e.sortEntries()
	if selectedPath != "" {
		for i := range e.entries {
			if e.entries[i].Path == selectedPath {
				e.selected = i
				return
			}
		}
	}
	e.clampSelection()
}

// Advance moves the selection down one row, wrapping from the last row to
// the first. No-op on an empty listing.
func (e *Engine) Advance() {
	if len(e.entries) == 0 {
		return
	}
	e.selected = (e.selected + 1) % len(e.entries)
}

// Retreat moves the selection up one row, wrapping from the first row to
// the last. No-op on an empty listing.
func (e *Engine) Retreat() {
	if len(e.entries) == 0 {
		return
	}
	e.selected = (e.selected - 1 + len(e.entries)) % len(e.entries)
}

// Select moves the selection to index if it is in range.
func (e *Engine) Select(index int) {
	if index >= 0 && index < len(e.entries) {
		e.selected = index
	}
}

// Enter navigates into the directory at index and rebuilds the listing.
// Files and out-of-range indices are no-ops, not errors. It reports whether
// the current directory changed.
func (e *Engine) Enter(index int) bool {
	if index < 0 || index >= len(e.entries) {
		return false
	}
	target := e.entries[index]
	if !target.IsDir {
		return false
	}
	e.currentDir = target.Path
	e.Refresh()
	return true
}

// GoHome returns to the browsing root.
func (e *Engine) GoHome() {
	e.currentDir = e.homeDir
	e.Refresh()
}

// QueueEnter records an enter intent for the row at index. At most one
// intent is pending at a time; a newer one replaces the old.
func (e *Engine) QueueEnter(index int) {
	e.pendingEnter = index
}

// TakePending consumes the queued enter intent, if any.
func (e *Engine) TakePending() (int, bool) {
	index := e.pendingEnter
	e.pendingEnter = -1
	return index, index >= 0
}

// ProcessPending executes the queued intent. It reports whether the listing
// changed.
func (e *Engine) ProcessPending() bool {
	index, ok := e.TakePending()
	if !ok {
		return false
	}
	return e.Enter(index)
}

// sortEntries applies the sort policy to the mutable part of the listing,
// leaving the pinned parent row in place. Stable, so re-sorting an already
// sorted listing is a fixed point.
func (e *Engine) sortEntries() {
	items := e.entries
	if e.hasParentRow() && len(items) > 1 {
		items = items[1:]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return entryLess(items[i], items[j])
	})
}

// entryLess orders directories before files, directories by known count
// descending with unknown counts last, and breaks every remaining tie by
// case-insensitive name.
func entryLess(a, b Entry) bool {
	if a.IsDir != b.IsDir {
		return a.IsDir
	}
	if a.IsDir {
		aKnown, bKnown := a.Count >= 0, b.Count >= 0
		switch {
		case aKnown && bKnown:
			if a.Count != b.Count {
				return a.Count > b.Count
			}
		case aKnown:
			return true
		case bKnown:
			return false
		}
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func (e *Engine) clampSelection() {
	if len(e.entries) == 0 {
		e.selected = 0
		return
	}
	if e.selected >= len(e.entries) {
		e.selected = len(e.entries) - 1
	}
	if e.selected < 0 {
		e.selected = 0
	}
}

// entryIsDir classifies a listing entry, following symlinks so a link to a
// directory browses like a directory.
func entryIsDir(entry os.DirEntry, path string) bool {
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return entry.IsDir()
}

// displayName substitutes a placeholder for names that do not decode.
func displayName(name string) string {
	if !utf8.ValidString(name) {
		return "Unknown"
	}
	return name
}
