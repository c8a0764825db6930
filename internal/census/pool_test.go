package census

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < files; i++ {
		writeFile(t, filepath.Join(root, "f"+string(rune('a'+i))+".txt"))
	}
	return root
}

func collectResults(t *testing.T, p *Pool, n int) map[string]int64 {
	t.Helper()
	got := make(map[string]int64, n)
	deadline := time.After(10 * time.Second)
	for len(got) < n {
		select {
		case r := <-p.Results():
			got[r.Path] = r.Count
		case <-deadline:
			t.Fatalf("timed out waiting for %d results, have %d", n, len(got))
		}
	}
	return got
}

func TestPoolSubmitDelivers(t *testing.T) {
	root := makeTree(t, 3)
	cache := NewCache()
	p := NewPool(2, cache, nil)
	defer p.Close()

	p.Submit(root)
	got := collectResults(t, p, 1)
	assert.Equal(t, int64(3), got[root])

	cached, ok := cache.Get(root)
	require.True(t, ok, "result must land in the cache as well")
	assert.Equal(t, int64(3), cached)
}

func TestPoolQueuesBeyondWorkers(t *testing.T) {
	cache := NewCache()
	p := NewPool(1, cache, nil)
	defer p.Close()

	roots := make([]string, 6)
	for i := range roots {
		roots[i] = makeTree(t, 2)
		p.Submit(roots[i])
	}

	got := collectResults(t, p, len(roots))
	for _, root := range roots {
		assert.Equal(t, int64(2), got[root])
	}
	assert.Equal(t, int64(len(roots)), p.Submitted())
	assert.Equal(t, int64(len(roots)), p.Completed())
}

func TestPoolClosedDropsDeliveryNotCache(t *testing.T) {
	root := makeTree(t, 2)
	cache := NewCache()
	p := NewPool(1, cache, nil)

	// Saturate the result buffer so delivery has to block, then walk away.
	for i := 0; i < cap(p.results)+4; i++ {
		p.Submit(root)
	}
	p.Close()

	require.Eventually(t, func() bool {
		count, ok := cache.Get(root)
		return ok && count == 2
	}, 10*time.Second, 10*time.Millisecond, "jobs must still write the cache after Close")
}

func TestPoolMinimumOneWorker(t *testing.T) {
	cache := NewCache()
	p := NewPool(0, cache, nil)
	defer p.Close()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "only.txt"))
	p.Submit(root)
	got := collectResults(t, p, 1)
	assert.Equal(t, int64(1), got[root])
}
