package iterator

import (
	"context"
	"testing"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []entries.LogEntry {
	out := make([]entries.LogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = entries.LogEntry{"num": int64(i)}
	}
	return out
}

func drainAll(t *testing.T, it Iterator) []entries.LogEntry {
	t.Helper()
	var out []entries.LogEntry
	require.NoError(t, it.Iterate(func(e entries.LogEntry, _ int) error {
		out = append(out, e)
		return nil
	}))
	return out
}

func TestFromSlice(t *testing.T) {
	it := FromSlice(numbered(3))
	out := drainAll(t, it)
	assert.Len(t, out, 3)

	_, _, err := it.Next()
	assert.ErrorIs(t, err, ErrStopIteration)
}

func TestFromChannel(t *testing.T) {
	ch := make(chan entries.LogEntry, 2)
	ch <- entries.LogEntry{"a": "b"}
	close(ch)
	out := drainAll(t, FromChannel(ch))
	assert.Len(t, out, 1)
}

func TestFilter(t *testing.T) {
	it := Filter(FromSlice(numbered(10)), func(e entries.LogEntry, _ int) bool {
		n, _ := e.AsInt("num")
		return n%2 == 0
	})
	out := drainAll(t, it)
	assert.Len(t, out, 5)
}

func TestMap(t *testing.T) {
	it := Map(FromSlice(numbered(3)), func(e entries.LogEntry) entries.LogEntry {
		e["seen"] = true
		return e
	})
	for _, e := range drainAll(t, it) {
		assert.Equal(t, true, e["seen"])
	}
}

func TestTag(t *testing.T) {
	out := drainAll(t, Tag(FromSlice(numbered(1)), "syslog"))
	require.Len(t, out, 1)
	assert.Equal(t, "syslog", out[0][entries.StandardTagField])
}

func TestConcat(t *testing.T) {
	out := drainAll(t, Concat(FromSlice(numbered(2)), FromSlice(numbered(3))))
	assert.Len(t, out, 5)
}

func TestMerge(t *testing.T) {
	out := drainAll(t, Merge(FromSlice(numbered(2)), FromSlice(numbered(3))))
	assert.Len(t, out, 5)
}

func TestFanout(t *testing.T) {
	a, b := Fanout(FromSlice(numbered(4)))
	done := make(chan []entries.LogEntry, 2)
	for _, it := range []Iterator{a, b} {
		it := it
		go func() {
			var out []entries.LogEntry
			_ = it.Iterate(func(e entries.LogEntry, _ int) error {
				out = append(out, e)
				return nil
			})
			done <- out
		}()
	}
	assert.Len(t, <-done, 4)
	assert.Len(t, <-done, 4)
}

func TestCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	it := Cancellable(ctx, FromSlice(numbered(100)))
	// Cancellation is observed asynchronously, all entries are eventually
	// drained without error.
	_ = it.Iterate(func(e entries.LogEntry, _ int) error {
		return nil
	})
}
