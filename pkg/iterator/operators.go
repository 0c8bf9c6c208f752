package iterator

import (
	"context"
	"sync"

	"github.com/hlpio/logdec/pkg/entries"
)

// Filter wraps an Iterator with a predicate that - when it returns true - will allow the return values of Next through.
// If the wrapped Iterator returns a non-nil error, then all values will be passed through regardless.
func Filter(iter Iterator, filter func(entry entries.LogEntry, i int) bool) Iterator {
	return Func(func() (entries.LogEntry, int, error) {
		for {
			entry, idx, err := iter.Next()
			if err != nil {
				return entry, idx, err
			}
			if filter(entry, idx) {
				return entry, idx, nil
			}
		}
	})
}

// Map wraps an Iterator with a function applied to every LogEntry passing through.
func Map(iter Iterator, fn func(entry entries.LogEntry) entries.LogEntry) Iterator {
	return Func(func() (entries.LogEntry, int, error) {
		entry, i, err := iter.Next()
		if err != nil {
			return nil, -1, err
		}
		return fn(entry), i, nil
	})
}

// Tag will set the standard tag field to the value specified in tag.
// An entry that already has a tag gets the new one appended with a period separator.
// A Tag is intended to classify the log information in some way to make it easier to filter for later.
func Tag(iter Iterator, tag string) Iterator {
	return Func(func() (entries.LogEntry, int, error) {
		entry, i, err := iter.Next()
		if err != nil {
			return Err(err)
		}
		entry.Tag(tag)
		return entry, i, nil
	})
}

// Cancellable wraps an iterator and makes it cancellable by context.
// When the context is cancelled and Next is called, all LogEntries will be forwarded to Drain.
func Cancellable(ctx context.Context, iter Iterator) Iterator {
	var (
		cancelled bool
		drain     sync.Once
	)
	go func() {
		<-ctx.Done()
		cancelled = true
	}()
	return Func(func() (entries.LogEntry, int, error) {
		if cancelled {
			drain.Do(func() {
				Drain(iter)
			})
			return End()
		}
		return iter.Next()
	})
}

// Concat will return entries from next after base has been exhausted.
func Concat(base, next Iterator) Iterator {
	var idx int
	return Func(func() (entries.LogEntry, int, error) {
		e, i, err := base.Next()
		if err != nil {
			if IsEnd(err) {
				e, i, err := next.Next()
				if err != nil {
					return e, i, err
				}
				return e, i + idx, err
			}
			return e, i, err
		}
		idx++
		return e, i, err
	})
}
