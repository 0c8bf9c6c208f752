package iterator

import (
	"errors"

	"github.com/hlpio/logdec/pkg/entries"
)

var _ Iterator = (NextFunc)(nil)

// NextFunc adapts a next-element function to the Iterator interface.
type NextFunc func() (entries.LogEntry, int, error)

// Func wraps fn as an Iterator.
func Func(fn func() (entries.LogEntry, int, error)) Iterator {
	return NextFunc(fn)
}

func (fn NextFunc) Next() (entries.LogEntry, int, error) {
	return fn()
}

func (fn NextFunc) Iterate(iter func(entry entries.LogEntry, i int) error) error {
	for {
		entry, i, err := fn()
		if err != nil {
			if IsEnd(err) {
				return nil
			}
			return err
		}
		if err := iter(entry, i); err != nil {
			if IsEnd(err) {
				return nil
			}
			return err
		}
	}
}

// End returns the values signalling the end of a stream.
func End() (entries.LogEntry, int, error) {
	return nil, -1, ErrStopIteration
}

// Err returns the values signalling a stream failure.
func Err(err error) (entries.LogEntry, int, error) {
	return nil, -1, err
}

// IsEnd reports whether err signals the normal end of a stream.
func IsEnd(err error) bool {
	return errors.Is(err, ErrStopIteration)
}
