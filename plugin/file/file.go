package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/nxadm/tail"
)

// newEntry builds a LogEntry for one raw log line, stamping ingest metadata.
func newEntry(line string, readTime time.Time, lineNum int) entries.LogEntry {
	entry := entries.FromString(line)
	entry[entries.StandardEventIDField] = uuid.NewString()
	entry["@read_timestamp"] = readTime.Format(time.RFC3339)
	entry["@read_line_number"] = lineNum
	return entry
}

// Source will create an iterator.Iterator over the lines of the given log
// file, using context.Background as the context.
func Source(filename string) (iterator.Iterator, error) {
	return CtxSource(context.Background(), filename)
}

// CtxSource will create an iterator.Iterator over the lines of the given log
// file. A line holding a JSON document becomes a structured entry, any other
// line is stored under the standard message field. Every entry gets a unique
// event ID and read timing fields.
func CtxSource(ctx context.Context, filename string) (iterator.Iterator, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		defer func() {
			_ = f.Close()
		}()
		scanner := bufio.NewScanner(f)
		num := 0
		for scanner.Scan() {
			num++
			entry := newEntry(scanner.Text(), time.Now(), num)
			select {
			case <-ctx.Done():
				return
			case ch <- entry:
			}
		}
	}()
	return iterator.FromChannel(ch), nil
}

// CtxTailSource watches the file for changes, producing a new entry for each
// appended line until the context is cancelled.
func CtxTailSource(ctx context.Context, filename string) (iterator.Iterator, error) {
	t, err := tail.TailFile(filename, tail.Config{
		ReOpen:    true,
		MustExist: true,
		Follow:    true,
	})
	if err != nil {
		return nil, err
	}
	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				_ = t.Stop()
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				ch <- newEntry(l.Text, l.Time, l.Num)
			}
		}
	}()
	return iterator.FromChannel(ch), nil
}

// Sink will append each entry in the iterator as a JSON document on a single
// line to the specified file, creating it if necessary.
// In case of an error, Sink will drain the iterator to prevent upstream blocking.
func Sink(iter iterator.Iterator, filename string, perms os.FileMode) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perms)
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	w := bufio.NewWriter(f)
	defer func() {
		_ = w.Flush()
	}()
	return iter.Iterate(func(entry entries.LogEntry, _ int) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		return nil
	})
}
