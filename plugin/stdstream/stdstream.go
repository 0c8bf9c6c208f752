package stdstream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/hlpio/logdec/plugin"
)

var _ plugin.Plugin = (*stdPlugin)(nil)

func Plugin() plugin.Plugin {
	return new(stdPlugin)
}

type stdPlugin struct{}

func (s *stdPlugin) ID() string {
	return "std"
}

func (s *stdPlugin) Stopping() error {
	return nil
}

func (s *stdPlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("std", "In", SourceIn, `std.In

Reads each line of STDIN as a log entry. The input may be a valid JSON object, or completely unstructured.`)
	reg.RegisterSink("std", "Out", SinkOut, `std.Out

Writes each log entry as a JSON line to STDOUT.`)
	reg.RegisterSink("std", "Err", SinkErr, `std.Err

Writes each log entry as a JSON line to STDERR.`)
}

func SourceIn(ctx context.Context, _ ...string) (iterator.Iterator, error) {
	ch := make(chan entries.LogEntry)
	go func() {
		defer close(ch)
		var cancelled bool
		go func() {
			<-ctx.Done()
			cancelled = true
		}()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if cancelled {
				return
			}
			ch <- entries.FromString(scanner.Text())
		}
	}()
	return iterator.FromChannel(ch), nil
}

func SinkOut(_ context.Context, src iterator.Iterator, _ ...string) error {
	return writeAll(os.Stdout, src)
}

func SinkErr(_ context.Context, src iterator.Iterator, _ ...string) error {
	return writeAll(os.Stderr, src)
}

func writeAll(w io.Writer, src iterator.Iterator) error {
	return src.Iterate(func(entry entries.LogEntry, _ int) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	})
}
