package file

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/hlpio/logdec/plugin"
)

func Plugin() plugin.Plugin {
	return new(filePlugin)
}

type filePlugin struct{}

func (*filePlugin) ID() string {
	return "file"
}

func (*filePlugin) Stopping() error {
	return nil
}

func (*filePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("file", "Tail", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: requires 1 argument", plugin.ErrArgs)
		}
		return CtxTailSource(ctx, args[0])
	}, `file.Tail FILE_NAME

This source will watch the file specified by FILE_NAME for changes, producing a new log entry for each new line.
Structured or unstructured lines may be read, and each entry receives a unique event ID.`)
	reg.RegisterSource("file", "File", func(ctx context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: requires 1 argument", plugin.ErrArgs)
		}
		return CtxSource(ctx, args[0])
	}, `file.File FILE_NAME

This source will read each line of the file specified by FILE_NAME, emitting a log entry for each one.
If the line represents a valid JSON document, then its fields become the entry, otherwise the line is stored under "@message".`)
	reg.RegisterSink("file", "File", func(_ context.Context, src iterator.Iterator, args ...string) error {
		if len(args) < 1 {
			return fmt.Errorf("%w: requires 1 or 2 arguments", plugin.ErrArgs)
		}
		if len(args) >= 2 {
			perms, err := strconv.ParseUint(args[1], 8, 32)
			if err != nil {
				return fmt.Errorf("%w: invalid file permission argument", plugin.ErrArgs)
			}
			return Sink(src, args[0], os.FileMode(perms))
		}
		return Sink(src, args[0], 0600)
	}, `file.File FILE_NAME [FILE_MODE]

This sink will append each log entry as a JSON document on a single line to a file specified by FILE_NAME, creating it if necessary.
If FILE_MODE is a string representing a valid octal file mode like "644", then this mode will be used to create the file if it doesn't already exist.`)
}
