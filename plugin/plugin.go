package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hlpio/logdec/pkg/iterator"
)

var (
	ErrArgs = errors.New("argument error")
)

// Plugin represents the operations expected of a source/sink plugin.
type Plugin interface {
	// ID should return a unique identifier for this plugin.
	ID() string
	// Register is called to allow registration of source and sink functions.
	Register(*Registration)
	// Stopping is called after all source and sink operations, when the engine is shutting down.
	Stopping() error
}

// SourceFunc is a function that produces an iterator.Iterator of log entries from 0 or more arguments.
type SourceFunc = func(ctx context.Context, args ...string) (iterator.Iterator, error)

// SinkFunc is a function that consumes an iterator.Iterator given 0 or more arguments.
type SinkFunc = func(ctx context.Context, src iterator.Iterator, args ...string) error

// Registration is a collection of SourceFunc and SinkFunc to be used by other components.
type Registration struct {
	sources map[string]SourceFunc
	sinks   map[string]SinkFunc
	docs    map[string]string
}

func NewRegistration() *Registration {
	return &Registration{
		sources: map[string]SourceFunc{},
		sinks:   map[string]SinkFunc{},
		docs:    map[string]string{},
	}
}

func key(qualifier, class string) string {
	return fmt.Sprintf("%s.%s", qualifier, class)
}

// RegisterSource is called by Plugin.Register to provide an input source for log lines.
func (r *Registration) RegisterSource(qualifier, class string, src SourceFunc, doc string) {
	if src == nil {
		panic("source is nil")
	}
	r.sources[key(qualifier, class)] = src
	if len(doc) > 0 {
		r.docs[key(qualifier, class)] = doc
	}
}

// Source retrieves a source known to this Registration.
func (r *Registration) Source(qualifier, class string) (SourceFunc, bool) {
	src, ok := r.sources[key(qualifier, class)]
	return src, ok
}

// RegisterSink is called by Plugin.Register to provide an output for decoded events.
func (r *Registration) RegisterSink(qualifier, class string, sink SinkFunc, doc string) {
	if sink == nil {
		panic("sink is nil")
	}
	r.sinks[key(qualifier, class)] = sink
	if len(doc) > 0 {
		r.docs[key(qualifier, class)] = doc
	}
}

// Sink retrieves a sink known to this Registration.
func (r *Registration) Sink(qualifier, class string) (SinkFunc, bool) {
	sink, ok := r.sinks[key(qualifier, class)]
	return sink, ok
}

// AllDocs will return a string containing the documentation for all loaded
// plugins, sources first, in alphabetical order.
func (r *Registration) AllDocs() string {
	var buf strings.Builder
	buf.WriteString("Sources:\n")
	writeDocs(&buf, keysOf(r.sources), r.docs)
	buf.WriteString("Sinks:\n")
	writeDocs(&buf, keysOf(r.sinks), r.docs)
	return buf.String()
}

func keysOf[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeDocs(buf *strings.Builder, keys []string, docs map[string]string) {
	if len(keys) == 0 {
		buf.WriteString("  None\n")
		return
	}
	for _, k := range keys {
		doc, ok := docs[k]
		if !ok {
			doc = k
		}
		for _, line := range strings.Split(strings.TrimSuffix(doc, "\n"), "\n") {
			buf.WriteString("  " + line + "\n")
		}
		buf.WriteString("\n")
	}
}
