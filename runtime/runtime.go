// Package runtime wires the decoder builder, plugins and the stream contract
// into a running engine. It owns the decoder catalog: definitions are built
// into Connectables, parents are resolved into an execution order, and raw
// log entries are routed through the composed decoders.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/builder"
	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/hlp"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/hlpio/logdec/plugin"
)

var (
	ErrEmptyID        = errors.New("empty ID")
	ErrUndefined      = errors.New("undefined decoder")
	ErrAlreadyDefined = errors.New("decoder is already defined")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnknownSource  = errors.New("unknown source class")
	ErrUnknownSink    = errors.New("unknown sink class")
)

type runtimeState int

const (
	created runtimeState = iota
	started
	stopping
	done
)

var stateStrings = map[runtimeState]string{
	created:  "Created",
	started:  "Started",
	stopping: "Stopping",
	done:     "Done",
}

// Runtime holds the registry, the plugin registration and the decoder
// catalog for one engine instance.
type Runtime struct {
	log      hclog.Logger
	registry *builder.Registry
	plugins  []plugin.Plugin
	reg      *plugin.Registration

	decoders []builder.Connectable
	byName   map[string]int

	state  runtimeState
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRuntime(log hclog.Logger, plugins ...plugin.Plugin) *Runtime {
	return &Runtime{
		log:      log.Named("runtime"),
		registry: builder.Default(),
		plugins:  plugins,
		reg:      plugin.NewRegistration(),
		byName:   map[string]int{},
	}
}

// Registry exposes the stage builder registry, so callers can register
// additional stage builders before any decoders are built.
func (r *Runtime) Registry() *builder.Registry {
	return r.registry
}

func (r *Runtime) Start(_ctx context.Context) error {
	start := time.Now()
	log := r.log
	log.Debug("Starting runtime")
	if r.state != created {
		err := fmt.Errorf("%w: invalid state for start operation: %s", ErrInvalidState, stateStrings[r.state])
		log.Error("Invalid state to start", "error", err)
		return err
	}
	r.ctx, r.cancel = context.WithCancel(_ctx)
	log.Debug("Registering plugins")
	for _, p := range r.plugins {
		log := log.With("plugin-id", p.ID())
		log.Debug("Registering plugin")
		p.Register(r.reg)
	}
	r.state = started
	log.Info("Runtime started", "start-duration", time.Since(start).String())
	return nil
}

func (r *Runtime) Stop() (rerr error) {
	start := time.Now()
	log := r.log
	log.Debug("Stopping runtime")
	if r.state != started {
		err := fmt.Errorf("%w: invalid state for stop operation: %s", ErrInvalidState, stateStrings[r.state])
		log.Error("Invalid state to stop runtime", "error", err)
		return err
	}
	r.state = stopping
	r.cancel()
	log.Debug("Waiting for operations to cease")
	r.wg.Wait()
	log.Debug("Shutting down plugins")
	for _, p := range r.plugins {
		log := log.With("plugin-id", p.ID())
		if err := p.Stopping(); err != nil {
			log.Error("Error stopping plugin", "error", err)
			if rerr == nil {
				rerr = err
			}
		}
	}
	r.state = done
	log.Info("Runtime stopped", "stop-duration", time.Since(start).String())
	return rerr
}

// LoadSchema configures the process-wide field schema used by pattern
// compilation. Call before building any decoders.
func (r *Runtime) LoadSchema(config string) error {
	return hlp.ConfigureParserMappings(r.log, config)
}

// BuildDecoder builds a decoder definition into a Connectable and adds it to
// the catalog.
func (r *Runtime) BuildDecoder(data []byte) (builder.Connectable, error) {
	var none builder.Connectable
	def, err := builder.ParseDefinition(data)
	if err != nil {
		r.log.Error("Failed to parse decoder definition", "error", err)
		return none, err
	}
	c, err := builder.Decoder(r.log, r.registry, def)
	if err != nil {
		return none, err
	}
	if err := r.validateNewDecoderName(c.Name); err != nil {
		r.log.Error("Invalid decoder name", "error", err)
		return none, err
	}
	r.byName[c.Name] = len(r.decoders)
	r.decoders = append(r.decoders, c)
	r.log.Debug("Decoder added to catalog", "decoder", c.Name, "parents", c.Parents)
	return c, nil
}

// VetDecoder builds a decoder definition against the registry without adding
// it to the catalog.
func (r *Runtime) VetDecoder(data []byte) error {
	def, err := builder.ParseDefinition(data)
	if err != nil {
		return err
	}
	_, err = builder.Decoder(r.log, r.registry, def)
	return err
}

// Decoder returns the named catalog entry.
func (r *Runtime) Decoder(name string) (builder.Connectable, bool) {
	i, ok := r.byName[name]
	if !ok {
		return builder.Connectable{}, false
	}
	return r.decoders[i], true
}

func (r *Runtime) validateNewDecoderName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyID
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, name)
	}
	return nil
}

// executionOrder returns catalog indices parents-first. Parent names that
// don't resolve to catalog entries are treated as satisfied, since graph
// assembly may span multiple catalogs.
func (r *Runtime) executionOrder() []int {
	var (
		order  []int
		placed = make([]bool, len(r.decoders))
	)
	for len(order) < len(r.decoders) {
		progress := false
		for i, c := range r.decoders {
			if placed[i] {
				continue
			}
			ready := true
			for _, parent := range c.Parents {
				pi, ok := r.byName[parent]
				if ok && !placed[pi] {
					ready = false
					break
				}
			}
			if ready {
				placed[i] = true
				order = append(order, i)
				progress = true
			}
		}
		if !progress {
			// Cyclic parent references: fall back to insertion order for the
			// remainder so no decoder is silently dropped.
			for i := range r.decoders {
				if !placed[i] {
					placed[i] = true
					order = append(order, i)
				}
			}
		}
	}
	return order
}

// Decode routes every entry of the source through the catalog's decoders in
// parents-first order. The first decoder whose operator claims an entry marks
// it decoded; the implicit head filter of every later decoder drops it, so
// those decoders leave the entry untouched.
func (r *Runtime) Decode(src iterator.Iterator) iterator.Iterator {
	order := r.executionOrder()
	return iterator.Map(src, func(e entries.LogEntry) entries.LogEntry {
		for _, i := range order {
			if out := applyOne(r.decoders[i], e); out != nil {
				e = out
			}
		}
		return e
	})
}

// Source resolves a registered source plugin by qualified class name.
func (r *Runtime) Source(qualifier, class string, args ...string) (iterator.Iterator, error) {
	src, ok := r.reg.Source(qualifier, class)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownSource, qualifier, class)
	}
	return src(r.ctx, args...)
}

// Sink resolves a registered sink plugin by qualified class name and runs it.
func (r *Runtime) Sink(qualifier, class string, src iterator.Iterator, args ...string) error {
	sink, ok := r.reg.Sink(qualifier, class)
	if !ok {
		iterator.Drain(src)
		return fmt.Errorf("%w: %s.%s", ErrUnknownSink, qualifier, class)
	}
	return sink(r.ctx, src, args...)
}

// AllDocs returns the documentation of all registered plugin sources and sinks.
func (r *Runtime) AllDocs() string {
	return r.reg.AllDocs()
}

// applyOne feeds a single entry through a decoder's composed operator.
// A nil return means the decoder didn't claim the entry: its implicit filter
// or check stage dropped it from the stream.
func applyOne(c builder.Connectable, e entries.LogEntry) entries.LogEntry {
	out, _, err := c.Op(iterator.FromSlice([]entries.LogEntry{e})).Next()
	if err != nil {
		return nil
	}
	return out
}
