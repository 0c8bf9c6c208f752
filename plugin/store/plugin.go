package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/hlpio/logdec/plugin"
)

func Plugin(log hclog.Logger) plugin.Plugin {
	return &storePlugin{log: log}
}

type storePlugin struct {
	log    hclog.Logger
	stores []*SqliteStore
}

func (*storePlugin) ID() string {
	return "store"
}

func (p *storePlugin) Stopping() (rerr error) {
	for _, s := range p.stores {
		if err := s.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}
	return rerr
}

func (p *storePlugin) open(filename string) (*SqliteStore, error) {
	s, err := NewStore(p.log, filename)
	if err != nil {
		return nil, err
	}
	p.stores = append(p.stores, s)
	return s, nil
}

func (p *storePlugin) Register(reg *plugin.Registration) {
	reg.RegisterSource("store", "Query", func(_ context.Context, args ...string) (iterator.Iterator, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: requires a file and a table argument", plugin.ErrArgs)
		}
		s, err := p.open(args[0])
		if err != nil {
			return nil, err
		}
		return s.QueryEntries(args[1])
	}, `store.Query DB_FILE TABLE

Streams previously stored events back out of TABLE in the SQLite database DB_FILE.`)
	reg.RegisterSink("store", "Table", func(ctx context.Context, src iterator.Iterator, args ...string) error {
		if len(args) < 2 {
			return fmt.Errorf("%w: requires a file and a table argument", plugin.ErrArgs)
		}
		s, err := p.open(args[0])
		if err != nil {
			iterator.Drain(src)
			return err
		}
		return s.SinkCtx(ctx, src, args[1])
	}, `store.Table DB_FILE TABLE

Appends every decoded event to TABLE in the SQLite database DB_FILE, creating the table and any missing columns on the fly.`)
}
