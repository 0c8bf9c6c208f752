package builder

import (
	"github.com/hashicorp/go-hclog"
)

// TraceFn receives per-stage diagnostic messages for one decoder.
type TraceFn func(msg string)

// Tracer owns the named diagnostic sink shared by every stage of a decoder,
// so per-decoder traces can be correlated without global state.
type Tracer struct {
	name string
	log  hclog.Logger
}

func NewTracer(log hclog.Logger, name string) Tracer {
	return Tracer{
		name: name,
		log:  log.Named("tracer").With("decoder", name),
	}
}

func (t Tracer) Name() string {
	return t.name
}

// TraceFn returns the sink stages use to report per-event diagnostics.
func (t Tracer) TraceFn() TraceFn {
	return func(msg string) {
		t.log.Debug(msg)
	}
}

// Connectable is an inert value carrying everything needed to attach a
// composed decoder into a larger stream graph. Parents are names only;
// resolution to other Connectables happens at graph-assembly time.
type Connectable struct {
	Name     string
	Parents  []string
	Metadata map[string]*Document
	Op       Operator
	Tracer   Tracer
}
