package builder

import (
	"errors"
	"fmt"

	"github.com/hlpio/logdec/pkg/iterator"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDefinition = errors.New("invalid decoder definition")
	ErrUnknownBuilder    = errors.New("unknown builder")
)

// Operator transforms one event stream into another. Compiled decoders are a
// single Operator chained from their stage Operators.
type Operator func(iterator.Iterator) iterator.Iterator

// OpBuilder builds a stage Operator from its definition sub-document and the
// decoder's tracer.
type OpBuilder func(def *yaml.Node, tr Tracer) (Operator, error)

// CombinatorBuilder composes a sequence of Operators into one.
type CombinatorBuilder func(ops []Operator) (Operator, error)

// Registry is the catalog of stage and combinator builders, keyed by name.
// Populate it before building any decoders; it's read-only afterwards.
type Registry struct {
	ops         map[string]OpBuilder
	combinators map[string]CombinatorBuilder
}

func NewRegistry() *Registry {
	return &Registry{
		ops:         map[string]OpBuilder{},
		combinators: map[string]CombinatorBuilder{},
	}
}

func (r *Registry) RegisterOp(name string, b OpBuilder) {
	if b == nil {
		panic("op builder is nil")
	}
	r.ops[name] = b
}

func (r *Registry) RegisterCombinator(name string, b CombinatorBuilder) {
	if b == nil {
		panic("combinator builder is nil")
	}
	r.combinators[name] = b
}

// OpBuilder resolves a stage builder by name.
func (r *Registry) OpBuilder(name string) (OpBuilder, error) {
	b, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuilder, name)
	}
	return b, nil
}

// Combinator resolves a combinator builder by name.
func (r *Registry) Combinator(name string) (CombinatorBuilder, error) {
	b, ok := r.combinators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuilder, name)
	}
	return b, nil
}

// Default returns a Registry with all built-in stage and combinator builders
// registered.
func Default() *Registry {
	r := NewRegistry()
	r.RegisterOp("check", stageBuilderCheck)
	r.RegisterOp("parse", stageBuilderParse)
	r.RegisterOp("normalize", stageBuilderNormalize)
	r.RegisterOp("rename", stageBuilderRename)
	r.RegisterCombinator("combinator.chain", combinatorChain)
	r.RegisterCombinator("combinator.broadcast", combinatorBroadcast)
	return r
}
