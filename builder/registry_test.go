package builder

import (
	"testing"

	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.RegisterOp("noop", func(def *yaml.Node, tr Tracer) (Operator, error) {
		return func(it iterator.Iterator) iterator.Iterator { return it }, nil
	})

	b, err := r.OpBuilder("noop")
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = r.OpBuilder("missing")
	assert.ErrorIs(t, err, ErrUnknownBuilder)

	_, err = r.Combinator("missing")
	assert.ErrorIs(t, err, ErrUnknownBuilder)
}

func TestDefault_Builtins(t *testing.T) {
	r := Default()
	for _, name := range []string{"check", "parse", "normalize", "rename"} {
		_, err := r.OpBuilder(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"combinator.chain", "combinator.broadcast"} {
		_, err := r.Combinator(name)
		assert.NoError(t, err, name)
	}
}
