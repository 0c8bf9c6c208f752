package plugin

import (
	"context"
	"testing"

	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistration(t *testing.T) {
	reg := NewRegistration()
	reg.RegisterSource("test", "Source", func(_ context.Context, _ ...string) (iterator.Iterator, error) {
		return iterator.FromSlice(nil), nil
	}, "test.Source doc")
	reg.RegisterSink("test", "Sink", func(_ context.Context, src iterator.Iterator, _ ...string) error {
		iterator.Drain(src)
		return nil
	}, "test.Sink doc")

	src, ok := reg.Source("test", "Source")
	require.True(t, ok)
	assert.NotNil(t, src)

	_, ok = reg.Source("test", "Missing")
	assert.False(t, ok)

	sink, ok := reg.Sink("test", "Sink")
	require.True(t, ok)
	assert.NotNil(t, sink)

	docs := reg.AllDocs()
	assert.Contains(t, docs, "test.Source doc")
	assert.Contains(t, docs, "test.Sink doc")
}

func TestRegistration_NilPanics(t *testing.T) {
	reg := NewRegistration()
	assert.Panics(t, func() {
		reg.RegisterSource("x", "Y", nil, "")
	})
	assert.Panics(t, func() {
		reg.RegisterSink("x", "Y", nil, "")
	})
}
