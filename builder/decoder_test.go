package builder

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/hlp"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

func mustParse(t *testing.T, def string) *Document {
	t.Helper()
	doc, err := ParseDefinition([]byte(def))
	require.NoError(t, err)
	return doc
}

func collect(t *testing.T, it iterator.Iterator) []entries.LogEntry {
	t.Helper()
	var out []entries.LogEntry
	require.NoError(t, it.Iterate(func(e entries.LogEntry, _ int) error {
		out = append(out, e)
		return nil
	}))
	return out
}

func TestDecoder_Full(t *testing.T) {
	require.NoError(t, hlp.ConfigureParserMappings(testLogger(), `{
		"source.ip": "ip",
		"source.port": "number"
	}`))
	def := mustParse(t, `
name: sshd-conn
parents: [syslog]
metadata:
  module:
    title: sshd
check:
  event.module: sshd
parse:
  patterns:
    - "@message": "connection from <source.ip>:<source.port>"
normalize:
  event.kind: event
`)
	c, err := Decoder(testLogger(), Default(), def)
	require.NoError(t, err)
	assert.Equal(t, "sshd-conn", c.Name)
	assert.Equal(t, []string{"syslog"}, c.Parents)
	require.Contains(t, c.Metadata, "module")
	require.NotNil(t, c.Op)

	src := iterator.FromSlice([]entries.LogEntry{
		{
			"event.module": "sshd",
			"@message":     "connection from 10.1.2.3:2222",
		},
		{
			"event.module": "nginx",
			"@message":     "connection from 10.1.2.3:2222",
		},
	})
	out := collect(t, c.Op(src))
	require.Len(t, out, 1, "non-matching check conditions must drop the event")

	e := out[0]
	assert.Equal(t, "10.1.2.3", e["source.ip"])
	assert.Equal(t, int64(2222), e["source.port"])
	assert.Equal(t, "event", e["event.kind"])
	assert.True(t, e.IsDecoded())
	assert.Equal(t, "sshd-conn", e[entries.StandardDecoderField])
}

func TestDecoder_ImplicitFilterDropsDecoded(t *testing.T) {
	def := mustParse(t, `
name: d1
check:
  kind: x
`)
	c, err := Decoder(testLogger(), Default(), def)
	require.NoError(t, err)

	already := entries.LogEntry{"kind": "x"}
	already.MarkDecoded("other")
	out := collect(t, c.Op(iterator.FromSlice([]entries.LogEntry{already})))
	assert.Empty(t, out, "already decoded events must not pass through again")
}

func TestDecoder_StageOrder(t *testing.T) {
	var order []string
	recording := func(name string) OpBuilder {
		return func(def *yaml.Node, tr Tracer) (Operator, error) {
			return func(it iterator.Iterator) iterator.Iterator {
				return iterator.Map(it, func(e entries.LogEntry) entries.LogEntry {
					order = append(order, name)
					return e
				})
			}, nil
		}
	}
	reg := NewRegistry()
	reg.RegisterOp("check", recording("check"))
	reg.RegisterOp("s1", recording("s1"))
	reg.RegisterOp("s2", recording("s2"))
	reg.RegisterOp("s3", recording("s3"))
	reg.RegisterCombinator("combinator.chain", combinatorChain)

	// s1 is declared before check, and must still execute after it.
	def := mustParse(t, `
s1: {}
name: ordered
check:
  any: thing
s2: {}
s3: {}
`)
	c, err := Decoder(testLogger(), reg, def)
	require.NoError(t, err)

	out := collect(t, c.Op(iterator.FromSlice([]entries.LogEntry{{"any": "thing"}})))
	require.Len(t, out, 1)
	assert.Equal(t, []string{"check", "s1", "s2", "s3"}, order)
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  string
		want error
	}{
		{"not an object", "[1, 2]", ErrInvalidDefinition},
		{"missing name", "check:\n  a: b\n", ErrInvalidDefinition},
		{"missing check", "name: d1\n", ErrInvalidDefinition},
		{"unknown stage", "name: d1\ncheck:\n  a: b\nbogus: {}\n", ErrUnknownBuilder},
		{"bad parents", "name: d1\nparents: nope\ncheck:\n  a: b\n", nil},
		{"bad check", "name: d1\ncheck: scalar\n", ErrInvalidDefinition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decoder(testLogger(), Default(), mustParse(t, tc.def))
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestDecoder_ErrorNamesStage(t *testing.T) {
	def := mustParse(t, `
name: d1
check:
  a: b
parse:
  patterns:
    - "@message": "<a><b>"
`)
	_, err := Decoder(testLogger(), Default(), def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building stage parse")
	assert.ErrorIs(t, err, hlp.ErrInvalidPattern)
}
