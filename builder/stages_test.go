package builder

import (
	"testing"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/hlp"
	"github.com/hlpio/logdec/pkg/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func stageNode(t *testing.T, def string) *yaml.Node {
	t.Helper()
	doc := mustParse(t, def)
	return doc.root
}

func buildStage(t *testing.T, b OpBuilder, def string) Operator {
	t.Helper()
	op, err := b(stageNode(t, def), NewTracer(testLogger(), "test"))
	require.NoError(t, err)
	return op
}

func TestStageCheck(t *testing.T) {
	op := buildStage(t, stageBuilderCheck, `
event.module: sshd
source.port: 22
ok: true
`)
	matching := entries.LogEntry{"event.module": "sshd", "source.port": int64(22), "ok": true}
	wrongValue := entries.LogEntry{"event.module": "nginx", "source.port": int64(22), "ok": true}
	missingField := entries.LogEntry{"event.module": "sshd"}

	out := collect(t, op(iterator.FromSlice([]entries.LogEntry{matching, wrongValue, missingField})))
	require.Len(t, out, 1)
	assert.Equal(t, "sshd", out[0]["event.module"])
}

func TestStageCheck_Invalid(t *testing.T) {
	_, err := stageBuilderCheck(stageNode(t, `"just a string"`), NewTracer(testLogger(), "test"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = stageBuilderCheck(stageNode(t, `{}`), NewTracer(testLogger(), "test"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestStageParse(t *testing.T) {
	require.NoError(t, hlp.ConfigureParserMappings(testLogger(), `{
		"client.ip": "ip",
		"http.request.method": "keyword"
	}`))
	op := buildStage(t, stageBuilderParse, `
patterns:
  - "@message": "<client.ip> <http.request.method> <_tmp/json>"
`)
	hit := entries.LogEntry{"@message": `10.0.0.7 GET {"path":"/x"}`}
	miss := entries.LogEntry{"@message": "no match here"}
	noField := entries.LogEntry{"other": "field"}

	out := collect(t, op(iterator.FromSlice([]entries.LogEntry{hit, miss, noField})))
	require.Len(t, out, 3, "parse failures pass events through unmodified")

	decoded := out[0]
	assert.Equal(t, "10.0.0.7", decoded["client.ip"])
	assert.Equal(t, "GET", decoded["http.request.method"])
	assert.True(t, decoded.IsDecoded())
	assert.NotContains(t, decoded, "_tmp", "temporary fields must be stripped")

	assert.False(t, out[1].IsDecoded())
	assert.False(t, out[2].IsDecoded())
}

func TestStageParse_JSONExpanded(t *testing.T) {
	op := buildStage(t, stageBuilderParse, `
patterns:
  - "@message": "payload <payload.doc/json> end"
`)
	require.NoError(t, hlp.ConfigureParserMappings(testLogger(), `{"payload.doc": "json"}`))
	// Recompile now that the schema knows the field.
	op = buildStage(t, stageBuilderParse, `
patterns:
  - "@message": "payload <payload.doc/json> end"
`)
	e := entries.LogEntry{"@message": `payload {"k": 1} end`}
	out := collect(t, op(iterator.FromSlice([]entries.LogEntry{e})))
	require.Len(t, out, 1)
	doc, ok := out[0]["payload.doc"].(map[string]any)
	require.True(t, ok, "raw JSON captures must be expanded into structured values")
	assert.Equal(t, float64(1), doc["k"])
}

func TestStageParse_Invalid(t *testing.T) {
	tr := NewTracer(testLogger(), "test")
	_, err := stageBuilderParse(stageNode(t, `patterns: []`), tr)
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = stageBuilderParse(stageNode(t, `other: thing`), tr)
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = stageBuilderParse(stageNode(t, "patterns:\n  - \"@message\": \"<a><b>\"\n"), tr)
	assert.ErrorIs(t, err, hlp.ErrInvalidPattern)
}

func TestStageNormalize(t *testing.T) {
	op := buildStage(t, stageBuilderNormalize, `
event.kind: event
event.severity: 3
`)
	out := collect(t, op(iterator.FromSlice([]entries.LogEntry{{"a": "b"}})))
	require.Len(t, out, 1)
	assert.Equal(t, "event", out[0]["event.kind"])
	assert.Equal(t, 3, out[0]["event.severity"])
	assert.Equal(t, "b", out[0]["a"])
}

func TestStageRename(t *testing.T) {
	op := buildStage(t, stageBuilderRename, `
srcfield: target.field
`)
	out := collect(t, op(iterator.FromSlice([]entries.LogEntry{{"srcfield": "v"}, {"other": "w"}})))
	require.Len(t, out, 2)
	assert.Equal(t, "v", out[0]["target.field"])
	assert.NotContains(t, out[0], "srcfield")
	assert.Equal(t, "w", out[1]["other"])
}

func TestCombinatorChain(t *testing.T) {
	var order []string
	mark := func(name string) Operator {
		return func(it iterator.Iterator) iterator.Iterator {
			return iterator.Map(it, func(e entries.LogEntry) entries.LogEntry {
				order = append(order, name)
				return e
			})
		}
	}
	op, err := combinatorChain([]Operator{mark("a"), mark("b"), mark("c")})
	require.NoError(t, err)
	collect(t, op(iterator.FromSlice([]entries.LogEntry{{}})))
	assert.Equal(t, []string{"a", "b", "c"}, order)

	_, err = combinatorChain(nil)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}
