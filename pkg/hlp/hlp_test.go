package hlp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureTestSchema(t *testing.T) {
	t.Helper()
	require.NoError(t, ConfigureParserMappings(testLogger(), `{
		"source.ip": "ip",
		"source.port": "number",
		"destination.domain": "domain",
		"event.time": "timestamp",
		"url.original": "url",
		"user_agent.original": "useragent",
		"event.success": "boolean",
		"a": "number",
		"b": "any"
	}`))
}

func TestGetParserOp_SourceIPAndPort(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp("<source.ip>:<source.port>")
	require.NoError(t, err)

	result := ParseResult{}
	res := op("10.0.0.1:443", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.Equal(t, "10.0.0.1", result["source.ip"])
	assert.Equal(t, int64(443), result["source.port"])
	assert.Contains(t, res.Trace, `Parser["source.ip"] success`)
	assert.Contains(t, res.Trace, `Parser["source.port"] success`)
}

func TestGetParserOp_MandatoryFailure(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp("<source.ip>:<source.port>")
	require.NoError(t, err)

	result := ParseResult{}
	res := op("not-an-ip:443", result)
	require.False(t, res.OK)
	assert.Contains(t, res.Trace, `Parser["source.ip"] failure`)
}

func TestGetParserOp_OptionalCapture(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp("<?user> logged in")
	require.NoError(t, err)

	result := ParseResult{}
	res := op(" logged in", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.NotContains(t, result, "user")

	result = ParseResult{}
	res = op("alice logged in", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.Equal(t, "alice", result["user"])
}

func TestGetParserOp_Alternation(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp("<a>?<b>")
	require.NoError(t, err)

	result := ParseResult{}
	res := op("hello", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.NotContains(t, result, "a")
	assert.Equal(t, "hello", result["b"])

	result = ParseResult{}
	res = op("42", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.Equal(t, int64(42), result["a"])
}

func TestGetParserOp_TemporaryJSON(t *testing.T) {
	op, err := GetParserOp("<_tmp/json> done")
	require.NoError(t, err)

	result := ParseResult{}
	res := op(`{"k":1} done`, result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	raw, ok := result["_tmp"].(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"k":1}`, string(raw))
}

func TestGetParserOp_CompileErrors(t *testing.T) {
	_, err := GetParserOp("")
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = GetParserOp("<a><b>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "position")
}

func TestGetParserOp_IdempotentCompile(t *testing.T) {
	configureTestSchema(t)
	op1, err := GetParserOp("<source.ip>:<source.port> <b>")
	require.NoError(t, err)
	op2, err := GetParserOp("<source.ip>:<source.port> <b>")
	require.NoError(t, err)

	inputs := []string{"10.0.0.1:443 GET /", "bad input", "1.2.3.4:80 x"}
	for _, input := range inputs {
		r1, r2 := ParseResult{}, ParseResult{}
		res1 := op1(input, r1)
		res2 := op2(input, r2)
		assert.Equal(t, res1, res2, "input %q", input)
		assert.Equal(t, r1, r2, "input %q", input)
	}
}

func TestGetParserOp_ReusableAcrossInputs(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp("<source.ip>:<source.port>")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result := ParseResult{}
		res := op("10.0.0.1:443", result)
		require.True(t, res.OK)
		assert.Equal(t, "10.0.0.1", result["source.ip"])
	}
}

func TestGetParserOp_EscapedAngleBrackets(t *testing.T) {
	configureTestSchema(t)
	op, err := GetParserOp(`\<warn\> <b>`)
	require.NoError(t, err)

	result := ParseResult{}
	res := op("<warn> disk is full", result)
	require.True(t, res.OK, "trace: %s", res.Trace)
	assert.Equal(t, "disk is full", result["b"])
}

func TestExecuteParserList_OptionalNoAdvance(t *testing.T) {
	parsers := []parser{
		{Name: "opt", Type: typeNumber, ExpType: exprOptionalCapture, EndToken: ' '},
		{Name: "rest", Type: typeToEnd, ExpType: exprCapture},
	}
	result := ParseResult{}
	res := executeParserList("word tail", parsers, result)
	require.True(t, res.OK)
	assert.Equal(t, "word tail", result["rest"], "failed optional must restore the cursor")
}

func TestExecuteParserList_MissingImplementation(t *testing.T) {
	saved := availableParsers[typeBoolean]
	availableParsers[typeBoolean] = nil
	defer func() {
		availableParsers[typeBoolean] = saved
	}()

	parsers := []parser{{Name: "flag", Type: typeBoolean, ExpType: exprCapture}}
	res := executeParserList("true", parsers, ParseResult{})
	require.False(t, res.OK)
	assert.Contains(t, res.Trace, "Missing implementation for parser [flag]")
}
