// Package hlp compiles human-oriented log parser patterns into executable
// parser functions.
//
// A pattern mixes literal text with captures:
//
//	<name>            mandatory capture, type resolved via the schema map
//	<?name>           optional capture, the cursor is restored on failure
//	<a>?<b>           alternation, try a then b at the same position
//	<_name/type/opts> temporary capture with an explicit type
//
// Compiling a pattern produces a ParserFn that consumes a log line left to
// right and fills a ParseResult.
package hlp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSchema = errors.New("invalid schema configuration")
)

// ParseResult maps capture names to extracted values. Values are strings
// except for number (int64/float64), boolean (bool), timestamp (time.Time),
// map (map[string]string) and json (json.RawMessage) captures.
type ParseResult map[string]any

// ExecuteResult reports the outcome of running a compiled pattern against an
// input. Trace records per-parser success and failure in execution order.
type ExecuteResult struct {
	OK    bool   `json:"ok"`
	Trace string `json:"trace"`
}

// ParserFn runs a compiled pattern against an event, filling result.
// A ParserFn holds no mutable state: it's safe for concurrent use as long as
// each call supplies its own ParseResult.
type ParserFn func(event string, result ParseResult) ExecuteResult

// GetParserOp compiles a pattern into a ParserFn.
// This parses the complete pattern to create and bind all the specific
// parsers capable of resolving an event matching that pattern.
func GetParserOp(pattern string) (ParserFn, error) {
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}
	exprs, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w: no expressions obtained from pattern", ErrInvalidPattern)
	}
	parsers := getParserList(exprs)
	return func(event string, result ParseResult) ExecuteResult {
		return executeParserList(event, parsers, result)
	}, nil
}

func executeParserList(event string, parsers []parser, result ParseResult) ExecuteResult {
	var (
		cur   = cursor{src: event}
		trace strings.Builder
	)
	for i := range parsers {
		p := &parsers[i]
		prev := cur.pos
		parse := availableParsers[p.Type]
		if parse == nil {
			trace.WriteString(fmt.Sprintf("Parser[%q] failure: Missing implementation for parser [%s]", p.Name, p.Name))
			return ExecuteResult{OK: false, Trace: trace.String()}
		}
		if !parse(&cur, p, result) {
			if p.ExpType == exprOptionalCapture || p.ExpType == exprOrCapture {
				// An OrCapture that fails cleanly falls through to the
				// following capture, which tries again at the same position.
				cur.pos = prev
				continue
			}
			trace.WriteString(fmt.Sprintf("Parser[%q] failure", p.Name))
			return ExecuteResult{OK: false, Trace: trace.String()}
		}
		trace.WriteString(fmt.Sprintf("Parser[%q] success\n", p.Name))
	}
	return ExecuteResult{OK: true, Trace: trace.String()}
}
