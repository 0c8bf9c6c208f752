package builder

import (
	"encoding/json"
	"fmt"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/hlp"
	"github.com/hlpio/logdec/pkg/iterator"
	"gopkg.in/yaml.v3"
)

// stageBuilderParse builds the field-extraction stage. The definition is an
// object with a 'patterns' array of single-member objects mapping a source
// field to an hlp pattern:
//
//	parse:
//	  patterns:
//	    - "@message": '<source.ip>:<source.port> <http.request.method>'
//
// Each pattern is compiled once at build time. At execution time an event
// that matches has the captured fields merged in, temporary fields stripped,
// and is marked decoded. Events that don't match pass through unmodified with
// a trace line.
func stageBuilderParse(def *yaml.Node, tr Tracer) (Operator, error) {
	doc := FromNode(def)
	if !doc.IsMap() {
		return nil, fmt.Errorf("%w: parse stage expects an object", ErrInvalidDefinition)
	}
	patternsNode, ok := doc.Get("patterns")
	if !ok {
		return nil, fmt.Errorf("%w: parse stage must have a patterns array", ErrInvalidDefinition)
	}
	var rawPatterns []map[string]string
	if err := patternsNode.Decode(&rawPatterns); err != nil {
		return nil, fmt.Errorf("%w: parse stage patterns: %v", ErrInvalidDefinition, err)
	}
	if len(rawPatterns) == 0 {
		return nil, fmt.Errorf("%w: parse stage must have some patterns configured", ErrInvalidDefinition)
	}

	type fieldParser struct {
		field   string
		pattern string
		op      hlp.ParserFn
	}
	var parsers []fieldParser
	for _, item := range rawPatterns {
		if len(item) != 1 {
			return nil, fmt.Errorf("%w: each patterns entry must map one field to one pattern", ErrInvalidDefinition)
		}
		for field, pattern := range item {
			op, err := hlp.GetParserOp(pattern)
			if err != nil {
				return nil, fmt.Errorf("parse stage builder encountered error compiling pattern for field %s: %w", field, err)
			}
			parsers = append(parsers, fieldParser{field: field, pattern: pattern, op: op})
		}
	}

	var (
		trace   = tr.TraceFn()
		decoder = tr.Name()
	)
	return func(it iterator.Iterator) iterator.Iterator {
		return iterator.Map(it, func(e entries.LogEntry) entries.LogEntry {
			for _, p := range parsers {
				ev, ok := e.AsString(p.field)
				if !ok {
					trace(fmt.Sprintf("{%s: %s} field is not present", p.field, p.pattern))
					continue
				}
				result := hlp.ParseResult{}
				res := p.op(ev, result)
				if !res.OK {
					trace(fmt.Sprintf("{%s: %s} failed to parse\nParser trace: %s", p.field, p.pattern, res.Trace))
					continue
				}
				mergeParseResult(e, result)
				e.StripTemporary()
				e.MarkDecoded(decoder)
				trace(fmt.Sprintf("{%s: %s} parsed successfully\nParser trace: %s", p.field, p.pattern, res.Trace))
			}
			return e
		})
	}, nil
}

// mergeParseResult copies captured values into the event, expanding raw JSON
// captures into structured values.
func mergeParseResult(e entries.LogEntry, result hlp.ParseResult) {
	for name, val := range result {
		if raw, ok := val.(json.RawMessage); ok {
			var structured any
			if err := json.Unmarshal(raw, &structured); err == nil {
				e[name] = structured
				continue
			}
		}
		e[name] = val
	}
}
