package builder

import (
	"fmt"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	"gopkg.in/yaml.v3"
)

// stageBuilderCheck builds the gating predicate of a decoder: an object of
// field names to expected values. Events that don't match every condition are
// dropped from the stream.
func stageBuilderCheck(def *yaml.Node, tr Tracer) (Operator, error) {
	doc := FromNode(def)
	if !doc.IsMap() {
		return nil, fmt.Errorf("%w: check stage expects an object of conditions", ErrInvalidDefinition)
	}
	type condition struct {
		field    string
		expected any
	}
	var conditions []condition
	for _, m := range doc.Members() {
		expected, err := decodeScalar(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: check condition for field %s: %v", ErrInvalidDefinition, m.Name, err)
		}
		conditions = append(conditions, condition{field: m.Name, expected: expected})
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("%w: check stage must have at least one condition", ErrInvalidDefinition)
	}

	trace := tr.TraceFn()
	return func(it iterator.Iterator) iterator.Iterator {
		return iterator.Filter(it, func(e entries.LogEntry, _ int) bool {
			for _, c := range conditions {
				if !fieldMatches(e, c.field, c.expected) {
					trace(fmt.Sprintf("{%s} check condition failed", c.field))
					return false
				}
			}
			return true
		})
	}, nil
}

func fieldMatches(e entries.LogEntry, field string, expected any) bool {
	if !e.HasField(field) {
		return false
	}
	switch want := expected.(type) {
	case string:
		got, ok := e.AsString(field)
		return ok && got == want
	case bool:
		got, ok := e[field].(bool)
		return ok && got == want
	case int:
		got, ok := e.AsInt(field)
		return ok && got == int64(want)
	case int64:
		got, ok := e.AsInt(field)
		return ok && got == want
	case float64:
		got, ok := e.AsFloat(field)
		return ok && got == want
	case nil:
		return e[field] == nil
	default:
		return false
	}
}
