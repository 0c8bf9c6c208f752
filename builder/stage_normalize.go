package builder

import (
	"fmt"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	"gopkg.in/yaml.v3"
)

// stageBuilderNormalize builds a stage stamping static field values onto
// every event that reaches it.
func stageBuilderNormalize(def *yaml.Node, tr Tracer) (Operator, error) {
	doc := FromNode(def)
	if !doc.IsMap() {
		return nil, fmt.Errorf("%w: normalize stage expects an object of field values", ErrInvalidDefinition)
	}
	spec := entries.NewNormalizeSpec()
	for _, m := range doc.Members() {
		val, err := decodeScalar(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: normalize value for field %s: %v", ErrInvalidDefinition, m.Name, err)
		}
		spec.Set(m.Name, val)
	}
	if len(spec) == 0 {
		return nil, fmt.Errorf("%w: normalize stage must set at least one field", ErrInvalidDefinition)
	}
	return func(it iterator.Iterator) iterator.Iterator {
		return iterator.Map(it, func(e entries.LogEntry) entries.LogEntry {
			return entries.Normalize(e, spec)
		})
	}, nil
}
