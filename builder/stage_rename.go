package builder

import (
	"fmt"

	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	"gopkg.in/yaml.v3"
)

// stageBuilderRename builds a stage moving captured fields to their final
// names, for decoders whose patterns capture under scratch names.
func stageBuilderRename(def *yaml.Node, tr Tracer) (Operator, error) {
	doc := FromNode(def)
	if !doc.IsMap() {
		return nil, fmt.Errorf("%w: rename stage expects an object of source to target names", ErrInvalidDefinition)
	}
	spec := entries.NewRenameSpec()
	for _, m := range doc.Members() {
		target, err := decodeString(m.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: rename target for field %s: %v", ErrInvalidDefinition, m.Name, err)
		}
		spec.Move(entries.SourceField(m.Name), entries.TargetField(target))
	}
	if len(spec) == 0 {
		return nil, fmt.Errorf("%w: rename stage must move at least one field", ErrInvalidDefinition)
	}
	return func(it iterator.Iterator) iterator.Iterator {
		return iterator.Map(it, func(e entries.LogEntry) entries.LogEntry {
			return entries.Rename(e, spec)
		})
	}, nil
}
