// Package builder composes decoder definitions into executable stream
// operators. A decoder definition names a pipeline of stages (check, parse,
// normalize, ...) that are resolved against a Registry and chained into a
// single Operator, returned as a Connectable.
package builder

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
)

// Decoder builds a Connectable from a decoder definition.
//
// The definition must be an object with a mandatory name and check stage.
// parents and metadata are extracted as plain attributes; every other member
// is resolved in the registry as a stage builder, in document order. The
// composed operator always starts with an implicit filter dropping events
// that are already decoded, followed by the check stage, then the remaining
// stages in definition order.
func Decoder(log hclog.Logger, reg *Registry, def *Document) (Connectable, error) {
	var none Connectable
	log = log.Named("builder")
	if !def.IsMap() {
		err := fmt.Errorf("%w: decoder builder expects value to be an object", ErrInvalidDefinition)
		log.Error("Definition is not an object", "error", err)
		return none, err
	}

	processed := map[string]bool{}

	// Implicit filter in front: events already claimed by another decoder
	// are dropped from this decoder's stream.
	stages := []Operator{func(it iterator.Iterator) iterator.Iterator {
		return iterator.Filter(it, func(e entries.LogEntry, _ int) bool {
			return !e.IsDecoded()
		})
	}}

	nameNode, ok := def.Get("name")
	if !ok {
		err := fmt.Errorf("%w: decoder builder expects definition to have a name attribute", ErrInvalidDefinition)
		log.Error("Missing name attribute", "error", err)
		return none, err
	}
	name, err := decodeString(nameNode)
	if err != nil {
		err = fmt.Errorf("decoder builder encountered error building attribute name: %w", err)
		log.Error("Bad name attribute", "error", err)
		return none, err
	}
	processed["name"] = true

	var parents []string
	if parentsNode, ok := def.Get("parents"); ok {
		parents, err = decodeStringSlice(parentsNode)
		if err != nil {
			err = fmt.Errorf("decoder builder encountered error building attribute parents: %w", err)
			log.Error("Bad parents attribute", "error", err, "decoder", name)
			return none, err
		}
		processed["parents"] = true
	}

	var metadata map[string]*Document
	if metaNode, ok := def.Get("metadata"); ok {
		meta := FromNode(metaNode)
		if !meta.IsMap() {
			err = fmt.Errorf("%w: decoder builder encountered error building attribute metadata", ErrInvalidDefinition)
			log.Error("Bad metadata attribute", "error", err, "decoder", name)
			return none, err
		}
		metadata = map[string]*Document{}
		for _, m := range meta.Members() {
			metadata[m.Name] = FromNode(m.Value)
		}
		processed["metadata"] = true
	}

	tr := NewTracer(log, name)

	checkNode, ok := def.Get("check")
	if !ok {
		err = fmt.Errorf("%w: decoder builder expects definition to have a check stage", ErrInvalidDefinition)
		log.Error("Missing check stage", "error", err, "decoder", name)
		return none, err
	}
	checkBuilder, err := reg.OpBuilder("check")
	if err == nil {
		var checkOp Operator
		checkOp, err = checkBuilder(checkNode, tr)
		if err == nil {
			stages = append(stages, checkOp)
		}
	}
	if err != nil {
		err = fmt.Errorf("decoder builder encountered error building stage check: %w", err)
		log.Error("Failed to build check stage", "error", err, "decoder", name)
		return none, err
	}
	processed["check"] = true

	// Rest of the stages, preserving definition order.
	for _, m := range def.Members() {
		if processed[m.Name] {
			continue
		}
		stageBuilder, err := reg.OpBuilder(m.Name)
		if err == nil {
			var op Operator
			op, err = stageBuilder(m.Value, tr)
			if err == nil {
				stages = append(stages, op)
				processed[m.Name] = true
				continue
			}
		}
		err = fmt.Errorf("decoder builder encountered error building stage %s: %w", m.Name, err)
		log.Error("Failed to build stage", "error", err, "decoder", name, "stage", m.Name)
		return none, err
	}

	chain, err := reg.Combinator("combinator.chain")
	var decoder Operator
	if err == nil {
		decoder, err = chain(stages)
	}
	if err != nil {
		err = fmt.Errorf("decoder builder encountered error chaining all stages: %w", err)
		log.Error("Failed to chain stages", "error", err, "decoder", name)
		return none, err
	}

	return Connectable{
		Name:     name,
		Parents:  parents,
		Metadata: metadata,
		Op:       decoder,
		Tracer:   tr,
	}, nil
}
