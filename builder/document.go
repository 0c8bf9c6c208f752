package builder

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a decoder definition document. It wraps the yaml node tree
// directly because stage composition depends on member order, which Go maps
// would not preserve. YAML being a JSON superset, JSON definitions load
// through the same path.
type Document struct {
	root *yaml.Node
}

// ParseDefinition loads a definition from YAML or JSON bytes.
func ParseDefinition(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
	}
	return &Document{root: node.Content[0]}, nil
}

// FromNode wraps a sub-node of a larger definition as its own Document.
func FromNode(node *yaml.Node) *Document {
	return &Document{root: node}
}

func (d *Document) IsMap() bool {
	return d.root != nil && d.root.Kind == yaml.MappingNode
}

// Member is one name/value pair of a definition object.
type Member struct {
	Name  string
	Value *yaml.Node
}

// Members returns the definition's members in document order.
func (d *Document) Members() []Member {
	if !d.IsMap() {
		return nil
	}
	members := make([]Member, 0, len(d.root.Content)/2)
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		members = append(members, Member{
			Name:  d.root.Content[i].Value,
			Value: d.root.Content[i+1],
		})
	}
	return members
}

// Get returns the named member's value node.
func (d *Document) Get(name string) (*yaml.Node, bool) {
	for _, m := range d.Members() {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

func decodeString(node *yaml.Node) (string, error) {
	var s string
	if err := node.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeStringSlice(node *yaml.Node) ([]string, error) {
	var s []string
	if err := node.Decode(&s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeScalar(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
