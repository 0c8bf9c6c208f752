package builder

import (
	"fmt"

	"github.com/hlpio/logdec/pkg/iterator"
)

// combinatorChain composes operators sequentially: the first operator's
// output stream feeds the second, and so on.
func combinatorChain(ops []Operator) (Operator, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: chain combinator needs at least one operator", ErrInvalidDefinition)
	}
	return func(it iterator.Iterator) iterator.Iterator {
		for _, op := range ops {
			it = op(it)
		}
		return it
	}, nil
}

// combinatorBroadcast hands every event to every operator. Stage operators
// are per-event pass-through transforms, so broadcasting reduces to applying
// them in sequence over the same stream.
func combinatorBroadcast(ops []Operator) (Operator, error) {
	return combinatorChain(ops)
}
