package hlp

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPattern   = errors.New("empty pattern")
	ErrInvalidPattern = errors.New("invalid pattern")
)

type expressionType int

const (
	exprLiteral expressionType = iota + 1
	exprCapture
	exprOptionalCapture
	exprOrCapture
)

// expression is one element of a parsed pattern, in pattern order.
// EndToken is the first literal character following a capture, or NUL if the
// capture runs to the end of the pattern. Literal expressions don't use it.
type expression struct {
	Text     string
	Type     expressionType
	EndToken byte
}

func errAt(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at position %d: %s", ErrInvalidPattern, pos, fmt.Sprintf(format, args...))
}

// parsePattern produces the ordered expression list for a pattern.
func parsePattern(pattern string) ([]expression, error) {
	var exprs []expression
	tk := newTokenizer(pattern)
	for {
		t := tk.next()
		switch t.Type {
		case tOpenAngle:
			if err := parseCapture(tk, &exprs); err != nil {
				return nil, errAt(t.Pos, "unable to parse capture expression: %v", err)
			}
			if tk.peek().Type == tOpenAngle {
				return nil, errAt(t.Pos, "can't have captures back to back")
			}
		case tLiteral:
			exprs = append(exprs, expression{Text: t.Text, Type: exprLiteral})
		case tEndOfExpr:
			return exprs, nil
		default:
			return nil, errAt(t.Pos, "unknown token %q", t.Text)
		}
	}
}

// parseCapture consumes one of '<name>', '<?name>' or '<name1>?<name2>' after
// the opening '<' has already been consumed.
func parseCapture(tk *tokenizer, exprs *[]expression) error {
	t := tk.next()
	optional := false
	if t.Type == tQuestionMark {
		optional = true
		t = tk.next()
	}
	if t.Type != tLiteral {
		return errors.New("missing capture body")
	}
	*exprs = append(*exprs, expression{Text: t.Text, Type: exprCapture})
	if !tk.require(tCloseAngle) {
		return errors.New("unmatched '<'")
	}
	if optional {
		(*exprs)[len(*exprs)-1].Type = exprOptionalCapture
	}

	if tk.peek().Type == tQuestionMark {
		// We are parsing <name1>?<name2>.
		// Discard the peeked '?'.
		tk.next()
		if !tk.require(tOpenAngle) {
			return errors.New("expected a capture after '?'")
		}
		orEnd := tk.next()
		if orEnd.Type != tLiteral {
			return errors.New("missing capture body after '?'")
		}
		// The previous capture becomes the first alternative of an OR.
		(*exprs)[len(*exprs)-1].Type = exprOrCapture
		*exprs = append(*exprs, expression{Text: orEnd.Text, Type: exprCapture})
		if !tk.require(tCloseAngle) {
			return errors.New("unmatched '<'")
		}
		end := tk.peekChar()
		(*exprs)[len(*exprs)-2].EndToken = end
		(*exprs)[len(*exprs)-1].EndToken = end
		return nil
	}

	(*exprs)[len(*exprs)-1].EndToken = tk.peekChar()
	return nil
}
