package hlp

import (
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// cursor is a forward-only position over the event being parsed.
// Specific parsers advance pos to the first unconsumed character on success,
// and must leave it untouched on failure.
type cursor struct {
	src string
	pos int
}

func (c *cursor) rest() string {
	return c.src[c.pos:]
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.src)
}

// spanToEndToken returns the span from the cursor to the parser's endToken,
// or to the end of the input when the endToken is NUL or absent.
func (c *cursor) spanToEndToken(p *parser) string {
	rest := c.rest()
	if p.EndToken == 0 {
		return rest
	}
	if idx := strings.IndexByte(rest, p.EndToken); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

type parseFunc func(c *cursor, p *parser, result ParseResult) bool

var availableParsers = [numParserTypes]parseFunc{
	typeLiteral:      matchLiteral,
	typeAny:          parseAny,
	typeToEnd:        parseToEnd,
	typeIP:           parseIP,
	typeTs:           parseTimestamp,
	typeURL:          parseURL,
	typeJSON:         parseJSON,
	typeMap:          parseKVMap,
	typeDomain:       parseDomain,
	typeFilePath:     parseFilePath,
	typeUserAgent:    parseUserAgent,
	typeNumber:       parseNumber,
	typeQuotedString: parseQuotedString,
	typeBoolean:      parseBoolean,
}

// matchLiteral advances over the literal text without writing a result.
func matchLiteral(c *cursor, p *parser, _ ParseResult) bool {
	if !strings.HasPrefix(c.rest(), p.Name) {
		return false
	}
	c.pos += len(p.Name)
	return true
}

// parseAny consumes up to the endToken, or to the end of the input if the
// endToken is NUL. An empty span is a failure, so optional captures over a
// boundary that's already reached fall through cleanly.
func parseAny(c *cursor, p *parser, result ParseResult) bool {
	span := c.spanToEndToken(p)
	if len(span) == 0 {
		return false
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

func parseToEnd(c *cursor, p *parser, result ParseResult) bool {
	result[p.Name] = c.rest()
	c.pos = len(c.src)
	return true
}

func isIPChar(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
		return true
	case b == '.' || b == ':':
		return true
	}
	return false
}

func parseIP(c *cursor, p *parser, result ParseResult) bool {
	// The endToken takes precedence over the character class: ':' both
	// delimits captures and appears inside IPv6 addresses.
	var span string
	if p.EndToken != 0 {
		span = c.spanToEndToken(p)
	} else {
		rest := c.rest()
		end := 0
		for end < len(rest) && isIPChar(rest[end]) {
			end++
		}
		span = rest[:end]
	}
	if net.ParseIP(span) == nil {
		return false
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

// default layouts tried when a timestamp capture has no format option
var defaultTsLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.ANSIC,
	time.Stamp,
}

func parseTimestamp(c *cursor, p *parser, result ParseResult) bool {
	span := c.spanToEndToken(p)
	if len(span) == 0 {
		return false
	}
	layouts := defaultTsLayouts
	if len(p.Options) > 0 {
		layouts = p.Options[:1]
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, span)
		if err != nil {
			continue
		}
		c.pos += len(span)
		result[p.Name] = t
		return true
	}
	return false
}

func parseURL(c *cursor, p *parser, result ParseResult) bool {
	span := c.spanToEndToken(p)
	if len(span) == 0 {
		return false
	}
	u, err := url.Parse(span)
	if err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		return false
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

// parseJSON consumes one balanced JSON object, honoring strings and escapes.
func parseJSON(c *cursor, p *parser, result ParseResult) bool {
	rest := c.rest()
	if len(rest) == 0 || rest[0] != '{' {
		return false
	}
	var (
		depth    int
		inString bool
		escaped  bool
		end      = -1
	)
	for i := 0; i < len(rest); i++ {
		b := rest[i]
		switch {
		case escaped:
			escaped = false
		case b == '\\' && inString:
			escaped = true
		case b == '"':
			inString = !inString
		case inString:
		case b == '{':
			depth++
		case b == '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return false
	}
	span := rest[:end]
	if !json.Valid([]byte(span)) {
		return false
	}
	c.pos += len(span)
	result[p.Name] = json.RawMessage(span)
	return true
}

// parseKVMap consumes 'key=value' pairs until the endToken boundary.
// The pair and key/value separators come from the capture options.
func parseKVMap(c *cursor, p *parser, result ParseResult) bool {
	pairSep, kvSep := " ", "="
	if len(p.Options) > 1 {
		pairSep, kvSep = p.Options[0], p.Options[1]
	}
	span := c.spanToEndToken(p)
	if len(span) == 0 {
		return false
	}
	kv := make(map[string]string)
	for _, pair := range strings.Split(span, pairSep) {
		if len(pair) == 0 {
			continue
		}
		key, val, found := strings.Cut(pair, kvSep)
		if !found || len(key) == 0 {
			return false
		}
		kv[key] = val
	}
	if len(kv) == 0 {
		return false
	}
	c.pos += len(span)
	result[p.Name] = kv
	return true
}

func isDomainChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.':
		return true
	}
	return false
}

const (
	maxDomainLen = 253
	maxLabelLen  = 63
)

func parseDomain(c *cursor, p *parser, result ParseResult) bool {
	rest := c.rest()
	end := 0
	for end < len(rest) && isDomainChar(rest[end]) {
		end++
	}
	span := rest[:end]
	if len(span) == 0 || len(span) > maxDomainLen || !strings.Contains(span, ".") {
		return false
	}
	for _, label := range strings.Split(span, ".") {
		if len(label) == 0 || len(label) > maxLabelLen {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

func parseFilePath(c *cursor, p *parser, result ParseResult) bool {
	rest := c.rest()
	end := 0
	for end < len(rest) {
		b := rest[end]
		if b == ' ' || b == '\t' || (p.EndToken != 0 && b == p.EndToken) {
			break
		}
		end++
	}
	span := rest[:end]
	drive := len(span) >= 2 && span[1] == ':' &&
		(span[0] >= 'A' && span[0] <= 'Z' || span[0] >= 'a' && span[0] <= 'z')
	if len(span) == 0 || (!strings.ContainsAny(span, `/\`) && !drive) {
		return false
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

// parseUserAgent consumes free text up to the endToken. User agent strings
// have no usable inner structure to validate here.
func parseUserAgent(c *cursor, p *parser, result ParseResult) bool {
	span := c.spanToEndToken(p)
	if len(span) == 0 {
		return false
	}
	c.pos += len(span)
	result[p.Name] = span
	return true
}

func parseNumber(c *cursor, p *parser, result ParseResult) bool {
	base := 10
	if len(p.Options) > 0 {
		b, err := strconv.Atoi(p.Options[0])
		if err == nil && b >= 2 && b <= 36 {
			base = b
		}
	}
	rest := c.rest()
	end := 0
	if end < len(rest) && (rest[end] == '+' || rest[end] == '-') {
		end++
	}
	digits := 0
	sawDot := false
	for end < len(rest) {
		b := rest[end]
		if isBaseDigit(b, base) {
			digits++
			end++
			continue
		}
		if b == '.' && base == 10 && !sawDot {
			sawDot = true
			end++
			continue
		}
		break
	}
	if digits == 0 {
		return false
	}
	span := rest[:end]
	if sawDot {
		f, err := strconv.ParseFloat(span, 64)
		if err != nil {
			return false
		}
		result[p.Name] = f
	} else {
		i, err := strconv.ParseInt(span, base, 64)
		if err != nil {
			return false
		}
		result[p.Name] = i
	}
	c.pos += len(span)
	return true
}

func isBaseDigit(b byte, base int) bool {
	var v int
	switch {
	case b >= '0' && b <= '9':
		v = int(b - '0')
	case b >= 'a' && b <= 'z':
		v = int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		v = int(b-'A') + 10
	default:
		return false
	}
	return v < base
}

func parseQuotedString(c *cursor, p *parser, result ParseResult) bool {
	quote := byte('"')
	if len(p.Options) > 0 && len(p.Options[0]) == 1 {
		quote = p.Options[0][0]
	}
	rest := c.rest()
	if len(rest) == 0 || rest[0] != quote {
		return false
	}
	escaped := false
	for i := 1; i < len(rest); i++ {
		b := rest[i]
		switch {
		case escaped:
			escaped = false
		case b == '\\':
			escaped = true
		case b == quote:
			result[p.Name] = rest[1:i]
			c.pos += i + 1
			return true
		}
	}
	return false
}

func parseBoolean(c *cursor, p *parser, result ParseResult) bool {
	rest := c.rest()
	switch {
	case strings.HasPrefix(rest, "true"):
		c.pos += len("true")
		result[p.Name] = true
	case strings.HasPrefix(rest, "false"):
		c.pos += len("false")
		result[p.Name] = false
	default:
		return false
	}
	return true
}
