package hlp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

type parserType int

const (
	typeLiteral parserType = iota
	typeAny
	typeToEnd
	typeIP
	typeTs
	typeURL
	typeJSON
	typeMap
	typeDomain
	typeFilePath
	typeUserAgent
	typeNumber
	typeQuotedString
	typeBoolean
	numParserTypes
)

// parser is the compiled form of one expression. The expression tag is kept
// because optional/or semantics are applied at execution time.
type parser struct {
	Name     string
	Type     parserType
	ExpType  expressionType
	EndToken byte
	Options  []string
}

// schemaTypeNames maps schema configuration values to parser types.
var schemaTypeNames = map[string]parserType{
	"keyword":   typeAny,
	"any":       typeToEnd,
	"ip":        typeIP,
	"timestamp": typeTs,
	"url":       typeURL,
	"json":      typeJSON,
	"map":       typeMap,
	"domain":    typeDomain,
	"filepath":  typeFilePath,
	"useragent": typeUserAgent,
	"number":    typeNumber,
	"quoted":    typeQuotedString,
	"boolean":   typeBoolean,
}

// tempTypeNames maps the explicit type option of a temporary capture
// ('<_name/type/...>') to parser types.
var tempTypeNames = map[string]parserType{
	"json":          typeJSON,
	"map":           typeMap,
	"timestamp":     typeTs,
	"domain":        typeDomain,
	"filepath":      typeFilePath,
	"useragent":     typeUserAgent,
	"url":           typeURL,
	"quoted_string": typeQuotedString,
	"ip":            typeIP,
	"number":        typeNumber,
	"toend":         typeToEnd,
}

// fieldParserMapper is the process-wide schema map from field name to parser
// type. It's written once by ConfigureParserMappings before any patterns are
// compiled, and read-only afterwards.
var fieldParserMapper = map[string]parserType{}

// ConfigureParserMappings populates the schema map from a JSON document
// mapping field names to schema type names. Entries with an unrecognized type
// name are skipped with a diagnostic. Call once at startup, before compiling
// patterns.
func ConfigureParserMappings(log hclog.Logger, config string) error {
	if len(config) == 0 {
		return fmt.Errorf("%w: schema configuration is empty", ErrInvalidSchema)
	}
	var doc map[string]string
	if err := json.Unmarshal([]byte(config), &doc); err != nil {
		log.Error("Schema configuration is not a valid JSON object", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	for field, typeName := range doc {
		pt, ok := schemaTypeNames[typeName]
		if !ok {
			log.Error("Invalid parser type for field", "type", typeName, "field", field)
			continue
		}
		fieldParserMapper[field] = pt
	}
	return nil
}

// named timestamp layouts accepted as the first option of a timestamp capture
var tsLayoutNames = map[string]string{
	"ANSIC":       time.ANSIC,
	"UnixDate":    time.UnixDate,
	"RubyDate":    time.RubyDate,
	"RFC822":      time.RFC822,
	"RFC822Z":     time.RFC822Z,
	"RFC850":      time.RFC850,
	"RFC1123":     time.RFC1123,
	"RFC1123Z":    time.RFC1123Z,
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"Kitchen":     time.Kitchen,
	"Stamp":       time.Stamp,
	"StampMilli":  time.StampMilli,
	"APACHE":      "02/Jan/2006:15:04:05 -0700",
	"SYSLOG":      time.Stamp,
}

// parserConfigs holds the per-type option configurators, indexed by parser
// type. For a type with a nil entry the options are stored unchanged.
var parserConfigs = [numParserTypes]func(p *parser, args []string){
	typeTs: func(p *parser, args []string) {
		if len(args) == 0 {
			return
		}
		if layout, ok := tsLayoutNames[args[0]]; ok {
			p.Options = []string{layout}
			return
		}
		// Not a named layout, treat it as a literal Go layout string.
		p.Options = []string{args[0]}
	},
	typeMap: func(p *parser, args []string) {
		pairSep, kvSep := " ", "="
		if len(args) > 0 && len(args[0]) > 0 {
			pairSep = args[0]
		}
		if len(args) > 1 && len(args[1]) > 0 {
			kvSep = args[1]
		}
		p.Options = []string{pairSep, kvSep}
	},
	typeNumber: func(p *parser, args []string) {
		if len(args) > 0 {
			p.Options = []string{args[0]}
		}
	},
	typeQuotedString: func(p *parser, args []string) {
		if len(args) > 0 && args[0] == "SIMPLE" {
			p.Options = []string{"'"}
		}
	},
}

func setParserOptions(p *parser, args []string) {
	if config := parserConfigs[p.Type]; config != nil {
		config(p, args)
	} else {
		p.Options = args
	}
}

// unescapeLiteral removes the backslashes that kept '<' and '>' inside a
// literal run.
func unescapeLiteral(text string) string {
	if !strings.ContainsRune(text, '\\') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !escaped && c == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteByte(c)
	}
	return b.String()
}

// createParserFromExpression compiles one capture expression.
// The capture body may be any of:
//
//	'<_>'
//	'<_name>'
//	'<_name/type>'
//	'<name>'
//	'<name/opt1/optN>'
func createParserFromExpression(exp expression) parser {
	args := strings.Split(exp.Text, "/")
	p := parser{
		Name:     args[0],
		Type:     typeAny,
		ExpType:  exp.Type,
		EndToken: exp.EndToken,
	}
	args = args[1:]
	if strings.HasPrefix(p.Name, "_") {
		if len(p.Name) > 1 && len(args) > 0 {
			// A temp capture with the format <_name/type/optN>: the first
			// option selects the type, the rest configure it.
			if pt, ok := tempTypeNames[args[0]]; ok {
				p.Type = pt
			}
			args = args[1:]
		}
	} else if pt, ok := fieldParserMapper[p.Name]; ok {
		p.Type = pt
	}
	setParserOptions(&p, args)
	return p
}

// getParserList compiles the expression list into a parser list of the same
// length and order.
func getParserList(exprs []expression) []parser {
	parsers := make([]parser, 0, len(exprs))
	for _, exp := range exprs {
		switch exp.Type {
		case exprCapture, exprOptionalCapture, exprOrCapture:
			parsers = append(parsers, createParserFromExpression(exp))
		default:
			parsers = append(parsers, parser{
				Name:     unescapeLiteral(exp.Text),
				Type:     typeLiteral,
				ExpType:  exprLiteral,
				EndToken: exp.EndToken,
			})
		}
	}
	return parsers
}
