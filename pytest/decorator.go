package pytest

import (
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// DecoratorKind classifies decorators that expand a test into sub-cases.
type DecoratorKind int

const (
	DecoratorNone DecoratorKind = iota
	// DecoratorPositional is parameterized.parameters: sub-cases are numbered.
	DecoratorPositional
	// DecoratorNamed is parameterized.named_parameters: sub-cases carry a testcase_name.
	DecoratorNamed
)

func (k DecoratorKind) String() string {
	switch k {
	case DecoratorPositional:
		return "parameters"
	case DecoratorNamed:
		return "named_parameters"
	default:
		return "none"
	}
}

const parameterizedModule = "parameterized"

var decoratorKinds = map[string]DecoratorKind{
	"parameters":       DecoratorPositional,
	"named_parameters": DecoratorNamed,
}

// LookupDecoratorKind maps a dotted decorator name to its kind. Both the bare
// name and any name qualified by a parameterized module match.
func LookupDecoratorKind(name string) DecoratorKind {
	parts := strings.Split(name, ".")
	kind, ok := decoratorKinds[parts[len(parts)-1]]
	if !ok {
		return DecoratorNone
	}
	if len(parts) == 1 || parts[len(parts)-2] == parameterizedModule {
		return kind
	}
	return DecoratorNone
}

// Decorator is a decorator normalized away from the syntax tree.
type Decorator struct {
	Name      string
	Arguments []Argument
}

// Kind returns the decorator's kind.
func (d Decorator) Kind() DecoratorKind {
	return LookupDecoratorKind(d.Name)
}

// ArgumentKind is the syntactic shape of a decorator argument.
type ArgumentKind int

const (
	ArgumentOther ArgumentKind = iota
	ArgumentDict
	ArgumentTuple
)

// Argument is one decorator call argument. Entries is set for dict literals,
// Elements for parenthesized tuples.
type Argument struct {
	Kind     ArgumentKind
	Entries  []Entry
	Elements []Literal
}

// Entry is a key/value pair of a dict literal.
type Entry struct {
	Key   Literal
	Value Literal
}

// Literal is an expression's text. For string literals Value holds the
// contents without prefix or quotes.
type Literal struct {
	Value    string
	IsString bool
}

// functionDecorators returns the decorators applied to fn in source order.
func functionDecorators(fn *sitter.Node, sourceCode []byte) []Decorator {
	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}

	var decorators []Decorator
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		if d, ok := newDecorator(child, sourceCode); ok {
			decorators = append(decorators, d)
		}
	}
	return decorators
}

func newDecorator(node *sitter.Node, sourceCode []byte) (Decorator, bool) {
	expr := firstNamedChild(node)
	if expr == nil {
		return Decorator{}, false
	}

	if expr.Type() != "call" {
		return Decorator{Name: compactName(expr.Content(sourceCode))}, true
	}

	var d Decorator
	if function := expr.ChildByFieldName("function"); function != nil {
		d.Name = compactName(function.Content(sourceCode))
	}
	args := expr.ChildByFieldName("arguments")
	if args == nil {
		return d, true
	}
	if args.Type() != "argument_list" {
		d.Arguments = []Argument{{Kind: ArgumentOther}}
		return d, true
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "comment" {
			continue
		}
		d.Arguments = append(d.Arguments, newArgument(arg, sourceCode))
	}
	return d, true
}

func newArgument(node *sitter.Node, sourceCode []byte) Argument {
	switch node.Type() {
	case "dictionary":
		arg := Argument{Kind: ArgumentDict}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			pair := node.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			arg.Entries = append(arg.Entries, Entry{
				Key:   newLiteral(pair.ChildByFieldName("key"), sourceCode),
				Value: newLiteral(pair.ChildByFieldName("value"), sourceCode),
			})
		}
		return arg
	case "tuple":
		arg := Argument{Kind: ArgumentTuple}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			element := node.NamedChild(i)
			if element.Type() == "comment" {
				continue
			}
			arg.Elements = append(arg.Elements, newLiteral(element, sourceCode))
		}
		return arg
	}
	return Argument{Kind: ArgumentOther}
}

func newLiteral(node *sitter.Node, sourceCode []byte) Literal {
	if node == nil {
		return Literal{}
	}
	switch node.Type() {
	case "string":
		return Literal{Value: stringValue(node.Content(sourceCode)), IsString: true}
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part := node.NamedChild(i)
			if part.Type() == "string" {
				b.WriteString(stringValue(part.Content(sourceCode)))
			}
		}
		return Literal{Value: b.String(), IsString: true}
	}
	return Literal{Value: node.Content(sourceCode)}
}

// stringValue returns the runtime value of a Python string literal: prefix
// and quotes stripped, escape sequences decoded unless the literal is raw.
func stringValue(raw string) string {
	start := strings.IndexAny(raw, `"'`)
	if start < 0 {
		return raw
	}
	prefix := strings.ToLower(raw[:start])
	body := raw[start:]

	value := strings.Trim(body, `"'`)
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(quote) && strings.HasPrefix(body, quote) && strings.HasSuffix(body, quote) {
			value = body[len(quote) : len(body)-len(quote)]
			break
		}
	}

	if strings.Contains(prefix, "r") {
		return value
	}
	return decodeEscapes(value, strings.Contains(prefix, "b"))
}

var simpleEscapes = map[byte]string{
	'\\': `\`,
	'\'': "'",
	'"':  `"`,
	'a':  "\a",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
	'\n': "",
}

// decodeEscapes decodes the backslash escapes of a non-raw literal body.
// Unknown escapes stay as written, as in Python. \N{...} is kept too since
// character names are not resolved. Bytes literals have no \u or \U escapes.
func decodeEscapes(s string, isBytes bool) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}

		next := s[i+1]
		if decoded, ok := simpleEscapes[next]; ok {
			b.WriteString(decoded)
			i++
			continue
		}

		width := 0
		switch {
		case isOctalDigit(next):
			end := i + 1
			for end < len(s) && end < i+4 && isOctalDigit(s[end]) {
				end++
			}
			n, _ := strconv.ParseUint(s[i+1:end], 8, 32)
			writeCodePoint(&b, rune(n), isBytes)
			i = end - 1
			continue
		case next == 'x':
			width = 2
		case next == 'u' && !isBytes:
			width = 4
		case next == 'U' && !isBytes:
			width = 8
		}

		if n, ok := parseHex(s, i+2, width); ok {
			writeCodePoint(&b, rune(n), isBytes)
			i += 1 + width
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func parseHex(s string, start, digits int) (uint64, bool) {
	if digits == 0 || start+digits > len(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s[start:start+digits], 16, 32)
	if err != nil || n > unicode.MaxRune {
		return 0, false
	}
	return n, true
}

func writeCodePoint(b *strings.Builder, r rune, isBytes bool) {
	if isBytes {
		b.WriteByte(byte(r))
		return
	}
	b.WriteRune(r)
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func compactName(text string) string {
	return strings.Join(strings.Fields(text), "")
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}
