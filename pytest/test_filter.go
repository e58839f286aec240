package pytest

import (
	"strconv"
	"strings"
)

const testcaseNameKey = "testcase_name"

// TestFilter returns the runner filter selecting exactly the located test
// cases. It reports false when no test class was found.
//
// Parameterized methods expand into one token per generated sub-case, joined
// by spaces, in declaration order and without deduplication.
func (l TestLocation) TestFilter() (string, bool) {
	if l.Class == nil {
		return "", false
	}
	if l.Function == nil {
		return l.Class.Name, true
	}

	base := l.Class.Name + "." + l.Function.Name

	if d, ok := findDecorator(l.Function.Decorators, DecoratorPositional); ok {
		return filterForParameters(base, d), true
	}
	if d, ok := findDecorator(l.Function.Decorators, DecoratorNamed); ok {
		return filterForNamedParameters(base, d), true
	}
	return base, true
}

func findDecorator(decorators []Decorator, kind DecoratorKind) (Decorator, bool) {
	for _, d := range decorators {
		if d.Kind() == kind {
			return d, true
		}
	}
	return Decorator{}, false
}

// filterForParameters numbers sub-cases by argument position. Argument
// contents are not inspected.
func filterForParameters(base string, d Decorator) string {
	if len(d.Arguments) == 0 {
		return base
	}

	filters := make([]string, 0, len(d.Arguments))
	for i := range d.Arguments {
		filters = append(filters, base+strconv.Itoa(i))
	}
	return strings.Join(filters, " ")
}

func filterForNamedParameters(base string, d Decorator) string {
	var filters []string
	for _, arg := range d.Arguments {
		switch arg.Kind {
		case ArgumentDict:
			for _, entry := range arg.Entries {
				if entry.Key.IsString && entry.Value.IsString && entry.Key.Value == testcaseNameKey {
					filters = append(filters, base+entry.Value.Value)
				}
			}
		case ArgumentTuple:
			if len(arg.Elements) > 0 && arg.Elements[0].IsString {
				filters = append(filters, base+arg.Elements[0].Value)
			}
		}
	}

	if len(filters) == 0 {
		return base
	}
	return strings.Join(filters, " ")
}
