package pytest

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	classDefinition     = "class_definition"
	functionDefinition  = "function_definition"
	decoratedDefinition = "decorated_definition"
)

// TestClassRef is an enclosing class recognized as a test case.
type TestClassRef struct {
	Name     string
	Position Position
}

// TestFunctionRef is an enclosing method recognized as a test.
type TestFunctionRef struct {
	Name       string
	Position   Position
	Decorators []Decorator
}

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

// TestLocation is the test construct designated by a location. Function is
// only set when Class is.
type TestLocation struct {
	Class    *TestClassRef
	Function *TestFunctionRef
}

// ElementKind names what SourceElement points at.
type ElementKind string

const (
	ElementFile     ElementKind = "file"
	ElementClass    ElementKind = "class"
	ElementFunction ElementKind = "function"
)

// Element is the navigation target for a TestLocation.
type Element struct {
	Kind     ElementKind
	Name     string
	Position Position
}

// Resolve finds the test class and test method enclosing loc. It never fails:
// when nothing matches the returned TestLocation is empty.
func Resolve(f *File, loc Location) TestLocation {
	if loc.node == nil {
		return TestLocation{}
	}

	class := enclosingDefinition(loc.node, classDefinition, nil)
	if class == nil || !isTestClass(class, f.source) {
		return TestLocation{}
	}

	result := TestLocation{
		Class: &TestClassRef{
			Name:     definitionName(class, f.source),
			Position: positionOf(class),
		},
	}

	function := enclosingDefinition(loc.node, functionDefinition, class)
	if function != nil && isTestFunction(function, f.source) {
		result.Function = &TestFunctionRef{
			Name:       definitionName(function, f.source),
			Position:   positionOf(function),
			Decorators: functionDecorators(function, f.source),
		}
	}

	return result
}

// SourceElement returns the function if present, else the class, else the file.
func (l TestLocation) SourceElement(f *File) Element {
	if l.Function != nil {
		return Element{Kind: ElementFunction, Name: l.Function.Name, Position: l.Function.Position}
	}
	if l.Class != nil {
		return Element{Kind: ElementClass, Name: l.Class.Name, Position: l.Class.Position}
	}
	return Element{Kind: ElementFile, Name: f.Path, Position: Position{Line: 1, Column: 1}}
}

// enclosingDefinition walks from node upward, node included, to the nearest
// definition of nodeType. A decorated_definition counts as the definition it
// wraps, so locations on a decorator resolve to the decorated function. The
// walk gives up on reaching stop.
func enclosingDefinition(node *sitter.Node, nodeType string, stop *sitter.Node) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		if stop != nil && sameNode(n, stop) {
			return nil
		}
		if n.Type() == nodeType {
			return n
		}
		if n.Type() == decoratedDefinition {
			definition := n.ChildByFieldName("definition")
			if definition == nil {
				continue
			}
			if stop != nil && sameNode(definition, stop) {
				return nil
			}
			if definition.Type() == nodeType {
				return definition
			}
		}
	}
	return nil
}

func isTestClass(class *sitter.Node, sourceCode []byte) bool {
	name := definitionName(class, sourceCode)
	if strings.HasPrefix(name, "Test") || strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests") {
		return true
	}
	return inheritsTestCase(class, sourceCode, make(map[uint32]bool))
}

// inheritsTestCase reports whether a base of class ends in TestCase, either
// directly or through base classes defined at module level in the same file.
func inheritsTestCase(class *sitter.Node, sourceCode []byte, visited map[uint32]bool) bool {
	visited[class.StartByte()] = true

	superclasses := class.ChildByFieldName("superclasses")
	if superclasses == nil {
		return false
	}
	for i := 0; i < int(superclasses.NamedChildCount()); i++ {
		base := superclasses.NamedChild(i)
		if t := base.Type(); t != "identifier" && t != "attribute" {
			continue
		}

		baseName := compactName(base.Content(sourceCode))
		if strings.HasSuffix(baseName, "TestCase") {
			return true
		}
		if base.Type() != "identifier" {
			continue
		}
		parent := moduleClass(class, baseName, sourceCode)
		if parent != nil && !visited[parent.StartByte()] && inheritsTestCase(parent, sourceCode, visited) {
			return true
		}
	}
	return false
}

// moduleClass returns the last module-level class called name that is
// defined before class.
func moduleClass(class *sitter.Node, name string, sourceCode []byte) *sitter.Node {
	root := class
	for root.Parent() != nil {
		root = root.Parent()
	}

	var found *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == decoratedDefinition {
			child = child.ChildByFieldName("definition")
		}
		if child == nil || child.Type() != classDefinition || child.StartByte() >= class.StartByte() {
			continue
		}
		if definitionName(child, sourceCode) == name {
			found = child
		}
	}
	return found
}

func isTestFunction(function *sitter.Node, sourceCode []byte) bool {
	return strings.HasPrefix(definitionName(function, sourceCode), "test")
}

func definitionName(node *sitter.Node, sourceCode []byte) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(sourceCode)
}

func positionOf(node *sitter.Node) Position {
	start := node.StartPoint()
	return Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
