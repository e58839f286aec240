// Package pytest locates Python test constructs in a parsed source file and
// derives the test filter that selects them.
package pytest

import (
	"bytes"
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// File is a read-only snapshot of a parsed Python source file.
type File struct {
	Path   string
	source []byte
	tree   *sitter.Tree
}

// Location is a position inside a File, expressed as the smallest named
// syntax node covering it.
type Location struct {
	node *sitter.Node
}

// Parse parses Python source code.
func Parse(ctx context.Context, sourceCode []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Python code: %w", err)
	}

	return &File{source: sourceCode, tree: tree}, nil
}

// Close releases the syntax tree. Locations taken from f are invalid afterwards.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Source returns the parsed bytes.
func (f *File) Source() []byte {
	return f.source
}

// LocationAt returns the location at a 1-based line and column. Column 0
// selects the first non-blank character of the line. Columns past the end of
// the line are clamped.
func (f *File) LocationAt(line, column int) (Location, error) {
	lines := bytes.Split(f.source, []byte("\n"))
	if line < 1 || line > len(lines) {
		return Location{}, fmt.Errorf("line %d is outside the file (1-%d)", line, len(lines))
	}
	if column < 0 {
		return Location{}, fmt.Errorf("invalid column %d", column)
	}

	text := lines[line-1]
	col := column - 1
	if column == 0 {
		col = len(text) - len(bytes.TrimLeft(text, " \t"))
	}
	if col > len(text) {
		col = len(text)
	}

	point := sitter.Point{Row: uint32(line - 1), Column: uint32(col)}
	return f.locationAtPoint(point), nil
}

// LocationAtOffset returns the location at a byte offset.
func (f *File) LocationAtOffset(offset int) (Location, error) {
	if offset < 0 || offset > len(f.source) {
		return Location{}, fmt.Errorf("offset %d is outside the file (0-%d)", offset, len(f.source))
	}

	prefix := f.source[:offset]
	row := bytes.Count(prefix, []byte("\n"))
	col := offset - (bytes.LastIndexByte(prefix, '\n') + 1)

	point := sitter.Point{Row: uint32(row), Column: uint32(col)}
	return f.locationAtPoint(point), nil
}

func (f *File) locationAtPoint(point sitter.Point) Location {
	root := f.tree.RootNode()
	node := root.NamedDescendantForPointRange(point, point)
	if node == nil {
		node = root
	}
	return Location{node: node}
}

// NodeType reports the syntax node kind at the location, mostly for diagnostics.
func (l Location) NodeType() string {
	if l.node == nil {
		return ""
	}
	return l.node.Type()
}
