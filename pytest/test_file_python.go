package pytest

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// testFrameworkModules are imports that mark a file as test code regardless of its name.
var testFrameworkModules = []string{"unittest", "absl.testing", "pytest"}

// IsTestFile reports whether the given Python file holds tests. The path is
// checked first; f may be nil when only the path is known.
func IsTestFile(filePath string, f *File) bool {
	fileName := filepath.Base(filePath)
	if filepath.Ext(fileName) != ".py" {
		return false
	}

	if strings.HasPrefix(fileName, "test_") || strings.HasSuffix(fileName, "_test.py") {
		return true
	}

	path := filepath.ToSlash(filePath)
	if strings.Contains(path, "/tests/") || strings.Contains(path, "/test/") {
		return true
	}

	if f == nil {
		return false
	}
	for _, module := range f.Imports() {
		for _, framework := range testFrameworkModules {
			if module == framework || strings.HasPrefix(module, framework+".") {
				return true
			}
		}
	}
	return false
}

// Imports returns the module paths imported at any depth in the file, in
// source order. Relative imports keep their leading dots.
func (f *File) Imports() []string {
	var modules []string

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}

		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if module := moduleName(n.NamedChild(i), f.source); module != "" {
					modules = append(modules, module)
				}
			}
			return
		case "import_from_statement", "future_import_statement":
			if module := importFromModule(n, f.source); module != "" {
				modules = append(modules, module)
			}
			return
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}

	walk(f.tree.RootNode())
	return modules
}

func importFromModule(node *sitter.Node, sourceCode []byte) string {
	if node.Type() == "future_import_statement" {
		return "__future__"
	}
	if module := node.ChildByFieldName("module_name"); module != nil {
		return strings.TrimSpace(module.Content(sourceCode))
	}
	return ""
}

func moduleName(node *sitter.Node, sourceCode []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "dotted_name", "identifier", "relative_import":
		return strings.TrimSpace(node.Content(sourceCode))
	case "aliased_import":
		return moduleName(node.ChildByFieldName("name"), sourceCode)
	}
	return ""
}
