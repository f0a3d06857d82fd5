package adapter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	m "skippy.dev/pkg/skippy/internal/model"
)

const (
	nodeModule             = "module"
	nodeFunctionDefinition = "function_definition"
	nodeClassDefinition    = "class_definition"
	nodeDecoratedDef       = "decorated_definition"
)

// PythonFileAdapter hides the Python grammar from the domain layer. It turns
// source into the module-level definitions, plus the definitions directly
// inside each module-level class, and nothing deeper.
type PythonFileAdapter interface {
	ModuleDefinitions(ctx context.Context, src []byte) ([]m.Definition, error)
}

// ParseError reports Python source that could not be parsed cleanly.
type ParseError struct {
	Line   uint32
	Column uint32
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
}

// LocalPythonFileAdapter is a PythonFileAdapter backed by tree-sitter.
// Parsers are created per call so the adapter is safe for concurrent use.
type LocalPythonFileAdapter struct{}

// NewLocalPythonFileAdapter constructs a LocalPythonFileAdapter.
func NewLocalPythonFileAdapter() *LocalPythonFileAdapter {
	return &LocalPythonFileAdapter{}
}

// ModuleDefinitions parses src and returns its module-level definitions.
func (a *LocalPythonFileAdapter) ModuleDefinitions(ctx context.Context, src []byte) ([]m.Definition, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Type() != nodeModule {
		return nil, &ParseError{}
	}

	if root.HasError() {
		return nil, firstErrorPosition(root)
	}

	return collectDefinitions(root, src, true), nil
}

// collectDefinitions visits the direct children of a module or class body.
// Class members are collected one level down only when withMembers is set.
func collectDefinitions(scope *sitter.Node, src []byte, withMembers bool) []m.Definition {
	var defs []m.Definition

	for i := 0; i < int(scope.NamedChildCount()); i++ {
		node := unwrapDecorated(scope.NamedChild(i))
		if node == nil {
			continue
		}

		switch node.Type() {
		case nodeFunctionDefinition:
			defs = append(defs, m.Definition{
				Kind: m.DefinitionFunction,
				Name: nodeName(node, src),
			})

		case nodeClassDefinition:
			def := m.Definition{
				Kind: m.DefinitionClass,
				Name: nodeName(node, src),
			}

			if body := node.ChildByFieldName("body"); withMembers && body != nil {
				def.Members = collectDefinitions(body, src, false)
			}

			defs = append(defs, def)
		}
	}

	return defs
}

// unwrapDecorated returns the definition a decorator list applies to.
func unwrapDecorated(node *sitter.Node) *sitter.Node {
	if node == nil || node.Type() != nodeDecoratedDef {
		return node
	}

	return node.ChildByFieldName("definition")
}

func nodeName(node *sitter.Node, src []byte) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}

	return name.Content(src)
}

func firstErrorPosition(root *sitter.Node) *ParseError {
	var found *sitter.Node

	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child.HasError() || child.IsMissing() {
				if !walk(child) {
					return false
				}
			}
		}

		return true
	}

	walk(root)

	if found == nil {
		return &ParseError{}
	}

	return &ParseError{Line: found.StartPoint().Row + 1, Column: found.StartPoint().Column + 1}
}
