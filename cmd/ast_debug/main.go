// Command ast_debug prints the tree-sitter parse tree and the capture
// matches for a language's definition/reference queries against a small
// snippet. Useful while iterating on a LanguageSpec's query strings.
package main

import (
	"fmt"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/tsparse"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func printCaptures(label string, l lang.Language, querySource string, source []byte) {
	tree, err := tsparse.Parse(l, source)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	defer tree.Close()

	q, err := tsparse.Query(l, querySource)
	if err != nil {
		fmt.Println("query error:", err)
		return
	}
	defer q.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	fmt.Printf("=== %s ===\n", label)
	matches := cursor.Matches(q, tree.RootNode(), source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, cap := range match.Captures {
			name := q.CaptureNames()[cap.Index]
			text := tsparse.NodeText(&cap.Node, source)
			fmt.Printf("  %s -> %q\n", name, text)
		}
	}
}

func main() {
	snippets := []struct {
		label string
		l     lang.Language
		src   string
	}{
		{"GO", lang.Go, "package main\n\nimport \"fmt\"\n\ntype Greeter struct{}\n\nfunc (g *Greeter) Hello(name string) string {\n\treturn fmt.Sprintf(\"hi %s\", name)\n}\n"},
		{"PYTHON", lang.Python, "from os import path\n\nclass Greeter:\n    def hello(self, name: str) -> str:\n        return path.join(name)\n"},
		{"JAVASCRIPT", lang.JavaScript, "import { join } from 'path'\n\nclass Greeter {\n  hello(name) {\n    return join(name)\n  }\n}\n"},
		{"TYPESCRIPT", lang.TypeScript, "import { join } from 'path'\n\ninterface Named { name: string }\n\nfunction hello(n: Named): string {\n  return join(n.name)\n}\n"},
	}

	for _, s := range snippets {
		source := []byte(s.src)
		tree, err := tsparse.Parse(s.l, source)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Printf("--- %s AST ---\n", s.label)
		printAST(tree.RootNode(), source, 0)
		tree.Close()

		spec := lang.ForLanguage(s.l)
		if spec == nil {
			continue
		}
		printCaptures(s.label+" DEFINITIONS", s.l, spec.DefinitionQuery, source)
		printCaptures(s.label+" REFERENCES", s.l, spec.ReferenceQuery, source)
	}

	os.Exit(0)
}
