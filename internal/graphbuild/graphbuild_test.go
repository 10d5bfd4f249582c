package graphbuild

import (
	"testing"

	"github.com/codegraph-dev/codegraph/internal/extract"
	"github.com/codegraph-dev/codegraph/internal/resolve"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/store"
)

func TestEmitWritesDirectoryFileAndContainsEdge(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer st.Close()
	if err := st.UpsertProject("demo", "/repo"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	g := New("demo")
	g.AddDirectory("")
	g.AddDirectory("pkg")
	g.AddFile("pkg/greeter.go", false)

	src := []byte(`package pkg

func Hello() string { return "hi" }
`)
	defs := []extract.Definition{{
		Kind: schema.Function, Name: "Hello",
		StartByte: 0, EndByte: uint(len(src)),
		StartLine: 3, EndLine: 3,
		ShortNames: []string{"Hello"},
	}}
	g.AddDefinitions("pkg/greeter.go", defs, src)

	if err := g.Emit(st); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	nodes, err := st.FindNodesByLabel("demo", "Function")
	if err != nil {
		t.Fatalf("FindNodesByLabel: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "Hello" {
		t.Fatalf("expected one Function node named Hello, got %+v", nodes)
	}

	edges, err := st.FindEdgesByType("demo", "CONTAINS")
	if err != nil {
		t.Fatalf("FindEdgesByType: %v", err)
	}
	dirNodes, _ := st.FindNodesByLabel("demo", "Directory")
	fileNodes, _ := st.FindNodesByLabel("demo", "File")
	rootDir := findNodeByName(dirNodes, ".")
	pkgDir := findNodeByName(dirNodes, "pkg")
	if rootDir == nil || pkgDir == nil {
		t.Fatalf("expected root and pkg directory nodes, got %+v", dirNodes)
	}

	var sawRootContainsPkg, sawPkgContainsFile, sawFileContainsHello bool
	for _, e := range edges {
		switch {
		case e.SourceID == rootDir.ID && e.TargetID == pkgDir.ID:
			sawRootContainsPkg = true
		case e.SourceID == pkgDir.ID && e.TargetID == fileNodes[0].ID:
			sawPkgContainsFile = true
		case e.SourceID == fileNodes[0].ID && e.TargetID == nodes[0].ID:
			sawFileContainsHello = true
		}
	}
	if !sawRootContainsPkg {
		t.Errorf("expected CONTAINS edge from root Directory to pkg Directory, got %+v", edges)
	}
	if !sawPkgContainsFile {
		t.Errorf("expected CONTAINS edge from pkg Directory to File, got %+v", edges)
	}
	if !sawFileContainsHello {
		t.Errorf("expected CONTAINS edge from File to Function Hello, got %+v", edges)
	}
}

func findNodeByName(nodes []*store.Node, name string) *store.Node {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

func TestEmitMaterializesUnparsedTarget(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer st.Close()
	if err := st.UpsertProject("demo", "/repo"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	g := New("demo")
	g.AddFile("main.go", false)
	defs := []extract.Definition{{Kind: schema.Function, Name: "main", StartLine: 1, EndLine: 3}}
	g.AddDefinitions("main.go", defs, []byte("package main\nfunc main() {}\n"))

	g.AddEdges([]resolve.Edge{
		{Kind: schema.Imports, FromKind: schema.File, FromKey: "main.go", ToKind: schema.Unparsed, ToKey: "time", Import: "time", Alias: "time"},
		{Kind: schema.References, FromKind: schema.Function, FromKey: "main.go#main", ToKind: schema.Unparsed, ToKey: "time.Now"},
	})

	if err := g.Emit(st); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	unparsed, err := st.FindNodesByLabel("demo", "Unparsed")
	if err != nil {
		t.Fatalf("FindNodesByLabel: %v", err)
	}
	if len(unparsed) != 2 {
		t.Fatalf("expected 2 Unparsed nodes (time, time.Now), got %+v", unparsed)
	}

	imports, err := st.FindEdgesByType("demo", "IMPORTS")
	if err != nil {
		t.Fatalf("FindEdgesByType: %v", err)
	}
	if len(imports) != 1 {
		t.Fatalf("expected 1 IMPORTS edge, got %d", len(imports))
	}
	if imports[0].Properties["import"] != "time" || imports[0].Properties["alias"] != "time" {
		t.Errorf("IMPORTS edge properties = %+v, want import/alias = time", imports[0].Properties)
	}
}
