package cypher

import (
	"testing"

	"github.com/codegraph-dev/codegraph/internal/store"
)

func TestLexBasicQuery(t *testing.T) {
	tokens, err := Lex(`MATCH (f:Function) WHERE f.name = "Hello" RETURN f.name`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}

	expected := []TokenType{
		TokMatch, TokLParen, TokIdent, TokColon, TokIdent, TokRParen,
		TokWhere, TokIdent, TokDot, TokIdent, TokEQ, TokString,
		TokReturn, TokIdent, TokDot, TokIdent, TokEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d]: expected type %d, got %d (%q)", i, expected[i], tok.Type, tok.Value)
		}
	}
}

func TestParseNodePattern(t *testing.T) {
	q, err := Parse(`MATCH (f:Function {name: "Hello"}) RETURN f`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	elems := q.Match.Pattern.Elements
	if len(elems) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elems))
	}
	node, ok := elems[0].(*NodePattern)
	if !ok {
		t.Fatalf("expected *NodePattern, got %T", elems[0])
	}
	if node.Variable != "f" || node.Label != "Function" {
		t.Errorf("node = %+v, want variable f, label Function", node)
	}
	if node.Props["name"] != "Hello" {
		t.Errorf("expected prop name='Hello', got %q", node.Props["name"])
	}
}

func TestParseRelationship(t *testing.T) {
	q, err := Parse(`MATCH (f)-[:REFERENCES]->(g) RETURN f.name, g.name`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	elems := q.Match.Pattern.Elements
	if len(elems) != 3 {
		t.Fatalf("expected 3 elements (node-rel-node), got %d", len(elems))
	}
	rel, ok := elems[1].(*RelPattern)
	if !ok {
		t.Fatalf("expected *RelPattern, got %T", elems[1])
	}
	if len(rel.Types) != 1 || rel.Types[0] != "REFERENCES" {
		t.Errorf("expected REFERENCES type, got %v", rel.Types)
	}
	if rel.Direction != "outbound" {
		t.Errorf("expected outbound, got %q", rel.Direction)
	}
}

func seedExecutorFixture(t *testing.T) *Executor {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.UpsertProject("demo", "/repo"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	mainID, err := s.UpsertNode(&store.Node{Project: "demo", Label: "Function", Name: "main", QualifiedName: "demo.main.main", FilePath: "main.go"})
	if err != nil {
		t.Fatalf("UpsertNode main: %v", err)
	}
	helperID, err := s.UpsertNode(&store.Node{Project: "demo", Label: "Function", Name: "Helper", QualifiedName: "demo.main.Helper", FilePath: "main.go"})
	if err != nil {
		t.Fatalf("UpsertNode Helper: %v", err)
	}
	if _, err := s.InsertEdge(&store.Edge{Project: "demo", SourceID: mainID, TargetID: helperID, Type: "REFERENCES"}); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	return &Executor{Store: s, Project: "demo"}
}

func TestExecuteScanAndReturnProperty(t *testing.T) {
	ex := seedExecutorFixture(t)

	result, err := ex.Execute(`MATCH (f:Function) RETURN f.name`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var sawMain, sawHelper bool
	for _, row := range result.Rows {
		switch row["f.name"] {
		case "main":
			sawMain = true
		case "Helper":
			sawHelper = true
		}
	}
	if !sawMain || !sawHelper {
		t.Errorf("expected rows for main and Helper, got %+v", result.Rows)
	}
}

func TestExecuteExpandRelationship(t *testing.T) {
	ex := seedExecutorFixture(t)

	result, err := ex.Execute(`MATCH (f:Function)-[:REFERENCES]->(g:Function) WHERE f.name = "main" RETURN g.name`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0]["g.name"] != "Helper" {
		t.Fatalf("expected one row g.name=Helper, got %+v", result.Rows)
	}
}

func TestExecuteCountAggregation(t *testing.T) {
	ex := seedExecutorFixture(t)

	result, err := ex.Execute(`MATCH (f:Function) RETURN COUNT(f)`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 aggregate row, got %d", len(result.Rows))
	}
	if result.Rows[0]["COUNT(f)"] != 2 {
		t.Errorf("expected COUNT(f)=2, got %v", result.Rows[0]["COUNT(f)"])
	}
}
