package store

import "testing"

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestNodeCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	n := &Node{
		Project:       "test",
		Label:         "Function",
		Name:          "Foo",
		QualifiedName: "test.main.Foo",
		FilePath:      "main.go",
		StartLine:     10,
		EndLine:       20,
		Properties:    map[string]any{"branch_count": 2},
	}
	id, err := s.UpsertNode(n)
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	found, err := s.FindNodeByQN("test", "test.main.Foo")
	if err != nil {
		t.Fatalf("FindNodeByQN: %v", err)
	}
	if found == nil || found.Name != "Foo" {
		t.Fatalf("expected node named Foo, got %+v", found)
	}
	if found.Properties["branch_count"] != float64(2) {
		t.Errorf("unexpected branch_count: %v", found.Properties["branch_count"])
	}

	nodes, err := s.FindNodesByName("test", "Foo")
	if err != nil {
		t.Fatalf("FindNodesByName: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}

	count, err := s.CountNodes("test")
	if err != nil {
		t.Fatalf("CountNodes: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}

func TestNodeDedupByQualifiedName(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	n1 := &Node{Project: "test", Label: "Function", Name: "Foo", QualifiedName: "test.main.Foo"}
	n2 := &Node{Project: "test", Label: "Function", Name: "Foo", QualifiedName: "test.main.Foo", Properties: map[string]any{"updated": true}}

	if _, err := s.UpsertNode(n1); err != nil {
		t.Fatalf("UpsertNode n1: %v", err)
	}
	if _, err := s.UpsertNode(n2); err != nil {
		t.Fatalf("UpsertNode n2: %v", err)
	}

	count, _ := s.CountNodes("test")
	if count != 1 {
		t.Errorf("expected 1 node after dedup, got %d", count)
	}

	found, _ := s.FindNodeByQN("test", "test.main.Foo")
	if found.Properties["updated"] != true {
		t.Error("expected second upsert's properties to win")
	}
}

func TestEdgeCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	id1, _ := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "A", QualifiedName: "test.A"})
	id2, _ := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "B", QualifiedName: "test.B"})

	if _, err := s.InsertEdge(&Edge{Project: "test", SourceID: id1, TargetID: id2, Type: "REFERENCES"}); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	edges, err := s.FindEdgesBySource(id1)
	if err != nil {
		t.Fatalf("FindEdgesBySource: %v", err)
	}
	if len(edges) != 1 || edges[0].Type != "REFERENCES" {
		t.Fatalf("expected 1 REFERENCES edge, got %+v", edges)
	}

	count, _ := s.CountEdges("test")
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}
}

func TestCascadeDeleteFromProject(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	id1, _ := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "A", QualifiedName: "test.A"})
	id2, _ := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "B", QualifiedName: "test.B"})
	if _, err := s.InsertEdge(&Edge{Project: "test", SourceID: id1, TargetID: id2, Type: "REFERENCES"}); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	if err := s.DeleteProject("test"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	nodes, _ := s.CountNodes("test")
	edges, _ := s.CountEdges("test")
	if nodes != 0 || edges != 0 {
		t.Errorf("expected 0 nodes and edges after cascade, got %d nodes, %d edges", nodes, edges)
	}
}

func TestProjectCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("myproject", "/home/user/myproject"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	p, err := s.GetProject("myproject")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Name != "myproject" || p.RootPath != "/home/user/myproject" {
		t.Errorf("unexpected project: %+v", p)
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
}

func TestFindNodesByFileOverlapExcludesFileNodes(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if _, err := s.UpsertNode(&Node{Project: "test", Label: "File", Name: "greeter.go", QualifiedName: "test.greeter", FilePath: "greeter.go", StartLine: 1, EndLine: 20}); err != nil {
		t.Fatalf("UpsertNode File: %v", err)
	}
	if _, err := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "Hello", QualifiedName: "test.greeter.Hello", FilePath: "greeter.go", StartLine: 5, EndLine: 7}); err != nil {
		t.Fatalf("UpsertNode Function: %v", err)
	}

	nodes, err := s.FindNodesByFileOverlap("test", "greeter.go", 6, 6)
	if err != nil {
		t.Fatalf("FindNodesByFileOverlap: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Label != "Function" {
		t.Fatalf("expected only the Function node to overlap line 6, got %+v", nodes)
	}
}

func TestUpsertNodeBatchDeduplicatesByQualifiedName(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	ids, err := s.UpsertNodeBatch([]*Node{
		{Project: "test", Label: "Function", Name: "A", QualifiedName: "test.A"},
		{Project: "test", Label: "Function", Name: "B", QualifiedName: "test.B"},
	})
	if err != nil {
		t.Fatalf("UpsertNodeBatch: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 IDs, got %d", len(ids))
	}

	count, _ := s.CountNodes("test")
	if count != 2 {
		t.Errorf("expected 2 nodes, got %d", count)
	}
}

func TestContentHashGeneratedColumnFindsDuplicateSpans(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject("test", "/tmp/test"); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	same := map[string]any{"content_hash": "deadbeef"}
	if _, err := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "A", QualifiedName: "test.pkg1.A", Properties: same}); err != nil {
		t.Fatalf("UpsertNode A: %v", err)
	}
	if _, err := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "B", QualifiedName: "test.pkg2.B", Properties: same}); err != nil {
		t.Fatalf("UpsertNode B: %v", err)
	}
	if _, err := s.UpsertNode(&Node{Project: "test", Label: "Function", Name: "C", QualifiedName: "test.pkg3.C", Properties: map[string]any{"content_hash": "cafef00d"}}); err != nil {
		t.Fatalf("UpsertNode C: %v", err)
	}

	hashes, err := s.DistinctContentHashes("test")
	if err != nil {
		t.Fatalf("DistinctContentHashes: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != "deadbeef" {
		t.Fatalf("expected only [deadbeef] to be shared, got %v", hashes)
	}

	dupes, err := s.FindNodesByContentHash("test", "deadbeef")
	if err != nil {
		t.Fatalf("FindNodesByContentHash: %v", err)
	}
	if len(dupes) != 2 {
		t.Fatalf("expected 2 nodes sharing content_hash, got %d", len(dupes))
	}
}
