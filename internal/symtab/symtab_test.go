package symtab

import (
	"testing"

	"github.com/codegraph-dev/codegraph/internal/lang"

	"github.com/codegraph-dev/codegraph/internal/extract"
)

func TestBuildFileIndexAndAliases(t *testing.T) {
	src := []byte(`package main

import fm "fmt"

func main() {
	fm.Println("hi")
}
`)
	fe, err := extract.File(lang.Go, "main.go", src)
	if err != nil {
		t.Fatalf("extract.File: %v", err)
	}

	fi := BuildFileIndex("main.go", "go", fe)
	if _, ok := fi.Lookup("main"); !ok {
		t.Error("main function not found in local index")
	}
	if target, ok := fi.Aliases["fm"]; !ok || target != "fmt" {
		t.Errorf("alias fm -> %q, ok=%v; want fmt, true", target, ok)
	}
}

func TestRepoLookupAcrossFiles(t *testing.T) {
	repo := NewRepo()

	srcA := []byte("package main\n\nfunc Helper() int { return 1 }\n")
	feA, _ := extract.File(lang.Go, "a.go", srcA)
	repo.AddFile(BuildFileIndex("a.go", "go", feA))

	srcB := []byte("package main\n\nfunc Caller() int { return Helper() }\n")
	feB, _ := extract.File(lang.Go, "b.go", srcB)
	repo.AddFile(BuildFileIndex("b.go", "go", feB))

	refs := repo.Lookup("Helper")
	if len(refs) != 1 {
		t.Fatalf("expected 1 match for Helper, got %d", len(refs))
	}
	if refs[0].File.Path != "a.go" {
		t.Errorf("Helper found in %q, want a.go", refs[0].File.Path)
	}

	sameDir := repo.FilesInDir("")
	if len(sameDir) != 2 {
		t.Errorf("expected 2 files in root dir, got %d", len(sameDir))
	}
}
