package resolve

import (
	"testing"

	"github.com/codegraph-dev/codegraph/internal/extract"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/symtab"
)

func index(t *testing.T, l lang.Language, goLang, path string, src string) *symtab.FileIndex {
	t.Helper()
	fe, err := extract.File(l, path, []byte(src))
	if err != nil {
		t.Fatalf("extract.File(%s): %v", path, err)
	}
	return symtab.BuildFileIndex(path, goLang, fe)
}

func TestResolveUnqualifiedCallSamePackage(t *testing.T) {
	repo := symtab.NewRepo()

	a := index(t, lang.Go, "go", "a.go", "package main\n\nfunc Helper() int { return 1 }\n")
	repo.AddFile(a)

	b := index(t, lang.Go, "go", "b.go", "package main\n\nfunc Caller() int { return Helper() }\n")
	repo.AddFile(b)

	r := New(repo)
	edges := r.File(b)

	var found bool
	for _, e := range edges {
		if e.Kind == schema.References && e.ToKind == schema.Function && e.ToKey == "a.go#Helper" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a REFERENCES edge to a.go#Helper, got %+v", edges)
	}
}

func TestResolveImportFallsBackToUnparsed(t *testing.T) {
	repo := symtab.NewRepo()
	fi := index(t, lang.Go, "go", "main.go", `package main

import "time"

func main() {
	time.Now()
}
`)
	repo.AddFile(fi)

	r := New(repo)
	edges := r.File(fi)

	var sawImport, sawCall bool
	for _, e := range edges {
		if e.Kind == schema.Imports && e.ToKind == schema.Unparsed && e.ToKey == "time" {
			sawImport = true
		}
		if e.Kind == schema.References && e.ToKind == schema.Unparsed && e.ToKey == "time.Now" {
			sawCall = true
		}
	}
	if !sawImport {
		t.Errorf("expected IMPORTS edge to Unparsed(time), got %+v", edges)
	}
	if !sawCall {
		t.Errorf("expected REFERENCES edge to Unparsed(time.Now), got %+v", edges)
	}
}

func TestResolveSelfMethodCall(t *testing.T) {
	repo := symtab.NewRepo()
	fi := index(t, lang.Python, "python", "greeter.py", `class Greeter:
    def hello(self):
        return self.build()

    def build(self):
        return "hi"
`)
	repo.AddFile(fi)

	r := New(repo)
	edges := r.File(fi)

	var found bool
	for _, e := range edges {
		if e.Kind == schema.References && e.ToKind == schema.Function && e.ToKey == "greeter.py#Greeter.build" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected self.build() to resolve to Greeter.build, got %+v", edges)
	}
}

func TestResolveDropsReferenceWithoutSourceEndpoint(t *testing.T) {
	// A bare call expression at file scope (no enclosing definition) has
	// no valid REFERENCES source endpoint and must be dropped rather than
	// emitted with a bogus from_kind.
	repo := symtab.NewRepo()
	fi := &symtab.FileIndex{Path: "x.go", Language: "go", ByShortName: map[string]int{}, Aliases: map[string]string{}}
	fi.References = []extract.RawReference{{FromDef: -1, NamePath: []string{"Foo"}, Role: extract.RoleCall}}
	repo.AddFile(fi)

	r := New(repo)
	edges := r.File(fi)
	if len(edges) != 0 {
		t.Fatalf("expected no edges for a file-level call reference, got %+v", edges)
	}
}
