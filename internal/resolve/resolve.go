// Package resolve turns a file's raw references into graph edges by
// applying an ordered set of name-resolution rules against the repo-wide
// symbol table. Nothing it does can fail the pipeline: a name that
// cannot be bound to a known definition is coerced to an Unparsed
// endpoint, and a reference with no valid source endpoint at all is
// dropped with a logged warning, per the schema-violation policy.
package resolve

import (
	"log/slog"
	"path"
	"strings"

	"github.com/codegraph-dev/codegraph/internal/extract"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/symtab"
)

// Edge is a resolved reference, ready for the graph assembler. Node
// identity is carried as (Kind, Key): Key is "path#Name" for
// definitions, a bare repo-relative path for File/Directory nodes, and
// the unresolved dotted text for Unparsed nodes.
type Edge struct {
	Kind     schema.EdgeKind
	FromKind schema.NodeKind
	FromKey  string
	ToKind   schema.NodeKind
	ToKey    string
	Import   string // raw import path/module text, set only on IMPORTS edges
	Alias    string // local binding, set only on IMPORTS edges
}

// Resolver applies the resolution rules against a repo-wide symbol
// table. It holds no per-file mutable state; the pipeline calls one
// Resolver for every file in turn, on a single goroutine.
type Resolver struct {
	repo *symtab.Repo
}

// New builds a Resolver over a fully populated repo index. The repo
// must not be mutated after resolution starts.
func New(repo *symtab.Repo) *Resolver {
	return &Resolver{repo: repo}
}

// File resolves every reference recorded against one file's extraction
// into edges.
func (r *Resolver) File(fi *symtab.FileIndex) []Edge {
	edges := make([]Edge, 0, len(fi.References))
	for _, ref := range fi.References {
		if e := r.resolveOne(fi, ref); e != nil {
			edges = append(edges, *e)
		}
	}
	return edges
}

func (r *Resolver) resolveOne(fi *symtab.FileIndex, ref extract.RawReference) *Edge {
	fromKind, fromKey, ok := r.fromEndpoint(fi, ref)
	if !ok {
		slog.Warn("dropping reference with no valid source endpoint",
			"file", fi.Path, "role", ref.Role, "name", strings.Join(ref.NamePath, "."))
		return nil
	}

	if ref.Role == extract.RoleImport {
		return r.resolveImport(fi, ref, fromKind, fromKey)
	}

	edgeKind := schema.References
	if ref.Role == extract.RoleInherit {
		edgeKind = schema.Inherits
	}

	toKind, toKey := r.resolveNamePath(fi, ref.NamePath)
	if !schema.ValidEndpoints(edgeKind, fromKind, toKind) {
		toKind, toKey = schema.Unparsed, strings.Join(ref.NamePath, ".")
		if !schema.ValidEndpoints(edgeKind, fromKind, toKind) {
			slog.Warn("dropping reference: no schema-valid coercion",
				"file", fi.Path, "from_kind", fromKind, "to_kind", toKind)
			return nil
		}
	}

	return &Edge{Kind: edgeKind, FromKind: fromKind, FromKey: fromKey, ToKind: toKind, ToKey: toKey}
}

// Owner resolves the declared owner of a method or field named
// "Owner.Member" to its defining node. It checks fi's own definitions
// first; for Go, whose methods may be declared in a different file than
// the struct they receive on, it then checks every sibling file in the
// same directory. ok is false when no definition named ownerName is in
// scope anywhere.
func (r *Resolver) Owner(fi *symtab.FileIndex, ownerName string) (schema.NodeKind, string, bool) {
	if def, ok := fi.Lookup(ownerName); ok {
		return def.Kind, defKey(fi.Path, def.Name), true
	}
	if fi.Language == "go" {
		for _, sibling := range r.repo.FilesInDir(dirOf(fi.Path)) {
			if sibling.Path == fi.Path {
				continue
			}
			if def, ok := sibling.Lookup(ownerName); ok {
				return def.Kind, defKey(sibling.Path, def.Name), true
			}
		}
	}
	return "", "", false
}

// fromEndpoint resolves the source side of a reference: the enclosing
// definition for call/inherit/typeref references, or the file itself
// for import references.
func (r *Resolver) fromEndpoint(fi *symtab.FileIndex, ref extract.RawReference) (schema.NodeKind, string, bool) {
	if ref.Role == extract.RoleImport {
		return schema.File, fi.Path, true
	}
	if ref.FromDef < 0 || ref.FromDef >= len(fi.Definitions) {
		return "", "", false
	}
	def := fi.Definitions[ref.FromDef]
	if !schema.IsDefinitionKind(def.Kind) {
		return "", "", false
	}
	return def.Kind, defKey(fi.Path, def.Name), true
}

// resolveNamePath applies the ordered rules: local lookup by the full
// dotted name or its head, then (for a qualified name) import-alias
// lookup, then a same-file lookup by trailing segment alone — which is
// what resolves self.m()/this.m() and any other local receiver, since
// method Definitions are named "Owner.m" but still answer to the bare
// "m" short name — then a same-package lookup (Go) and a repo-global
// lookup that only fires when the short name is unique. Anything left
// unresolved falls back to Unparsed.
func (r *Resolver) resolveNamePath(fi *symtab.FileIndex, namePath []string) (schema.NodeKind, string) {
	if len(namePath) == 0 {
		return schema.Unparsed, ""
	}
	head := namePath[0]
	tail := namePath[len(namePath)-1]

	if len(namePath) > 1 {
		if def, ok := fi.Lookup(strings.Join(namePath, ".")); ok {
			return def.Kind, defKey(fi.Path, def.Name)
		}
	}
	if def, ok := fi.Lookup(head); ok {
		return def.Kind, defKey(fi.Path, def.Name)
	}

	if len(namePath) > 1 {
		if imp, ok := fi.Aliases[head]; ok {
			if kind, key, ok := r.lookupAcrossImport(imp, tail); ok {
				return kind, key
			}
			return schema.Unparsed, imp + "." + tail
		}
		if def, ok := fi.Lookup(tail); ok {
			return def.Kind, defKey(fi.Path, def.Name)
		}
	}

	if fi.Language == "go" {
		for _, sibling := range r.repo.FilesInDir(dirOf(fi.Path)) {
			if sibling.Path == fi.Path {
				continue
			}
			if def, ok := sibling.Lookup(tail); ok {
				return def.Kind, defKey(sibling.Path, def.Name)
			}
		}
	}

	if refs := r.repo.Lookup(tail); len(refs) == 1 {
		return refs[0].Def.Kind, defKey(refs[0].File.Path, refs[0].Def.Name)
	}

	return schema.Unparsed, strings.Join(namePath, ".")
}

// lookupAcrossImport is the best-effort half of import-alias resolution:
// it has no build-system knowledge of where an import path actually
// lives, so it only succeeds when a top-level directory of the repo has
// exactly the import's last path segment as its path; nested directories
// with that name are not searched.
func (r *Resolver) lookupAcrossImport(importPath, tail string) (schema.NodeKind, string, bool) {
	seg := lastSegment(importPath)
	for _, fi := range r.repo.FilesInDir(seg) {
		if def, ok := fi.Lookup(tail); ok {
			return def.Kind, defKey(fi.Path, def.Name), true
		}
	}
	return "", "", false
}

// resolveImport resolves an import path to a concrete repo File or
// Directory when possible, falling back to an Unparsed target
// otherwise. Relative paths (starting with "." or "/") are resolved
// against the importing file's own directory; everything else is
// matched against a top-level repo directory whose path is its last
// segment; nested directories are not matched.
func (r *Resolver) resolveImport(fi *symtab.FileIndex, ref extract.RawReference, fromKind schema.NodeKind, fromKey string) *Edge {
	raw := ref.NamePath[0]
	alias := ref.Alias
	if alias == "" {
		alias = lastSegment(raw)
	}

	if toKind, toKey, ok := r.resolveImportTarget(fi, raw); ok {
		return &Edge{Kind: schema.Imports, FromKind: fromKind, FromKey: fromKey, ToKind: toKind, ToKey: toKey, Import: raw, Alias: alias}
	}

	return &Edge{Kind: schema.Imports, FromKind: fromKind, FromKey: fromKey, ToKind: schema.Unparsed, ToKey: raw, Import: raw, Alias: alias}
}

func (r *Resolver) resolveImportTarget(fi *symtab.FileIndex, raw string) (schema.NodeKind, string, bool) {
	if strings.HasPrefix(raw, ".") || strings.HasPrefix(raw, "/") {
		base := path.Join(dirOf(fi.Path), raw)
		candidates := []string{base, base + ".go", base + ".py", base + ".ts", base + ".tsx", base + ".js", base + ".jsx"}
		for _, indicator := range lang.AllPackageIndicators() {
			candidates = append(candidates, path.Join(base, indicator))
		}
		for _, c := range candidates {
			if _, ok := r.repo.File(c); ok {
				return schema.File, c, true
			}
		}
		if files := r.repo.FilesInDir(base); len(files) > 0 {
			return schema.Directory, base, true
		}
		return "", "", false
	}

	seg := lastSegment(raw)
	if files := r.repo.FilesInDir(seg); len(files) > 0 {
		return schema.Directory, seg, true
	}
	return "", "", false
}

func defKey(filePath, name string) string {
	return filePath + "#" + name
}

func lastSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if idx := strings.LastIndexAny(s, "/."); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func dirOf(filePath string) string {
	idx := strings.LastIndexByte(filePath, '/')
	if idx < 0 {
		return ""
	}
	return filePath[:idx]
}
