// Package graphbuild assembles the deduplicated node and edge
// collections the pipeline hands to the store. It has no name-resolution
// logic of its own: by the time a Definition or resolve.Edge reaches
// Add*, every name has already been bound.
package graphbuild

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/codegraph-dev/codegraph/internal/extract"
	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/resolve"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/store"
)

// nodeRecord is one not-yet-persisted node, keyed by its graph identity
// (repo-relative path for Directory/File, "path#Name" for a definition,
// or the raw unresolved text for Unparsed).
type nodeRecord struct {
	kind       schema.NodeKind
	name       string
	filePath   string
	startLine  int
	endLine    int
	properties map[string]any
}

type edgeRecord struct {
	kind       schema.EdgeKind
	fromKey    string
	toKey      string
	importPath string
	alias      string
}

// Graph accumulates a repository's nodes and edges before they are
// handed to the store. Nodes are deduplicated by identity key; edges by
// (kind, from, to, import, alias), matching spec's assembler contract.
type Graph struct {
	project string
	nodes   map[string]*nodeRecord
	edges   map[string]*edgeRecord
}

// New starts an empty assembly for one project.
func New(project string) *Graph {
	return &Graph{
		project: project,
		nodes:   make(map[string]*nodeRecord),
		edges:   make(map[string]*edgeRecord),
	}
}

// AddDirectory registers a directory node and a CONTAINS edge from its
// parent directory. relPath is "" for the repo root, which has no parent
// of its own and so gets no edge.
func (g *Graph) AddDirectory(relPath string) {
	g.putNode(relPath, &nodeRecord{kind: schema.Directory, name: baseName(relPath), filePath: relPath})
	if relPath == "" {
		return
	}
	g.putEdge(&edgeRecord{kind: schema.Contains, fromKey: parentDir(relPath), toKey: relPath},
		schema.Directory, schema.Directory)
}

// AddFile registers a File node for every walked file, parse failures
// included — a failed parse still owns a childless File node per the
// ParseFailure recovery policy — and a CONTAINS edge from its parent
// directory.
func (g *Graph) AddFile(relPath string, parseFailed bool) {
	props := map[string]any{}
	if parseFailed {
		props["parse_failed"] = true
	}
	g.putNode(relPath, &nodeRecord{kind: schema.File, name: baseName(relPath), filePath: relPath, properties: props})
	g.putEdge(&edgeRecord{kind: schema.Contains, fromKey: parentDir(relPath), toKey: relPath},
		schema.Directory, schema.File)
}

// parentDir returns the directory key of relPath's parent, "" for a
// top-level entry.
func parentDir(relPath string) string {
	d := path.Dir(relPath)
	if d == "." {
		return ""
	}
	return d
}

// AddDefinitions registers every definition extracted from one file as
// a node. A definition with no "Owner." prefix in its name gets its
// CONTAINS edge from the File immediately; an owner-prefixed definition
// (a method or field) gets no edge here — its owner may live in another
// file, so that edge is added by AddOwnerEdge once the repo-wide symbol
// table is complete.
func (g *Graph) AddDefinitions(relPath string, defs []extract.Definition, source []byte) {
	for _, d := range defs {
		key := relPath + "#" + d.Name
		props := map[string]any{
			"content_hash": fmt.Sprintf("%x", xxh3.Hash(source[d.StartByte:d.EndByte])),
		}
		if d.Docstring != "" {
			props["docstring"] = d.Docstring
		}
		if len(d.ShortNames) > 0 {
			props["short_names"] = d.ShortNames
		}
		if d.Kind == schema.Function {
			props["branch_count"] = d.BranchCount
			if len(d.Params) > 0 {
				params := make([]map[string]any, len(d.Params))
				for i, p := range d.Params {
					params[i] = map[string]any{"name": p.Name, "type_text": p.TypeText}
				}
				props["param_types"] = params
			}
		}
		g.putNode(key, &nodeRecord{
			kind:       d.Kind,
			name:       d.Name,
			filePath:   relPath,
			startLine:  d.StartLine,
			endLine:    d.EndLine,
			properties: props,
		})

		if _, ok := splitOwner(d.Name); ok {
			continue
		}
		g.putEdge(&edgeRecord{kind: schema.Contains, fromKey: relPath, toKey: key}, schema.File, d.Kind)
	}
}

// AddOwnerEdge links an owner-prefixed definition (defKey, defKind) to
// its resolved owner (ownerKind, ownerKey). Callers resolve the owner
// against the repo-wide symbol table — possibly in another file — before
// calling this; when no owner definition could be found at all, callers
// pass the File itself as the owner, matching AddDefinitions' own
// unprefixed fallback.
func (g *Graph) AddOwnerEdge(defKey string, defKind schema.NodeKind, ownerKind schema.NodeKind, ownerKey string) {
	g.putEdge(&edgeRecord{kind: schema.Contains, fromKey: ownerKey, toKey: defKey}, ownerKind, defKind)
}

// AddEdges folds a file's resolved edges into the assembly, materializing
// an Unparsed node for any edge that targets one.
func (g *Graph) AddEdges(edges []resolve.Edge) {
	for _, e := range edges {
		if e.ToKind == schema.Unparsed {
			g.putNode(unparsedKey(e.ToKey), &nodeRecord{kind: schema.Unparsed, name: e.ToKey})
		}
		g.putEdge(&edgeRecord{
			kind:       e.Kind,
			fromKey:    e.FromKey,
			toKey:      edgeTargetKey(e),
			importPath: e.Import,
			alias:      e.Alias,
		}, e.FromKind, e.ToKind)
	}
}

func edgeTargetKey(e resolve.Edge) string {
	if e.ToKind == schema.Unparsed {
		return unparsedKey(e.ToKey)
	}
	return e.ToKey
}

func unparsedKey(text string) string {
	return "unparsed:" + text
}

func (g *Graph) putNode(key string, n *nodeRecord) {
	g.nodes[key] = n
}

func (g *Graph) putEdge(e *edgeRecord, fromKind, toKind schema.NodeKind) {
	if !schema.ValidEndpoints(e.kind, fromKind, toKind) {
		return
	}
	dedupKey := strings.Join([]string{string(e.kind), e.fromKey, e.toKey, e.importPath, e.alias}, "\x00")
	g.edges[dedupKey] = e
}

// splitOwner reports whether name is of the form "Owner.Member" and, if
// so, returns Owner.
func splitOwner(name string) (string, bool) {
	idx := strings.IndexByte(name, '.')
	if idx <= 0 {
		return "", false
	}
	return name[:idx], true
}

func baseName(relPath string) string {
	if relPath == "" {
		return "."
	}
	idx := strings.LastIndexByte(relPath, '/')
	if idx < 0 {
		return relPath
	}
	return relPath[idx+1:]
}

// Emit writes the assembled graph to st, in dependency order: Directory
// nodes, then File nodes, then definitions, then Unparsed nodes, then
// every edge. Node upserts within a kind happen in one batch; edges are
// inserted once every endpoint ID is known.
func (g *Graph) Emit(st *store.Store) error {
	order := []schema.NodeKind{schema.Directory, schema.File, schema.Class, schema.Interface,
		schema.Function, schema.Variable, schema.OtherType, schema.Unparsed}

	idByKey := make(map[string]int64, len(g.nodes))
	for _, kind := range order {
		var batch []*store.Node
		var keys []string
		for key, n := range g.nodes {
			if n.kind != kind {
				continue
			}
			keys = append(keys, key)
			batch = append(batch, &store.Node{
				Project:       g.project,
				Label:         string(n.kind),
				Name:          n.name,
				QualifiedName: qualifiedName(g.project, n, key),
				FilePath:      n.filePath,
				StartLine:     n.startLine,
				EndLine:       n.endLine,
				Properties:    n.properties,
			})
		}
		if len(batch) == 0 {
			continue
		}
		ids, err := st.UpsertNodeBatch(batch)
		if err != nil {
			return fmt.Errorf("upsert %s nodes: %w", kind, err)
		}
		for i, node := range batch {
			if id, ok := ids[node.QualifiedName]; ok {
				idByKey[keys[i]] = id
			}
		}
	}

	var edges []*store.Edge
	for _, e := range g.edges {
		fromID, ok := idByKey[e.fromKey]
		if !ok {
			slog.Warn("graphbuild.edge.drop", "reason", "missing source node", "kind", e.kind, "from", e.fromKey)
			continue
		}
		toID, ok := idByKey[e.toKey]
		if !ok {
			slog.Warn("graphbuild.edge.drop", "reason", "missing target node", "kind", e.kind, "to", e.toKey)
			continue
		}
		props := map[string]any{}
		if e.importPath != "" {
			props["import"] = e.importPath
		}
		if e.alias != "" {
			props["alias"] = e.alias
		}
		edges = append(edges, &store.Edge{
			Project:    g.project,
			SourceID:   fromID,
			TargetID:   toID,
			Type:       string(e.kind),
			Properties: props,
		})
	}
	if err := st.InsertEdgeBatch(edges); err != nil {
		return fmt.Errorf("insert edges: %w", err)
	}
	return nil
}

// ParsedNode is a dependency-free view of an assembled node, for callers
// that want the raw graph without a store round trip.
type ParsedNode struct {
	Kind          schema.NodeKind
	Name          string
	QualifiedName string
	FilePath      string
	StartLine     int
	EndLine       int
	Properties    map[string]any
}

// ParsedEdge is a dependency-free view of an assembled edge, endpoints
// given as qualified names rather than store IDs.
type ParsedEdge struct {
	Kind       schema.EdgeKind
	From       string
	To         string
	Properties map[string]any
}

// Snapshot renders the assembly as plain nodes and edges without writing
// anywhere, for the one-shot Parser path that never touches a store. An
// edge whose endpoint isn't present in the node set is dropped, same as
// Emit's missing-ID warning.
func (g *Graph) Snapshot() ([]ParsedNode, []ParsedEdge) {
	qnByKey := make(map[string]string, len(g.nodes))
	nodes := make([]ParsedNode, 0, len(g.nodes))
	for key, n := range g.nodes {
		qn := qualifiedName(g.project, n, key)
		qnByKey[key] = qn
		nodes = append(nodes, ParsedNode{
			Kind: n.kind, Name: n.name, QualifiedName: qn,
			FilePath: n.filePath, StartLine: n.startLine, EndLine: n.endLine,
			Properties: n.properties,
		})
	}

	edges := make([]ParsedEdge, 0, len(g.edges))
	for _, e := range g.edges {
		fromQN, ok := qnByKey[e.fromKey]
		if !ok {
			continue
		}
		toQN, ok := qnByKey[e.toKey]
		if !ok {
			continue
		}
		props := map[string]any{}
		if e.importPath != "" {
			props["import"] = e.importPath
		}
		if e.alias != "" {
			props["alias"] = e.alias
		}
		edges = append(edges, ParsedEdge{Kind: e.kind, From: fromQN, To: toQN, Properties: props})
	}
	return nodes, edges
}

// qualifiedName computes a node's fully qualified name: the module path
// itself for Directory/File, the module path plus local name for a
// definition, and a path-free "project.unparsed.<text>" form for
// Unparsed nodes, which have no owning file to hang a module path off.
func qualifiedName(project string, n *nodeRecord, key string) string {
	if n.kind == schema.Unparsed {
		return project + ".unparsed." + n.name
	}
	suffix := ""
	if n.kind != schema.Directory && n.kind != schema.File {
		if idx := strings.IndexByte(key, '#'); idx >= 0 {
			suffix = key[idx+1:]
		} else {
			suffix = n.name
		}
	}
	return fqn.Compute(project, n.filePath, suffix)
}
