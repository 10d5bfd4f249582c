// Package extract runs a language's definition and reference queries
// against a parsed file and emits the raw Definitions and RawReferences
// the resolver consumes. It has no knowledge of cross-file linking; it
// only sees one file's syntax tree at a time.
package extract

import (
	"sort"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/internal/fqn"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/tsparse"
)

// ParamType is a single parameter's declared type, as written.
type ParamType struct {
	Name     string
	TypeText string
}

// Definition is an extracted code entity: a class, interface, function,
// method, or variable, with its source span and naming information.
type Definition struct {
	Kind         schema.NodeKind
	Name         string // local name: "Foo" or "Recv.Method"
	ShortNames   []string
	StartLine    int // 1-based, inclusive
	EndLine      int
	StartByte    uint
	EndByte      uint
	Code         string
	SkeletonCode string
	Params       []ParamType
	ReceiverType string   // non-empty for methods
	BaseNames    []string // superclass/extends/heritage names, for INHERITS
	Docstring    string
	BranchCount  int
}

// RawReference is a pre-resolution mention of a name inside a file, not
// yet bound to a concrete Definition.
type RawReference struct {
	FromDef   int // index into FileExtraction.Definitions, or -1 for file-level
	NamePath  []string
	Role      string // "import", "call", "inherit", "typeref"
	Alias     string // import local binding, when present
	StartByte uint
	EndByte   uint
}

// Role values a RawReference may carry.
const (
	RoleImport  = "import"
	RoleCall    = "call"
	RoleInherit = "inherit"
	RoleTyperef = "typeref"
)

// FileExtraction is everything extracted from a single file.
type FileExtraction struct {
	Path        string
	Language    lang.Language
	Definitions []Definition
	References  []RawReference
	ParseFailed bool
}

// File parses source and evaluates its language's definition and
// reference queries, returning the raw extraction. A parse failure is
// not an error: it is recorded on the result so the caller can still
// emit a childless File node, per the pipeline's recovery policy.
func File(l lang.Language, path string, source []byte) (*FileExtraction, error) {
	spec := lang.ForLanguage(l)
	if spec == nil {
		return &FileExtraction{Path: path, Language: l, ParseFailed: true}, nil
	}

	tree, err := tsparse.Parse(l, source)
	if err != nil || tree == nil {
		return &FileExtraction{Path: path, Language: l, ParseFailed: true}, nil
	}
	defer tree.Close()

	fe := &FileExtraction{Path: path, Language: l}

	defs, err := extractDefinitions(l, spec, tree.RootNode(), source)
	if err != nil {
		return &FileExtraction{Path: path, Language: l, ParseFailed: true}, nil
	}
	fe.Definitions = dedupeAndName(path, source, defs)

	refs, err := extractReferences(l, spec, tree.RootNode(), source, fe.Definitions)
	if err != nil {
		// Definitions still stand; references are simply empty.
		return fe, nil
	}
	fe.References = refs

	return fe, nil
}

// rawDef accumulates one definition-query match before naming and
// tie-break disambiguation are applied.
type rawDef struct {
	kind         schema.NodeKind
	name         string
	startByte    uint
	endByte      uint
	startLine    int
	endLine      int
	bodyStart    uint
	bodyEnd      uint
	hasBody      bool
	receiverType string
	baseNames    []string
	params       []ParamType
	docstring    string
	branchCount  int
}

func extractDefinitions(l lang.Language, spec *lang.LanguageSpec, root *tree_sitter.Node, source []byte) ([]rawDef, error) {
	q, err := tsparse.Query(l, spec.DefinitionQuery)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var out []rawDef
	captureNames := q.CaptureNames()
	matches := cursor.Matches(q, root, source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		d := buildDefinition(match, captureNames, source, spec)
		if d == nil {
			continue
		}
		out = append(out, *d)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].startLine < out[j].startLine })
	return out, nil
}

func buildDefinition(match *tree_sitter.QueryMatch, captureNames []string, source []byte, spec *lang.LanguageSpec) *rawDef {
	var rootCap *tree_sitter.Node
	var kindWord string
	nameByField := map[string]*tree_sitter.Node{}
	var paramTypeNodes []*tree_sitter.Node
	var baseNameNodes []*tree_sitter.Node

	for i := range match.Captures {
		cap := &match.Captures[i]
		full := captureNames[cap.Index]
		if !strings.HasPrefix(full, "definition.") {
			continue
		}
		segments := strings.Split(full, ".")
		// segments[0] = "definition", segments[1] = kind word, segments[2:] = field path
		if len(segments) < 2 {
			continue
		}
		node := &cap.Node
		if len(segments) == 2 {
			rootCap = node
			kindWord = segments[1]
			continue
		}
		field := segments[2]
		switch field {
		case "param_type":
			paramTypeNodes = append(paramTypeNodes, node)
		case "base_name":
			baseNameNodes = append(baseNameNodes, node)
		default:
			nameByField[field] = node
		}
		if kindWord == "" {
			kindWord = segments[1]
		}
	}

	if rootCap == nil {
		return nil
	}

	kind := mapDefKind(kindWord)
	if kind == "" {
		return nil
	}

	nameNode := nameByField["name"]
	if nameNode == nil {
		return nil // anonymous, not emitted per the tie-break rule
	}
	name := string(source[nameNode.StartByte():nameNode.EndByte()])

	d := &rawDef{
		kind:      kind,
		name:      name,
		startByte: rootCap.StartByte(),
		endByte:   rootCap.EndByte(),
		startLine: int(rootCap.StartPosition().Row) + 1,
		endLine:   int(rootCap.EndPosition().Row) + 1,
	}

	if body, ok := nameByField["body"]; ok {
		d.hasBody = true
		d.bodyStart = body.StartByte()
		d.bodyEnd = body.EndByte()
		d.branchCount = countBranching(body, spec.BranchingNodeTypes)
	}

	if recv, ok := nameByField["receiver_type"]; ok {
		d.receiverType = string(source[recv.StartByte():recv.EndByte()])
	}

	for _, n := range baseNameNodes {
		d.baseNames = append(d.baseNames, string(source[n.StartByte():n.EndByte()]))
	}

	for _, n := range paramTypeNodes {
		d.params = append(d.params, ParamType{TypeText: string(source[n.StartByte():n.EndByte()])})
	}

	d.docstring = leadingComment(source, rootCap.StartByte())

	return d
}

func mapDefKind(word string) schema.NodeKind {
	switch word {
	case "function", "method":
		return schema.Function
	case "class":
		return schema.Class
	case "interface":
		return schema.Interface
	case "variable":
		return schema.Variable
	default:
		return ""
	}
}

// countBranching walks body's subtree and counts nodes whose kind is in
// branchTypes, a coarse cyclomatic-complexity-adjacent metric.
func countBranching(body *tree_sitter.Node, branchTypes []string) int {
	if body == nil || len(branchTypes) == 0 {
		return 0
	}
	set := make(map[string]bool, len(branchTypes))
	for _, t := range branchTypes {
		set[t] = true
	}
	count := 0
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		if set[n.Kind()] {
			count++
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			walk(child)
		}
	}
	walk(body)
	return count
}

// leadingComment returns the comment block immediately preceding
// startByte, with no blank line in between, or "" if none. It is a
// textual heuristic rather than a grammar-aware lookup: good enough for
// the supplemented docstring property, which nothing else depends on.
func leadingComment(source []byte, startByte uint) string {
	if startByte == 0 {
		return ""
	}
	before := string(source[:startByte])
	lines := strings.Split(before, "\n")
	// Drop the (partial) line the definition starts on.
	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	var collected []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "//") {
			collected = append([]string{strings.TrimPrefix(line, "//")}, collected...)
			continue
		}
		if strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*") || strings.HasSuffix(line, "*/") {
			collected = append([]string{line}, collected...)
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

// dedupeAndName resolves the tie-break rule (first start_line wins; a
// later same-name definition in the same file gets a "#N" suffix) and
// converts each rawDef into a finished Definition with names and
// skeleton code computed.
func dedupeAndName(path string, source []byte, raw []rawDef) []Definition {
	seen := map[string]int{}
	out := make([]Definition, 0, len(raw))

	stem := fileStem(path)

	for idx, r := range raw {
		localName := r.name
		key := string(r.kind) + ":" + localName
		if n, ok := seen[key]; ok {
			n++
			seen[key] = n
			localName = localName + "#" + strconv.Itoa(n)
		} else {
			seen[key] = 0
		}

		owner := r.receiverType
		if owner == "" && r.kind == schema.Function {
			owner = enclosingClassName(raw, idx)
		}
		name := localName
		if owner != "" {
			name = owner + "." + localName
		}

		d := Definition{
			Kind:         r.kind,
			Name:         name,
			StartLine:    r.startLine,
			EndLine:      r.endLine,
			StartByte:    r.startByte,
			EndByte:      r.endByte,
			ReceiverType: r.receiverType,
			BaseNames:    r.baseNames,
			Params:       r.params,
			Docstring:    r.docstring,
			BranchCount:  r.branchCount,
			Code:         string(source[r.startByte:r.endByte]),
		}
		if r.hasBody {
			d.SkeletonCode = string(source[r.startByte:r.bodyStart]) + "{ ... }"
		} else {
			d.SkeletonCode = d.Code
		}
		d.ShortNames = fqn.ShortNames(stem, owner, localName)
		out = append(out, d)
	}
	return out
}

// enclosingClassName finds the innermost Class or Interface in raw
// whose span contains raw[idx], for languages (Python, JavaScript,
// TypeScript) that nest methods inside a class body instead of
// declaring a receiver. Go methods never need this: their owner comes
// straight from the receiver capture.
func enclosingClassName(raw []rawDef, idx int) string {
	self := raw[idx]
	var owner *rawDef
	var width uint
	for i := range raw {
		if i == idx {
			continue
		}
		c := &raw[i]
		if c.kind != schema.Class && c.kind != schema.Interface {
			continue
		}
		if self.startByte < c.startByte || self.endByte > c.endByte {
			continue
		}
		if w := c.endByte - c.startByte; owner == nil || w < width {
			owner, width = c, w
		}
	}
	if owner == nil {
		return ""
	}
	return owner.name
}

func fileStem(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}

// extractReferences runs the reference query and folds in the inherit
// and typeref references implied by the definitions already extracted
// (base classes and parameter types are captured as definition fields,
// not separately by the reference query).
func extractReferences(l lang.Language, spec *lang.LanguageSpec, root *tree_sitter.Node, source []byte, defs []Definition) ([]RawReference, error) {
	var out []RawReference

	for i, d := range defs {
		for _, base := range d.BaseNames {
			out = append(out, RawReference{
				FromDef:  i,
				NamePath: []string{base},
				Role:     RoleInherit,
			})
		}
		for _, p := range d.Params {
			t := coreTypeName(p.TypeText)
			if t == "" {
				continue
			}
			out = append(out, RawReference{
				FromDef:  i,
				NamePath: []string{t},
				Role:     RoleTyperef,
			})
		}
	}

	q, err := tsparse.Query(l, spec.ReferenceQuery)
	if err != nil {
		return out, err
	}
	defer q.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	captureNames := q.CaptureNames()
	matches := cursor.Matches(q, root, source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		ref := buildReference(match, captureNames, source, defs)
		if ref != nil {
			out = append(out, *ref)
		}
	}

	return out, nil
}

func buildReference(match *tree_sitter.QueryMatch, captureNames []string, source []byte, defs []Definition) *RawReference {
	var role string
	var rootStart, rootEnd uint
	var name, alias, receiver string
	hasRoot := false

	for i := range match.Captures {
		cap := &match.Captures[i]
		full := captureNames[cap.Index]
		if !strings.HasPrefix(full, "reference.") {
			continue
		}
		segments := strings.Split(full, ".")
		if len(segments) < 2 {
			continue
		}
		node := &cap.Node
		if len(segments) == 2 {
			role = segments[1]
			rootStart, rootEnd = node.StartByte(), node.EndByte()
			hasRoot = true
			continue
		}
		field := segments[2]
		text := string(source[node.StartByte():node.EndByte()])
		switch field {
		case "name":
			name = text
		case "path":
			name = strings.Trim(text, `"'`)
		case "alias":
			alias = text
		case "receiver":
			receiver = text
		}
	}

	if !hasRoot || name == "" {
		return nil
	}

	namePath := []string{name}
	if receiver != "" {
		namePath = []string{receiver, name}
	}

	ref := &RawReference{
		FromDef:   enclosingDefinition(defs, rootStart),
		NamePath:  namePath,
		Role:      role,
		Alias:     alias,
		StartByte: rootStart,
		EndByte:   rootEnd,
	}
	return ref
}

// enclosingDefinition returns the index of the innermost Definition
// whose span contains pos, or -1 if pos falls outside every definition
// (a file-level reference, e.g. a package-level import).
func enclosingDefinition(defs []Definition, pos uint) int {
	best := -1
	var bestWidth uint
	for i, d := range defs {
		if pos < d.StartByte || pos >= d.EndByte {
			continue
		}
		width := d.EndByte - d.StartByte
		if best == -1 || width < bestWidth {
			best = i
			bestWidth = width
		}
	}
	return best
}

// coreTypeName strips pointer/slice/map wrappers and generic arguments
// from a parameter's declared type text, leaving the bare type name a
// reference can resolve against. Builtins are filtered by the resolver,
// not here.
func coreTypeName(typeText string) string {
	t := strings.TrimSpace(typeText)
	for {
		switch {
		case strings.HasPrefix(t, "*"):
			t = t[1:]
		case strings.HasPrefix(t, "[]"):
			t = t[2:]
		case strings.HasPrefix(t, "..."):
			t = t[3:]
		default:
			t = stripMapPrefix(t)
			if idx := strings.IndexAny(t, "<["); idx > 0 {
				t = t[:idx]
			}
			if dot := strings.LastIndexByte(t, '.'); dot >= 0 {
				t = t[dot+1:]
			}
			return strings.TrimSpace(t)
		}
	}
}

// stripMapPrefix turns "map[K]V" into "V"; anything else passes through.
func stripMapPrefix(t string) string {
	if !strings.HasPrefix(t, "map[") {
		return t
	}
	depth := 0
	for i := 3; i < len(t); i++ {
		switch t[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return t[i+1:]
			}
		}
	}
	return t
}
