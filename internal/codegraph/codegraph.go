// Package codegraph is the public orchestration surface of the indexer.
// Parser runs the walk/extract/resolve/assemble pipeline once and hands
// back the result directly; CodeGraph runs the same pipeline and keeps a
// SQLite-backed graph in sync with a repository on disk.
package codegraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codegraph-dev/codegraph/internal/cypher"
	"github.com/codegraph-dev/codegraph/internal/extract"
	"github.com/codegraph-dev/codegraph/internal/graphbuild"
	"github.com/codegraph-dev/codegraph/internal/lang"
	"github.com/codegraph-dev/codegraph/internal/resolve"
	"github.com/codegraph-dev/codegraph/internal/schema"
	"github.com/codegraph-dev/codegraph/internal/store"
	"github.com/codegraph-dev/codegraph/internal/symtab"
	"github.com/codegraph-dev/codegraph/internal/walk"
)

// perFileTimeout is the soft budget for parsing and extracting a single
// file. A file that blows through it is recorded as a childless File
// node, the same recovery a ParseFailure gets.
const perFileTimeout = 10 * time.Second

// Config controls the tunable parts of the pipeline.
type Config struct {
	// IgnorePatterns are additional gitignore-style lines, applied on top
	// of the repo's own ignore files. A "!"-prefixed pattern re-includes
	// a path an earlier pattern excluded.
	IgnorePatterns []string
	// Languages, when non-empty, restricts indexing to this allow-list of
	// language tags ("go", "python", "javascript", "typescript").
	Languages []string
	// LogLevel is one of error, warn, info, debug, trace.
	LogLevel string
}

func validateConfig(config *Config) error {
	if config == nil {
		return nil
	}
	switch config.LogLevel {
	case "", "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}
	for _, p := range config.IgnorePatterns {
		pattern := strings.TrimPrefix(p, "!")
		if _, err := path.Match(pattern, "x"); err != nil {
			return fmt.Errorf("malformed ignore pattern %q: %w", p, err)
		}
	}
	for _, l := range config.Languages {
		if lang.ForLanguage(lang.Language(l)) == nil {
			return fmt.Errorf("unknown language %q", l)
		}
	}
	return nil
}

func configureLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "trace":
		lvl = slog.LevelDebug - 4
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// ProjectNameFromPath derives a stable project name from a repository's
// absolute path by replacing path separators with dashes.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

// ParseResult is the one-shot output of Parser.Parse.
type ParseResult struct {
	Nodes []graphbuild.ParsedNode
	Edges []graphbuild.ParsedEdge
}

// Parser runs the extraction pipeline without persistence.
type Parser struct {
	config *Config
}

// NewParser builds a Parser. A nil config processes every registered
// language with no extra ignore patterns.
func NewParser(config *Config) (*Parser, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config != nil {
		configureLogging(config.LogLevel)
	}
	return &Parser{config: config}, nil
}

// Parse walks repoDir (or codeDir beneath it, when given) and returns the
// assembled nodes and relationships directly; nothing is written to disk.
func (p *Parser) Parse(ctx context.Context, repoDir, codeDir string) (*ParseResult, error) {
	root := repoDir
	if codeDir != "" {
		root = filepath.Join(repoDir, codeDir)
	}
	g, _, err := buildGraph(ctx, root, ProjectNameFromPath(root), p.config)
	if err != nil {
		return nil, err
	}
	nodes, edges := g.Snapshot()
	return &ParseResult{Nodes: nodes, Edges: edges}, nil
}

// CodeGraph is the persistent indexing pipeline: it owns a SQLite graph
// database and keeps it synchronized with a repository on disk.
type CodeGraph struct {
	store   *store.Store
	repoDir string
	project string
	config  *Config
}

// Open opens or creates the graph database for repoDir. An empty dbDir
// uses the store's default cache location, keyed by project name.
func Open(dbDir, repoDir string, config *Config) (*CodeGraph, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config != nil {
		configureLogging(config.LogLevel)
	}

	absRepo, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolve repo dir: %w", err)
	}
	project := ProjectNameFromPath(absRepo)

	var st *store.Store
	if dbDir == "" {
		st, err = store.Open(project)
	} else {
		if mkErr := os.MkdirAll(dbDir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", mkErr)
		}
		st, err = store.OpenPath(filepath.Join(dbDir, project+".db"))
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &CodeGraph{store: st, repoDir: absRepo, project: project, config: config}, nil
}

// Close releases the underlying database connection.
func (c *CodeGraph) Close() error {
	return c.store.Close()
}

// Index re-scans the repository and writes the resulting graph,
// replacing whatever was previously stored for this project. incremental
// re-indexing is not supported: the flag is accepted for interface
// compatibility and always performs a full re-index. paths is likewise
// accepted but not used to scope the walk, for the same reason.
func (c *CodeGraph) Index(ctx context.Context, paths []string, incremental bool) error {
	runID := uuid.New().String()
	if incremental {
		slog.Warn("codegraph.index.incremental_unsupported", "run", runID, "project", c.project)
	}
	if len(paths) > 0 {
		slog.Debug("codegraph.index.paths_ignored", "run", runID, "count", len(paths))
	}
	slog.Info("codegraph.index.start", "run", runID, "project", c.project)

	g, files, err := buildGraph(ctx, c.repoDir, c.project, c.config)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.store.UpsertProject(c.project, c.repoDir); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	if err := c.store.DeleteNodesByProject(c.project); err != nil {
		return fmt.Errorf("clear previous index: %w", err)
	}

	if err := g.Emit(c.store); err != nil {
		return fmt.Errorf("store failure: %w", err)
	}

	nc, _ := c.store.CountNodes(c.project)
	ec, _ := c.store.CountEdges(c.project)
	slog.Info("codegraph.index.done", "run", runID, "project", c.project, "files", len(files), "nodes", nc, "edges", ec)
	return nil
}

// Query runs a Cypher-like query against the persisted graph.
func (c *CodeGraph) Query(q string) (*cypher.Result, error) {
	ex := &cypher.Executor{Store: c.store, Project: c.project}
	return ex.Execute(q)
}

// Clean removes the project's graph data. When deleteDir is true the
// backing database file is removed as well, and the CodeGraph can no
// longer be used afterward.
func (c *CodeGraph) Clean(deleteDir bool) error {
	if err := c.store.DeleteNodesByProject(c.project); err != nil {
		return fmt.Errorf("clean nodes: %w", err)
	}
	if err := c.store.DeleteProject(c.project); err != nil {
		return fmt.Errorf("clean project: %w", err)
	}
	if !deleteDir {
		return nil
	}
	dbPath := c.store.Path()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if dbPath == ":memory:" {
		return nil
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove db file: %w", err)
	}
	return nil
}

// ParamTypeSnippet is the source definition of one resolved parameter
// type, per the getFuncParamTypes contract.
type ParamTypeSnippet struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

// GetFuncParamTypes finds the function or method whose span covers line
// in filePath and returns the source of each parameter's resolved type
// definition elsewhere in the graph. A parameter whose type can't be
// matched to a known definition is silently skipped.
func (c *CodeGraph) GetFuncParamTypes(filePath string, line int) ([]ParamTypeSnippet, error) {
	candidates, err := c.store.FindNodesByFileOverlap(c.project, filePath, line, line)
	if err != nil {
		return nil, fmt.Errorf("find function: %w", err)
	}
	fn := narrowestFunction(candidates)
	if fn == nil {
		return nil, fmt.Errorf("no function covers %s:%d", filePath, line)
	}

	raw, _ := fn.Properties["param_types"].([]any)
	var out []ParamTypeSnippet
	seen := map[string]bool{}
	for _, p := range raw {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		typeText, _ := pm["type_text"].(string)
		typeName := bareTypeName(typeText)
		if typeName == "" || seen[typeName] {
			continue
		}
		seen[typeName] = true

		def, ok := c.findTypeDef(typeName)
		if !ok {
			continue
		}
		content, readErr := readSourceLines(filepath.Join(c.repoDir, def.FilePath), def.StartLine, def.EndLine)
		if readErr != nil {
			slog.Warn("codegraph.paramtypes.read_err", "path", def.FilePath, "err", readErr)
			continue
		}
		out = append(out, ParamTypeSnippet{Path: def.FilePath, StartLine: def.StartLine, EndLine: def.EndLine, Content: content})
	}
	return out, nil
}

// DuplicateGroup is a set of definitions with byte-identical source spans,
// keyed by their shared content_hash.
type DuplicateGroup struct {
	ContentHash string
	Nodes       []*store.Node
}

// DuplicateSpans finds every definition whose content_hash is shared with
// at least one other definition in the project — clones or copy-pasted
// functions/methods/classes.
func (c *CodeGraph) DuplicateSpans() ([]DuplicateGroup, error) {
	hashes, err := c.store.DistinctContentHashes(c.project)
	if err != nil {
		return nil, fmt.Errorf("distinct content hashes: %w", err)
	}
	groups := make([]DuplicateGroup, 0, len(hashes))
	for _, h := range hashes {
		nodes, err := c.store.FindNodesByContentHash(c.project, h)
		if err != nil {
			return nil, fmt.Errorf("find by content hash %s: %w", h, err)
		}
		groups = append(groups, DuplicateGroup{ContentHash: h, Nodes: nodes})
	}
	return groups, nil
}

func (c *CodeGraph) findTypeDef(name string) (*store.Node, bool) {
	nodes, err := c.store.FindNodesByName(c.project, name)
	if err != nil {
		return nil, false
	}
	for _, n := range nodes {
		switch n.Label {
		case "Class", "Interface", "OtherType":
			return n, true
		}
	}
	return nil, false
}

func narrowestFunction(candidates []*store.Node) *store.Node {
	var best *store.Node
	var bestWidth int
	for _, n := range candidates {
		if n.Label != "Function" {
			continue
		}
		width := n.EndLine - n.StartLine
		if best == nil || width < bestWidth {
			best, bestWidth = n, width
		}
	}
	return best
}

// bareTypeName strips pointer/slice/generic wrapper syntax from a
// parameter's declared type text. Unlike the extractor's core-type-name
// helper it does not strip a map[K] prefix.
func bareTypeName(typeText string) string {
	t := strings.TrimSpace(typeText)
	for strings.HasPrefix(t, "*") || strings.HasPrefix(t, "[]") || strings.HasPrefix(t, "...") {
		switch {
		case strings.HasPrefix(t, "*"):
			t = t[1:]
		case strings.HasPrefix(t, "[]"):
			t = t[2:]
		case strings.HasPrefix(t, "..."):
			t = t[3:]
		}
	}
	if idx := strings.IndexAny(t, "<["); idx > 0 {
		t = t[:idx]
	}
	if dot := strings.LastIndexByte(t, '.'); dot >= 0 {
		t = t[dot+1:]
	}
	return strings.TrimSpace(t)
}

func readSourceLines(path string, startLine, endLine int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return "", fmt.Errorf("empty range %d-%d", startLine, endLine)
	}
	return strings.Join(lines[startLine-1:endLine], "\n"), nil
}

// fileResult is one file's extraction outcome, produced by a worker with
// no access to shared state.
type fileResult struct {
	fe       *extract.FileExtraction
	source   []byte
	ioErr    error
	timedOut bool
}

func extractFile(f walk.FileInfo) *fileResult {
	source, err := os.ReadFile(f.Path)
	if err != nil {
		return &fileResult{ioErr: err}
	}

	type out struct {
		fe  *extract.FileExtraction
		err error
	}
	ch := make(chan out, 1)
	go func() {
		fe, extractErr := extract.File(f.Language, f.RelPath, source)
		ch <- out{fe, extractErr}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			slog.Warn("codegraph.extract.err", "path", f.RelPath, "err", o.err)
			return &fileResult{source: source, fe: &extract.FileExtraction{Path: f.RelPath, Language: f.Language, ParseFailed: true}}
		}
		return &fileResult{source: source, fe: o.fe}
	case <-time.After(perFileTimeout):
		slog.Warn("codegraph.extract.timeout", "path", f.RelPath)
		return &fileResult{
			source:   source,
			fe:       &extract.FileExtraction{Path: f.RelPath, Language: f.Language, ParseFailed: true},
			timedOut: true,
		}
	}
}

func filterLanguages(files []walk.FileInfo, allow map[lang.Language]bool) []walk.FileInfo {
	out := make([]walk.FileInfo, 0, len(files))
	for _, f := range files {
		if allow[f.Language] {
			out = append(out, f)
		}
	}
	return out
}

func ancestorDirs(relPath string) []string {
	var dirs []string
	dir := path.Dir(relPath)
	for dir != "." && dir != "" {
		dirs = append(dirs, dir)
		dir = path.Dir(dir)
	}
	return dirs
}

// buildGraph runs the full pipeline — walk, bounded-worker extraction,
// the definitions-before-resolution barrier, resolution, and
// assembly — and returns the completed (but not yet persisted) Graph
// along with the file list it processed.
func buildGraph(ctx context.Context, repoDir, project string, config *Config) (*graphbuild.Graph, []walk.FileInfo, error) {
	if err := validateConfig(config); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := &walk.Options{}
	var allow map[lang.Language]bool
	if config != nil {
		opts.IgnorePatterns = config.IgnorePatterns
		if len(config.Languages) > 0 {
			allow = make(map[lang.Language]bool, len(config.Languages))
			for _, l := range config.Languages {
				allow[lang.Language(l)] = true
			}
		}
	}

	files, err := walk.Walk(ctx, repoDir, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("walk: %w", err)
	}
	if allow != nil {
		files = filterLanguages(files, allow)
	}

	results := make([]*fileResult, len(files))
	numWorkers := runtime.NumCPU()
	if len(files) > 0 && numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(numWorkers)
	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			results[i] = extractFile(f)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extract: %w", err)
	}

	// Single-threaded linking phase: publish every file's definitions to
	// the repo-global index and the assembler before any resolution runs.
	repo := symtab.NewRepo()
	graph := graphbuild.New(project)
	dirs := map[string]bool{"": true}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for _, d := range ancestorDirs(f.RelPath) {
			dirs[d] = true
		}

		r := results[i]
		if r.ioErr != nil {
			slog.Warn("codegraph.file.io_error", "path", f.RelPath, "err", r.ioErr)
			continue
		}

		failed := r.fe.ParseFailed || r.timedOut
		graph.AddFile(f.RelPath, failed)
		if failed {
			continue
		}

		graph.AddDefinitions(f.RelPath, r.fe.Definitions, r.source)
		fi := symtab.BuildFileIndex(f.RelPath, string(f.Language), r.fe)
		repo.AddFile(fi)
	}
	for d := range dirs {
		graph.AddDirectory(d)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	resolver := resolve.New(repo)
	for i, f := range files {
		r := results[i]
		if r.ioErr != nil || r.fe.ParseFailed || r.timedOut {
			continue
		}
		fi, ok := repo.File(f.RelPath)
		if !ok {
			continue
		}
		for _, d := range fi.Definitions {
			owner, ok := splitOwner(d.Name)
			if !ok {
				continue
			}
			defKey := f.RelPath + "#" + d.Name
			if ownerKind, ownerKey, ok := resolver.Owner(fi, owner); ok {
				graph.AddOwnerEdge(defKey, d.Kind, ownerKind, ownerKey)
			} else {
				graph.AddOwnerEdge(defKey, d.Kind, schema.File, f.RelPath)
			}
		}
		graph.AddEdges(resolver.File(fi))
	}

	return graph, files, nil
}

// splitOwner reports whether name is of the form "Owner.Member" and, if
// so, returns Owner — mirroring the convention the extractor uses to
// name methods and fields.
func splitOwner(name string) (string, bool) {
	idx := strings.IndexByte(name, '.')
	if idx <= 0 {
		return "", false
	}
	return name[:idx], true
}
