// Package mcptools is the MCP binding shell over internal/codegraph: it
// registers tool handlers and translates their arguments, but holds no
// indexing logic of its own.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraph-dev/codegraph/internal/codegraph"
)

// Server wraps an MCP server bound to one CodeGraph.
type Server struct {
	mcp *mcp.Server
	cg  *codegraph.CodeGraph
}

// NewServer creates an MCP server with every tool registered against cg.
func NewServer(cg *codegraph.CodeGraph) *Server {
	srv := &Server{
		cg: cg,
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: "codegraphctl", Version: "0.1.0"},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_repository",
		Description: "Index the bound repository into the code graph. Parses source files, extracts definitions, resolves references, and stores the graph for querying. Every call is a full re-index.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"paths": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Accepted for interface compatibility; ignored, since every call performs a full re-index."
				}
			}
		}`),
	}, s.handleIndexRepository)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "query_graph",
		Description: "Run a Cypher-like query against the indexed code graph and return matching rows.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "A Cypher-like MATCH/WHERE/RETURN query, e.g. MATCH (f:Function)-[:REFERENCES]->(g:Function) WHERE f.name = 'main' RETURN g.name"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleQueryGraph)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_func_param_types",
		Description: "Find the function enclosing a given file/line and return the source of each parameter's resolved type definition.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {"type": "string", "description": "Repo-relative path of the file containing the function."},
				"line": {"type": "integer", "description": "A line number within the function's body."}
			},
			"required": ["file_path", "line"]
		}`),
	}, s.handleGetFuncParamTypes)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_duplicate_spans",
		Description: "Find definitions across the indexed repository that share an identical source span (byte-for-byte clones or copy-pasted code).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}, s.handleFindDuplicateSpans)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "clean_graph",
		Description: "Remove the bound project's indexed graph data, optionally deleting the backing database file as well.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"delete_dir": {"type": "boolean", "description": "Also remove the database file from disk."}
			}
		}`),
	}, s.handleClean)
}

func (s *Server) handleIndexRepository(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	var paths []string
	if raw, ok := args["paths"].([]any); ok {
		for _, p := range raw {
			if str, ok := p.(string); ok {
				paths = append(paths, str)
			}
		}
	}

	if err := s.cg.Index(ctx, paths, false); err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"status": "indexed"}), nil
}

func (s *Server) handleQueryGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	query := getStringArg(args, "query")
	if query == "" {
		return errResult("missing required 'query' parameter"), nil
	}

	result, err := s.cg.Query(query)
	if err != nil {
		return errResult(fmt.Sprintf("query error: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"columns": result.Columns,
		"rows":    result.Rows,
		"total":   len(result.Rows),
	}), nil
}

func (s *Server) handleGetFuncParamTypes(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	filePath := getStringArg(args, "file_path")
	if filePath == "" {
		return errResult("missing required 'file_path' parameter"), nil
	}
	line := getIntArg(args, "line", 0)
	if line <= 0 {
		return errResult("missing required 'line' parameter"), nil
	}

	snippets, err := s.cg.GetFuncParamTypes(filePath, line)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"param_types": snippets}), nil
}

func (s *Server) handleFindDuplicateSpans(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := s.cg.DuplicateSpans()
	if err != nil {
		return errResult(fmt.Sprintf("duplicate span search failed: %v", err)), nil
	}
	out := make([]map[string]any, len(groups))
	for i, g := range groups {
		names := make([]string, len(g.Nodes))
		for j, n := range g.Nodes {
			names[j] = fmt.Sprintf("%s (%s:%d-%d)", n.QualifiedName, n.FilePath, n.StartLine, n.EndLine)
		}
		out[i] = map[string]any{"content_hash": g.ContentHash, "definitions": names}
	}
	return jsonResult(map[string]any{"groups": out}), nil
}

func (s *Server) handleClean(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	deleteDir := getBoolArg(args, "delete_dir")
	if err := s.cg.Clean(deleteDir); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"status": "cleaned"}), nil
}

// jsonResult marshals data to JSON and returns it as a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getBoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
