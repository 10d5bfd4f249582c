package fqn

import (
	"path/filepath"
	"strings"
)

// Compute returns the canonical qualified name for a node.
// Format: <project>.<rel_path_parts_dotted>.<name>
// Examples:
//   - myproject.cmd.server.main.HandleRequest
//   - myproject.pkg.service.ProcessOrder
func Compute(project, relPath, name string) string {
	// Remove file extension
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	// Convert path separators to dots
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	// For Python __init__.py, drop the __init__ part
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	// For JS/TS index files
	if len(parts) > 0 && parts[len(parts)-1] == "index" {
		parts = parts[:len(parts)-1]
	}

	all := append([]string{project}, parts...)
	if name != "" {
		all = append(all, name)
	}
	return strings.Join(all, ".")
}

// ShortNames returns the suffix chain a resolver can match a bare reference
// name against: the name on its own, "Owner.name" when owner is non-empty,
// and "file_stem.Owner.name" when both are available. Ordered from least to
// most specific.
func ShortNames(fileStem, owner, name string) []string {
	names := []string{name}
	if owner != "" {
		names = append(names, owner+"."+name)
		if fileStem != "" {
			names = append(names, fileStem+"."+owner+"."+name)
		}
	} else if fileStem != "" {
		names = append(names, fileStem+"."+name)
	}
	return names
}
