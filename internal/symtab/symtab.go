// Package symtab holds the per-file and repo-wide name indices the
// resolver consults. A FileIndex is built eagerly during extraction; the
// Repo index is assembled once after every file has been extracted and
// is read-only from that point on, matching the pipeline's
// definitions-before-resolution barrier.
package symtab

import (
	"sync"

	"github.com/codegraph-dev/codegraph/internal/extract"
)

// FileIndex is the local name index for a single file: the short name of
// every definition it declares, and the alias bindings introduced by its
// import statements.
type FileIndex struct {
	Path        string
	Language    string
	Definitions []extract.Definition
	References  []extract.RawReference

	// ByShortName maps every short name a definition answers to back to
	// its index in Definitions. Multiple short names can point at the
	// same definition (e.g. "Hello" and "Greeter.Hello" for a method).
	ByShortName map[string]int

	// Aliases maps an import's local binding to the raw imported path,
	// e.g. "path" -> "os/path" for `import "os/path"`, or "p" -> "os/path"
	// for `import p "os/path"`.
	Aliases map[string]string
}

// BuildFileIndex constructs a FileIndex from one file's extraction
// result.
func BuildFileIndex(path string, l string, fe *extract.FileExtraction) *FileIndex {
	fi := &FileIndex{
		Path:        path,
		Language:    l,
		Definitions: fe.Definitions,
		References:  fe.References,
		ByShortName: make(map[string]int),
		Aliases:     make(map[string]string),
	}
	for i, d := range fe.Definitions {
		for _, sn := range d.ShortNames {
			if _, exists := fi.ByShortName[sn]; !exists {
				fi.ByShortName[sn] = i
			}
		}
	}
	for _, r := range fe.References {
		if r.Role != extract.RoleImport {
			continue
		}
		local := r.Alias
		if local == "" {
			local = lastSegment(r.NamePath[0])
		}
		fi.Aliases[local] = r.NamePath[0]
	}
	return fi
}

// Lookup resolves a short name within the file's own definitions.
func (fi *FileIndex) Lookup(shortName string) (*extract.Definition, bool) {
	idx, ok := fi.ByShortName[shortName]
	if !ok {
		return nil, false
	}
	return &fi.Definitions[idx], true
}

func lastSegment(path string) string {
	slash := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '.' {
			slash = i
			break
		}
	}
	if slash == -1 {
		return path
	}
	return path[slash+1:]
}

// Repo is the repo-wide name index, built once all files have been
// extracted. Writes are expected to happen during a single-threaded
// assembly phase; Lookup and File take a read lock and are safe for
// concurrent use, though the resolve phase calls them from one goroutine.
type Repo struct {
	mu          sync.RWMutex
	files       map[string]*FileIndex
	byShortName map[string][]*DefinitionRef
}

// DefinitionRef locates a Definition inside a file's index, for the
// repo-global short-name index, which cannot embed Definition copies
// without losing FromDef span relationships.
type DefinitionRef struct {
	File *FileIndex
	Def  *extract.Definition
}

// NewRepo creates an empty repo-wide index.
func NewRepo() *Repo {
	return &Repo{
		files:       make(map[string]*FileIndex),
		byShortName: make(map[string][]*DefinitionRef),
	}
}

// AddFile inserts a file's index into the repo-wide table. Call once per
// file, after extraction; insertions are serialized by the caller (the
// pipeline's single-threaded linking phase).
func (r *Repo) AddFile(fi *FileIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[fi.Path] = fi
	for i := range fi.Definitions {
		def := &fi.Definitions[i]
		for _, sn := range def.ShortNames {
			r.byShortName[sn] = append(r.byShortName[sn], &DefinitionRef{File: fi, Def: def})
		}
	}
}

// Lookup returns every (file, definition) pair answering to shortName
// across the whole repo.
func (r *Repo) Lookup(shortName string) []*DefinitionRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byShortName[shortName]
}

// File returns the FileIndex for an extracted file path, if present.
func (r *Repo) File(path string) (*FileIndex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fi, ok := r.files[path]
	return fi, ok
}

// FilesInDir returns every file index whose path is directly inside dir
// (same-package lookup for Go).
func (r *Repo) FilesInDir(dir string) []*FileIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*FileIndex
	for path, fi := range r.files {
		if dirOf(path) == dir {
			out = append(out, fi)
		}
	}
	return out
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
