// Package walk discovers source files in a repository, skipping build
// artifacts, VCS metadata, and anything matched by the repo's ignore
// patterns.
package walk

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/codegraph-dev/codegraph/internal/lang"
)

// defaultIgnoreDirs are directory names skipped unconditionally, regardless
// of the repo's ignore file. These hold VCS or editor metadata, never
// source, and a repo's own patterns can't legitimately re-include them.
// Dependency/build directories (vendor, node_modules, dist, ...) are left
// to the gitignore-style pattern set below so a negated pattern can still
// pull a file back in.
var defaultIgnoreDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	".idea": true, ".vscode": true,
}

// defaultIgnorePatterns are gitignore-style lines applied before the repo's
// own .gitignore/.cgrignore and any config-supplied patterns, so a later
// "!"-prefixed pattern in those can still re-include a path under one of
// these directories.
var defaultIgnorePatterns = []string{
	".venv/", "venv/", "__pycache__/",
	"node_modules/", "vendor/", "dist/", "build/",
	".mypy_cache/", ".pytest_cache/", ".tox/", ".nox/", "bower_components/",
	".cache/", "coverage/", "target/", "bin/", "obj/",
}

// defaultIgnoreSuffixes are file suffixes skipped unconditionally.
var defaultIgnoreSuffixes = []string{".pyc", ".pyo", ".o", ".a", ".so", ".dll", ".class", "~"}

// FileInfo describes a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to repo root, slash-separated
	Language lang.Language // detected language
}

// Options configures the walk.
type Options struct {
	// IgnorePatterns are additional gitignore-style patterns (ordered;
	// a later "!"-prefixed pattern re-includes a path excluded earlier),
	// applied on top of .gitignore/.cgrignore files found in the repo.
	IgnorePatterns []string
}

// Walk traverses a repository and returns all files the registered
// languages can parse. ctx cancellation is checked between directory
// entries so a large repo can be aborted promptly.
func Walk(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, loadIgnoreFiles(repoPath)...)
	if opts != nil {
		patterns = append(patterns, opts.IgnorePatterns...)
	}
	ignorer := gitignore.CompileIgnoreLines(patterns...)

	// A matched directory is pruned only when no "!" pattern is present;
	// otherwise its files are matched one by one so a negation can
	// re-include them.
	hasNegation := false
	for _, p := range patterns {
		if strings.HasPrefix(strings.TrimSpace(p), "!") {
			hasNegation = true
			break
		}
	}

	var files []FileInfo
	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && (defaultIgnoreDirs[info.Name()] || (!hasNegation && matches(ignorer, rel, true))) {
				return filepath.SkipDir
			}
			return nil
		}

		if hasIgnoredSuffix(path) || matches(ignorer, rel, false) {
			return nil
		}

		ext := filepath.Ext(path)
		l, ok := lang.LanguageForExtension(ext)
		if !ok {
			return nil
		}
		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})

	return files, err
}

func matches(ig *gitignore.GitIgnore, relPath string, isDir bool) bool {
	if ig == nil {
		return false
	}
	if isDir {
		return ig.MatchesPath(relPath + "/")
	}
	return ig.MatchesPath(relPath)
}

func hasIgnoredSuffix(path string) bool {
	for _, suffix := range defaultIgnoreSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// loadIgnoreFiles reads .gitignore and .cgrignore from the repo root, in
// that order, and returns their combined pattern lines. Later patterns in
// the concatenation take precedence, matching gitignore's own semantics.
func loadIgnoreFiles(repoPath string) []string {
	var patterns []string
	for _, name := range []string{".gitignore", ".cgrignore"} {
		lines, err := readLines(filepath.Join(repoPath, name))
		if err == nil {
			patterns = append(patterns, lines...)
		}
	}
	return patterns
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
