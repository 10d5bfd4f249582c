package lang

// Language represents a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, Go}
}

// LanguageSpec defines how a language's source is scanned into the graph.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// DefinitionQuery is the tree-sitter S-expression query that captures
	// definitions (classes, interfaces, functions, methods, variables) in
	// source files of this language. Capture names follow the
	// "definition.<kind>[.<field>]" convention, e.g. "definition.function.name".
	DefinitionQuery string

	// ReferenceQuery captures reference sites (calls and import statements)
	// using the "reference.<role>[.<field>]" convention, e.g.
	// "reference.call.name". Base classes and parameter types are captured
	// by DefinitionQuery instead.
	ReferenceQuery string

	PackageIndicators []string // filenames that mark a directory as a package root

	// BranchingNodeTypes are tree-sitter node kinds counted towards a
	// Function definition's branch_count property.
	BranchingNodeTypes []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// AllPackageIndicators returns the union, in no particular order, of
// every registered language's PackageIndicators, for callers that need
// to probe a directory for a package root without first knowing which
// language owns it.
func AllPackageIndicators() []string {
	seen := map[string]bool{}
	var out []string
	for _, spec := range registry {
		for _, ind := range spec.PackageIndicators {
			if !seen[ind] {
				seen[ind] = true
				out = append(out, ind)
			}
		}
	}
	return out
}
