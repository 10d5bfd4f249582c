// Package schema defines the node and edge kind catalogue for the code
// graph and validates edge endpoints against it. It is the single source
// of truth consulted by the resolver and graph assembler before any edge
// is written to the store.
package schema

import "fmt"

// NodeKind is one of the fixed set of graph node labels.
type NodeKind string

const (
	Directory NodeKind = "Directory"
	File      NodeKind = "File"
	Class     NodeKind = "Class"
	Interface NodeKind = "Interface"
	Function  NodeKind = "Function"
	Variable  NodeKind = "Variable"
	OtherType NodeKind = "OtherType"
	Unparsed  NodeKind = "Unparsed"
)

// EdgeKind is one of the fixed set of graph edge types.
type EdgeKind string

const (
	Contains   EdgeKind = "CONTAINS"
	Imports    EdgeKind = "IMPORTS"
	Inherits   EdgeKind = "INHERITS"
	References EdgeKind = "REFERENCES"
)

// endpoints lists the (from, to) node-kind pairs each edge kind may
// legally connect. An edge whose endpoints aren't listed here violates
// the graph's schema invariant and must be rejected before assembly.
//
// CONTAINS also covers Class->Variable (field/constant
// ownership) and INHERITS covers the TypeScript interface-extends and
// class-implements-interface pairs, on top of the baseline struct/class
// relationships. REFERENCES is a full cross product: any of {Class,
// Interface, Function, Variable} may reference any of {Class, Interface,
// Function, Variable, OtherType, Unparsed}.
var endpoints = map[EdgeKind][][2]NodeKind{
	Contains: {
		{Directory, Directory},
		{Directory, File},
		{File, Class},
		{File, Interface},
		{File, Function},
		{File, Variable},
		{File, OtherType},
		{Class, Function},
		{Class, Variable},
		{Interface, Function},
	},
	Imports: {
		{File, Directory},
		{File, File},
		{File, Class},
		{File, Interface},
		{File, Function},
		{File, Variable},
		{File, OtherType},
		{File, Unparsed},
	},
	Inherits: {
		{Class, Class},
		{Class, Interface},
		{Interface, Interface},
		{Class, Unparsed},
		{Interface, Unparsed},
	},
}

var referenceFromKinds = []NodeKind{Class, Interface, Function, Variable}
var referenceToKinds = []NodeKind{Class, Interface, Function, Variable, OtherType, Unparsed}

func init() {
	var pairs [][2]NodeKind
	for _, from := range referenceFromKinds {
		for _, to := range referenceToKinds {
			pairs = append(pairs, [2]NodeKind{from, to})
		}
	}
	endpoints[References] = pairs
}

// ValidEndpoints reports whether an edge of kind k may connect a node of
// kind from to a node of kind to.
func ValidEndpoints(k EdgeKind, from, to NodeKind) bool {
	pairs, ok := endpoints[k]
	if !ok {
		return false
	}
	for _, p := range pairs {
		if p[0] == from && p[1] == to {
			return true
		}
	}
	return false
}

// Validate returns an error describing the schema violation, or nil if the
// edge's endpoints are permitted.
func Validate(k EdgeKind, from, to NodeKind) error {
	if ValidEndpoints(k, from, to) {
		return nil
	}
	return fmt.Errorf("schema: %s edge cannot connect %s -> %s", k, from, to)
}

// IsDefinitionKind reports whether k is one of the definition node kinds
// produced directly by the extractor (as opposed to Directory/File/Unparsed,
// which are synthesized by the walker and resolver respectively).
func IsDefinitionKind(k NodeKind) bool {
	switch k {
	case Class, Interface, Function, Variable, OtherType:
		return true
	default:
		return false
	}
}
