package schema

import "testing"

func TestValidEndpoints(t *testing.T) {
	cases := []struct {
		kind EdgeKind
		from NodeKind
		to   NodeKind
		want bool
	}{
		{Contains, Directory, File, true},
		{Contains, File, Function, true},
		{Contains, Function, Function, false},
		{Imports, File, File, true},
		{Imports, Function, File, false},
		{Inherits, Class, Class, true},
		{Inherits, Function, Class, false},
		{References, Function, Function, true},
		{References, Function, Unparsed, true},
	}
	for _, c := range cases {
		got := ValidEndpoints(c.kind, c.from, c.to)
		if got != c.want {
			t.Errorf("ValidEndpoints(%s, %s, %s) = %v, want %v", c.kind, c.from, c.to, got, c.want)
		}
	}
}

func TestValidateReturnsError(t *testing.T) {
	if err := Validate(Contains, Function, Function); err == nil {
		t.Error("expected error for Function-CONTAINS->Function")
	}
	if err := Validate(Contains, Directory, File); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsDefinitionKind(t *testing.T) {
	if !IsDefinitionKind(Function) {
		t.Error("Function should be a definition kind")
	}
	if IsDefinitionKind(Directory) {
		t.Error("Directory should not be a definition kind")
	}
	if IsDefinitionKind(Unparsed) {
		t.Error("Unparsed should not be a definition kind")
	}
}
