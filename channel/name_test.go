package channel

import (
	"strings"
	"testing"

	"github.com/kbukum/pulse/errors"
)

func TestBuildParse_RoundTrip(t *testing.T) {
	identifiers := []string{"ws_1", "r-42", "org.acme", "a", "550e8400-e29b-41d4-a716-446655440000", "with space", "ünïcode"}

	for _, typ := range Types() {
		for _, id := range identifiers {
			name := Build(typ, id)
			gotType, gotID, err := Parse(string(name))
			if err != nil {
				t.Errorf("Parse(%q) unexpected error: %v", name, err)
				continue
			}
			if gotType != typ || gotID != id {
				t.Errorf("Parse(Build(%s, %q)) = (%s, %q)", typ, id, gotType, gotID)
			}
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"no colon", "runs", "exactly one"},
		{"empty", "", "exactly one"},
		{"two colons", "runs:ws:1", "exactly one"},
		{"only colons", "::", "exactly one"},
		{"empty type", ":ws_1", "empty type"},
		{"empty identifier", "runs:", "empty identifier"},
		{"both empty", ":", "empty type"},
		{"unknown type", "jobs:ws_1", "unknown type"},
		{"case sensitive type", "Runs:ws_1", "unknown type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tc.input)
			}
			if !errors.IsCode(err, errors.ErrCodeInvalidChannel) {
				t.Errorf("expected INVALID_CHANNEL, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.reason) {
				t.Errorf("expected reason %q in %q", tc.reason, err.Error())
			}
			if Validate(tc.input) == nil {
				t.Errorf("Validate(%q) expected error", tc.input)
			}
		})
	}
}

func TestBuild_IdentifierWithColonIsRejectedByParse(t *testing.T) {
	name := Build(TypeRun, "a:b")
	if err := Validate(string(name)); err == nil {
		t.Errorf("expected %q to be invalid", name)
	}
}

func TestNameAccessors(t *testing.T) {
	n := Approvals("ws_9")
	if n != "approvals:ws_9" {
		t.Errorf("unexpected name %q", n)
	}
	if n.Type() != TypeApprovals || n.Identifier() != "ws_9" {
		t.Errorf("unexpected accessors %s %s", n.Type(), n.Identifier())
	}

	bad := Name("nope")
	if bad.Type() != "" || bad.Identifier() != "" {
		t.Error("invalid names should have empty accessors")
	}

	builders := map[Name]Name{
		Runs("w"):  "runs:w",
		Run("r"):   "run:r",
		Audit("o"): "audit:o",
	}
	for got, want := range builders {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	if len(types) != 4 {
		t.Fatalf("expected 4 types, got %d", len(types))
	}
	types[0] = "mutated"
	if Types()[0] != TypeRuns {
		t.Error("Types should return a copy")
	}
	if Type("heartbeat").Valid() {
		t.Error("heartbeat is not a channel type")
	}
}
