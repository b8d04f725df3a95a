package channel

import (
	"strings"

	"github.com/kbukum/pulse/errors"
)

// Separator splits a channel name into type and identifier.
const Separator = ":"

// Type is an event domain. The set is closed.
type Type string

const (
	TypeRuns      Type = "runs"
	TypeRun       Type = "run"
	TypeApprovals Type = "approvals"
	TypeAudit     Type = "audit"
)

var knownTypes = []Type{TypeRuns, TypeRun, TypeApprovals, TypeAudit}

// Types returns every known channel type.
func Types() []Type {
	out := make([]Type, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// Valid reports whether t is a known channel type.
func (t Type) Valid() bool {
	for _, k := range knownTypes {
		if t == k {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// Name is a channel name of the form "<type>:<identifier>".
type Name string

func (n Name) String() string { return string(n) }

// Type returns the channel type, or "" when n is not a valid name.
func (n Name) Type() Type {
	t, _, err := Parse(string(n))
	if err != nil {
		return ""
	}
	return t
}

// Identifier returns the identifier part, or "" when n is not a valid name.
func (n Name) Identifier() string {
	_, id, err := Parse(string(n))
	if err != nil {
		return ""
	}
	return id
}

// Build joins t and identifier. identifier must not contain ':'; Build does
// not sanitize it, and Parse will reject the result if it does.
func Build(t Type, identifier string) Name {
	return Name(string(t) + Separator + identifier)
}

// Runs names the run list channel of a workspace.
func Runs(workspaceID string) Name { return Build(TypeRuns, workspaceID) }

// Run names the channel of a single run.
func Run(runID string) Name { return Build(TypeRun, runID) }

// Approvals names the approvals channel of a workspace.
func Approvals(workspaceID string) Name { return Build(TypeApprovals, workspaceID) }

// Audit names the audit log channel of an organization.
func Audit(orgID string) Name { return Build(TypeAudit, orgID) }

// Parse splits name into its type and identifier. It fails with an
// INVALID_CHANNEL error unless name has exactly two non-empty parts and a
// known type.
func Parse(name string) (Type, string, error) {
	parts := strings.Split(name, Separator)
	if len(parts) != 2 {
		return "", "", errors.InvalidChannel(name, "expected exactly one ':' separator")
	}
	t, id := Type(parts[0]), parts[1]
	if t == "" {
		return "", "", errors.InvalidChannel(name, "empty type")
	}
	if id == "" {
		return "", "", errors.InvalidChannel(name, "empty identifier")
	}
	if !t.Valid() {
		return "", "", errors.InvalidChannel(name, "unknown type "+string(t))
	}
	return t, id, nil
}

// Validate returns the Parse error for name, if any.
func Validate(name string) error {
	_, _, err := Parse(name)
	return err
}
