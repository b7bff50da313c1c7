package domain

import dErrors "giyus/pkg/domain-errors"

// Privilege selects which mutation path an actor's edits take.
// Invariant: the value must be one of the supported privilege levels.
type Privilege string

const (
	// PrivilegePrivileged edits are persisted immediately.
	PrivilegePrivileged Privilege = "privileged"
	// PrivilegeRestricted edits become change requests awaiting approval.
	PrivilegeRestricted Privilege = "restricted"
)

// Role names carried in access tokens. Only admins are privileged; every other
// role (volunteer, mentor, coordinator) proposes changes for review.
const (
	RoleAdmin = "admin"
)

// PrivilegeForRole maps a token role to a privilege level.
func PrivilegeForRole(role string) Privilege {
	if role == RoleAdmin {
		return PrivilegePrivileged
	}
	return PrivilegeRestricted
}

// ParsePrivilege constructs a Privilege from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParsePrivilege(s string) (Privilege, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "privilege cannot be empty")
	}
	p := Privilege(s)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid privilege")
	}
	return p, nil
}

func (p Privilege) IsValid() bool {
	return p == PrivilegePrivileged || p == PrivilegeRestricted
}

// Actor is the caller performing a mutation. Only the privilege level drives
// core behavior; ID is recorded as the proposer of change requests.
type Actor struct {
	ID        string
	Privilege Privilege
}

func (a Actor) IsPrivileged() bool {
	return a.Privilege == PrivilegePrivileged
}

func (a Actor) IsZero() bool {
	return a.ID == "" && a.Privilege == ""
}
