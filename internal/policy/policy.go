// Package policy holds the role model and the per-object authorization
// rules shared by the review and comment services.
package policy

import "fmt"

// Role is an ordered privilege level. Anonymous callers have no Role at
// all; every authenticated user carries exactly one.
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

// ParseRole converts the stored/claimed role string into a Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// CanModifyObject decides whether an actor may update or delete an owned
// object (a review or a comment). Moderators and admins may touch any
// object; everyone else only their own.
func CanModifyObject(actor Role, actorID, ownerID string) bool {
	if actor.AtLeast(RoleModerator) {
		return true
	}
	return actorID != "" && actorID == ownerID
}
