package domain

import "time"

// Role classifies a user globally. Roles are not resource-scoped; per-resource
// access on top of the role comes from explicit grants.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleReader:
		return true
	}
	return false
}

// Label returns the display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleEditor:
		return "Editor"
	case RoleReader:
		return "Reader"
	}
	return string(r)
}

// CanMutateOwned reports whether the role allows mutating operations on
// resources the user owns. Readers may view what they own but not change it.
func (r Role) CanMutateOwned() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID           string
	Username     string
	Email        string
	IsSuperuser  bool
	RegisteredAt time.Time
}

// UserProfile carries the authorization-relevant state of an account: one role
// at a time and an active flag. An inactive profile holds no permissions
// regardless of role or ownership.
type UserProfile struct {
	UserID    string
	Role      Role
	Active    bool
	UpdatedAt time.Time
}

// Actor is a resolved identity performing a request. A nil Actor (or one with
// an empty ID) represents an unauthenticated caller.
type Actor struct {
	ID          string
	IsSuperuser bool
	Profile     *UserProfile
}

// Authenticated reports whether the actor carries a resolved identity.
func (a *Actor) Authenticated() bool {
	return a != nil && a.ID != ""
}

// ActiveRole returns the actor's role and whether the profile is active.
// Superusers bypass role checks entirely, so callers should test IsSuperuser
// before consulting this.
func (a *Actor) ActiveRole() (Role, bool) {
	if a == nil || a.Profile == nil {
		return "", false
	}
	return a.Profile.Role, a.Profile.Active
}
