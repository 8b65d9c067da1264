// Package authz holds the one capability check the engine needs: a member
// may only touch their own records, a librarian may touch anything. The
// check runs at the edge of each owner-scoped operation instead of being
// re-implemented per handler.
package authz

import "libraryapi/internal/entity"

// Require returns ErrUnauthorized unless the actor owns the record or holds
// the librarian role.
func Require(actorID, actorRole, ownerID string) error {
	if actorRole == entity.RoleLibrarian {
		return nil
	}
	if actorID != "" && actorID == ownerID {
		return nil
	}
	return entity.ErrUnauthorized
}

// IsStaff reports whether the role carries the staff override.
func IsStaff(role string) bool {
	return role == entity.RoleLibrarian
}
