// Package access decides what an authenticated principal may do before
// any store access happens.  Handlers and services call these checks
// explicitly; there is no role branching inside query construction.
package access

import "errors"

// ErrUnauthorized is returned when no authenticated principal is present.
// Handlers translate it into HTTP 401.
var ErrUnauthorized = errors.New("authentication credentials were not provided")

// ErrForbidden is returned when the principal lacks the capability for the
// requested operation.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("you do not have permission to perform this action")

// Principal is the identity attached to a request by the authentication
// layer.
type Principal struct {
	UserID uint64
	Email  string
	Staff  bool
}

// Authenticated reports whether p identifies a real user.
func (p Principal) Authenticated() bool { return p.UserID != 0 }

// Scope is the predicate applied to reservation queries.  A nil OwnerID
// means every reservation is visible.
type Scope struct {
	OwnerID *uint64
}

// Allows reports whether a reservation owned by ownerID falls inside the
// scope.
func (s Scope) Allows(ownerID uint64) bool {
	return s.OwnerID == nil || *s.OwnerID == ownerID
}

// CanReadCatalog allows any authenticated principal to read shows, themes,
// domes and sessions.
func CanReadCatalog(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

// CanMutateCatalog restricts catalog and session writes to staff.
func CanMutateCatalog(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	if !p.Staff {
		return ErrForbidden
	}
	return nil
}

// CanBook allows any authenticated principal to create reservations.
func CanBook(p Principal) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

// ReservationScope returns the query predicate for listing or reading
// reservations: staff see everything, everyone else only what they own.
func ReservationScope(p Principal) (Scope, error) {
	if !p.Authenticated() {
		return Scope{}, ErrUnauthorized
	}
	if p.Staff {
		return Scope{}, nil
	}
	owner := p.UserID
	return Scope{OwnerID: &owner}, nil
}
