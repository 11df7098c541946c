package app

import "github.com/moyeora/server/internal/domain"

// Authorizer gates joinSpace. Whether an identity may enter a space is
// decided upstream (membership, invitation codes, passwords); this is only
// the hook where that decision is consulted.
type Authorizer interface {
	CanJoin(id domain.ConnID, spaceID int) bool
}

// AllowAll admits every connection to every space.
type AllowAll struct{}

func (AllowAll) CanJoin(domain.ConnID, int) bool { return true }
