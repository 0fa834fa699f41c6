package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity describes the authenticated caller of a request. Handlers pass it
// down to services so authorization decisions stay out of the transport layer.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID uuid.UUID
	roles  []string
}

func (i identity) UserID() uuid.UUID { return i.userID }

func (i identity) Roles() []string { return i.roles }

func (i identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i identity) IsAuthenticated() bool { return i.userID != uuid.Nil }

// IdentityFromContext builds an Identity from the gin context keys populated
// by AuthRequired or AuthOptional. Anonymous requests yield an identity with
// IsAuthenticated() == false.
func IdentityFromContext(c *gin.Context) Identity {
	id := identity{}

	if raw, ok := c.Get(ContextUserIDKey); ok {
		if userID, ok := raw.(uuid.UUID); ok {
			id.userID = userID
		}
	}
	if raw, ok := c.Get(ContextRolesKey); ok {
		if roles, ok := raw.([]string); ok {
			id.roles = roles
		}
	}
	return id
}

// NewIdentity constructs an Identity directly. Intended for tests and
// background jobs acting on behalf of a user.
func NewIdentity(userID uuid.UUID, roles ...string) Identity {
	return identity{userID: userID, roles: roles}
}
