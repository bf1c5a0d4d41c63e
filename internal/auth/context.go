// Package auth provides authentication context helpers.
//
// This package is imported by both middleware and handler packages without
// causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey contextKey = "actor"

// Actor is the authenticated caller of a request.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  domain.Role
	Admin bool // Listed in ADMIN_EMAILS
}

// IsCreator reports whether the actor posts jobs and pays for plans.
func (a *Actor) IsCreator() bool {
	return a.Role == domain.RoleCreator
}

// GetActor retrieves the authenticated actor from the context.
//
// Returns nil if no actor is authenticated.
func GetActor(ctx context.Context) *Actor {
	actor, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// GetActorFromRequest is GetActor for a request.
func GetActorFromRequest(r *http.Request) *Actor {
	return GetActor(r.Context())
}

// SetActor stores an actor in the context.
//
// This is called by the authentication middleware after validating a bearer
// token.
func SetActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
