// Package actor identifies the caller performing an action, threaded
// through the request context so the ledger's trace_id/performed_by
// attribution survives past the HTTP layer that resolved it.
package actor

import (
	"context"
	"fmt"
)

// Actor is the entity performing an action — a human operator identified
// by an upstream authn middleware, or the system itself for background
// reconciliation work.
type Actor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	RoleName  string `json:"role_name,omitempty"`
}

// FullName returns the actor's full name (first + last).
func (a *Actor) FullName() string {
	if a == nil {
		return ""
	}
	return a.FirstName + " " + a.LastName
}

// String returns a string representation of the actor for logging.
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.FullName(), a.Email)
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context, nil if absent.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// MustFromContext retrieves the Actor from the context, panicking if
// absent. Use only where missing actor is a programming error.
func MustFromContext(ctx context.Context) *Actor {
	a := FromContext(ctx)
	if a == nil {
		panic("actor not found in context")
	}
	return a
}

const systemActorID = "00000000-0000-0000-0000-000000000000"

// SystemActor returns the actor that represents the system itself rather
// than a human operator.
func SystemActor() *Actor {
	return &Actor{ID: systemActorID, FirstName: "System", Email: "system@inventorycore.local"}
}

// IsSystem reports whether a represents the system actor.
func (a *Actor) IsSystem() bool {
	if a == nil {
		return true
	}
	return a.ID == systemActorID
}
