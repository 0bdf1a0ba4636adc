// Package scope carries the PROD/DRILL isolation tag through a request's
// context, the way the sibling services carry a tenant ID.
package scope

import (
	"context"
	"errors"
)

// Scope separates operational data from training/simulation data. The two
// are completely isolated: no query, lock, or aggregate ever spans both.
type Scope string

const (
	Prod  Scope = "PROD"
	Drill Scope = "DRILL"
)

// Valid reports whether s is one of the two recognised scopes.
func (s Scope) Valid() bool {
	return s == Prod || s == Drill
}

func (s Scope) String() string {
	return string(s)
}

type contextKey string

const scopeKey contextKey = "scope"

// ErrNoScopeInContext is returned when scope is missing from the context.
var ErrNoScopeInContext = errors.New("no scope in context")

// ErrInvalidScope is returned for any value other than PROD or DRILL.
var ErrInvalidScope = errors.New("invalid scope")

// WithScope attaches a scope to the context. Call this from middleware once
// the caller's scope has been resolved (header, claim, or default).
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext extracts the scope from the context.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeKey).(Scope)
	if !ok || s == "" {
		return "", ErrNoScopeInContext
	}
	if !s.Valid() {
		return "", ErrInvalidScope
	}
	return s, nil
}

// MustFromContext extracts the scope and panics if absent or invalid.
// Use only where missing scope is a programming error (e.g. deep inside a
// primitive that a middleware-wrapped handler always calls into).
func MustFromContext(ctx context.Context) Scope {
	s, err := FromContext(ctx)
	if err != nil {
		panic("scope not found in context: " + err.Error())
	}
	return s
}

// Parse validates a raw string (e.g. an HTTP header value) as a Scope.
func Parse(raw string) (Scope, error) {
	s := Scope(raw)
	if !s.Valid() {
		return "", ErrInvalidScope
	}
	return s, nil
}
