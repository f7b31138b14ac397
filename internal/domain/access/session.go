package access

import (
	"context"
	"time"
)

// Session is the latest known authentication state of a browser. The zero
// value means no one is signed in.
type Session struct {
	PrincipalID string
	SessionID   string
	ExpiresAt   time.Time
}

func (s Session) Valid() bool {
	return s.PrincipalID != ""
}

// SessionSource is owned by the authentication layer; everything else only
// reads from it.
type SessionSource interface {
	// Current returns the session as of now, or the zero Session when nobody
	// is signed in.
	Current(ctx context.Context) (Session, error)
	// Subscribe delivers every later session transition in order until the
	// returned cancel func is called or ctx ends.
	Subscribe(ctx context.Context) (<-chan Session, func())
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, principalID string) (Role, error)
}

type RoleResolverFunc func(ctx context.Context, principalID string) (Role, error)

func (f RoleResolverFunc) ResolveRole(ctx context.Context, principalID string) (Role, error) {
	return f(ctx, principalID)
}
