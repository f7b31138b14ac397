package profiles

import (
	"context"
	"fmt"
	"time"

	"absensi/internal/domain/access"
)

type roleReader interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// Resolver answers which role a principal holds. Every failure, including a
// stored value outside the known roles, comes back as an error.
type Resolver struct {
	reader  roleReader
	timeout time.Duration
	observe func(error)
}

var _ access.RoleResolver = (*Resolver)(nil)

func NewResolver(reader roleReader, timeout time.Duration, observe func(error)) *Resolver {
	if observe == nil {
		observe = func(error) {}
	}
	return &Resolver{reader: reader, timeout: timeout, observe: observe}
}

func (r *Resolver) ResolveRole(ctx context.Context, principalID string) (access.Role, error) {
	role, err := r.resolve(ctx, principalID)
	r.observe(err)
	return role, err
}

func (r *Resolver) resolve(ctx context.Context, principalID string) (access.Role, error) {
	if principalID == "" {
		return "", fmt.Errorf("resolve role: empty principal")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	raw, err := r.reader.RoleOf(ctx, principalID)
	if err != nil {
		return "", fmt.Errorf("resolve role: %w", err)
	}
	return access.ParseRole(raw)
}
