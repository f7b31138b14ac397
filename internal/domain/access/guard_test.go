package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	current Session
	err     error

	events chan Session

	mu           sync.Mutex
	unsubscribed bool
}

func newFakeSource(current Session, err error) *fakeSource {
	return &fakeSource{current: current, err: err, events: make(chan Session, 8)}
}

func (f *fakeSource) Current(ctx context.Context) (Session, error) {
	return f.current, f.err
}

func (f *fakeSource) Subscribe(ctx context.Context) (<-chan Session, func()) {
	return f.events, func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) wasUnsubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

type lookupResult struct {
	role Role
	err  error
}

// gatedResolver blocks each lookup until the test releases the principal.
type gatedResolver struct {
	mu    sync.Mutex
	gates map[string]chan lookupResult
}

func newGatedResolver(principals ...string) *gatedResolver {
	r := &gatedResolver{gates: map[string]chan lookupResult{}}
	for _, p := range principals {
		r.gates[p] = make(chan lookupResult, 1)
	}
	return r
}

func (r *gatedResolver) ResolveRole(ctx context.Context, principalID string) (Role, error) {
	r.mu.Lock()
	gate := r.gates[principalID]
	r.mu.Unlock()
	select {
	case res := <-gate:
		return res.role, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *gatedResolver) release(principalID string, role Role, err error) {
	r.mu.Lock()
	gate := r.gates[principalID]
	r.mu.Unlock()
	gate <- lookupResult{role: role, err: err}
}

func startGuard(t *testing.T, source SessionSource, resolver RoleResolver) (*Guard, context.CancelFunc, <-chan error) {
	t.Helper()
	g := NewGuard(source, resolver)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()
	t.Cleanup(cancel)
	return g, cancel, done
}

func eventually(t *testing.T, g *Guard, cond func(State) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(g.State()) }, time.Second, 2*time.Millisecond, "last state %+v", g.State())
}

func TestGuardAdmitsResolvedRole(t *testing.T) {
	resolver := newGatedResolver("alice")
	g, _, _ := startGuard(t, newFakeSource(alice, nil), resolver)

	eventually(t, g, func(s State) bool { return s.Phase == PhaseResolvingRole })
	assert.Equal(t, Wait, g.Decide("/admin").Kind)

	resolver.release("alice", RoleAdmin, nil)
	eventually(t, g, func(s State) bool { return s.Admitted(RoleAdmin) })
	assert.Equal(t, Render, g.Decide("/admin/users").Kind)
	assert.Equal(t, PathAdminHome, g.Decide("/").Target)
}

func TestGuardFetchFailureIsUnauthenticated(t *testing.T) {
	g, _, _ := startGuard(t, newFakeSource(Session{}, errors.New("network")), newGatedResolver())
	eventually(t, g, func(s State) bool { return s.Phase == PhaseUnauthenticated })
	assert.Equal(t, PathLogin, g.Decide("/admin").Target)
}

func TestGuardLookupFailureIsDenied(t *testing.T) {
	resolver := newGatedResolver("alice")
	g, _, _ := startGuard(t, newFakeSource(alice, nil), resolver)
	resolver.release("alice", "", errors.New("profile missing"))

	eventually(t, g, func(s State) bool { return s.Phase == PhaseDenied })
	assert.Equal(t, PathLogin, g.Decide("/admin").Target)
}

func TestGuardLaterSessionWinsWhenEarlierLookupFinishesLast(t *testing.T) {
	source := newFakeSource(alice, nil)
	resolver := newGatedResolver("alice", "bob")
	g, _, _ := startGuard(t, source, resolver)

	eventually(t, g, func(s State) bool { return s.Phase == PhaseResolvingRole && s.Session == alice })
	source.events <- bob
	eventually(t, g, func(s State) bool { return s.Phase == PhaseResolvingRole && s.Session == bob })

	resolver.release("bob", RoleEmployee, nil)
	eventually(t, g, func(s State) bool { return s.Admitted(RoleEmployee) })

	resolver.release("alice", RoleAdmin, nil)
	require.Never(t, func() bool { return g.State().Role == RoleAdmin }, 100*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, "bob", g.State().Session.PrincipalID)
}

func TestGuardLaterSessionWinsWhenEarlierLookupFinishesFirst(t *testing.T) {
	source := newFakeSource(alice, nil)
	resolver := newGatedResolver("alice", "bob")
	g, _, _ := startGuard(t, source, resolver)

	eventually(t, g, func(s State) bool { return s.Session == alice })
	source.events <- bob
	eventually(t, g, func(s State) bool { return s.Session == bob })

	resolver.release("alice", RoleAdmin, nil)
	require.Never(t, func() bool { return g.State().Phase != PhaseResolvingRole }, 100*time.Millisecond, 5*time.Millisecond)

	resolver.release("bob", RoleEmployee, nil)
	eventually(t, g, func(s State) bool { return s.Admitted(RoleEmployee) })
}

func TestGuardSignOutWhileLookupInFlight(t *testing.T) {
	source := newFakeSource(alice, nil)
	resolver := newGatedResolver("alice")
	g, _, _ := startGuard(t, source, resolver)

	eventually(t, g, func(s State) bool { return s.Phase == PhaseResolvingRole })
	source.events <- Session{}
	eventually(t, g, func(s State) bool { return s.Phase == PhaseUnauthenticated })

	resolver.release("alice", RoleAdmin, nil)
	require.Never(t, func() bool { return g.State().Phase != PhaseUnauthenticated }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestGuardSignOutAfterAdmission(t *testing.T) {
	source := newFakeSource(alice, nil)
	resolver := newGatedResolver("alice")
	g, _, _ := startGuard(t, source, resolver)
	resolver.release("alice", RoleAdmin, nil)
	eventually(t, g, func(s State) bool { return s.Admitted(RoleAdmin) })

	source.events <- Session{}
	eventually(t, g, func(s State) bool { return s.Phase == PhaseUnauthenticated })
	for _, path := range []string{"/admin", "/admin/users", "/admin/attendance"} {
		assert.Equal(t, PathLogin, g.Decide(path).Target)
	}
}

func TestGuardUpdatesCarryLatestState(t *testing.T) {
	resolver := newGatedResolver("alice")
	g, _, _ := startGuard(t, newFakeSource(alice, nil), resolver)
	resolver.release("alice", RoleEmployee, nil)

	deadline := time.After(time.Second)
	for {
		select {
		case state := <-g.Updates():
			if state.Admitted(RoleEmployee) {
				return
			}
		case <-deadline:
			t.Fatalf("no admitted update, state %+v", g.State())
		}
	}
}

func TestGuardTeardownReleasesSubscription(t *testing.T) {
	source := newFakeSource(Session{}, nil)
	g, cancel, done := startGuard(t, source, newGatedResolver())
	eventually(t, g, func(s State) bool { return s.Phase == PhaseUnauthenticated })

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("guard did not stop")
	}
	assert.True(t, source.wasUnsubscribed())
}

func TestResolve(t *testing.T) {
	admin := RoleResolverFunc(func(ctx context.Context, principalID string) (Role, error) {
		return RoleAdmin, nil
	})
	failing := RoleResolverFunc(func(ctx context.Context, principalID string) (Role, error) {
		return "", errors.New("db down")
	})

	state := Resolve(context.Background(), newFakeSource(alice, nil), admin)
	assert.True(t, state.Admitted(RoleAdmin))

	state = Resolve(context.Background(), newFakeSource(alice, nil), failing)
	assert.Equal(t, PhaseDenied, state.Phase)

	state = Resolve(context.Background(), newFakeSource(Session{}, errors.New("expired")), admin)
	assert.Equal(t, PhaseUnauthenticated, state.Phase)
}
