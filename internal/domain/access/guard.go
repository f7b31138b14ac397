package access

import (
	"context"
	"log/slog"
	"sync"
)

// Guard holds the state of one long-lived page session. Run is its only
// writer; State, Decide and Updates may be used from any goroutine.
type Guard struct {
	source   SessionSource
	resolver RoleResolver
	logger   *slog.Logger
	observe  func(prev, next State)

	mu      sync.RWMutex
	state   State
	updates chan State
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithObserver registers fn to be called from the run loop after every
// transition.
func WithObserver(fn func(prev, next State)) Option {
	return func(g *Guard) {
		g.observe = fn
	}
}

func NewGuard(source SessionSource, resolver RoleResolver, opts ...Option) *Guard {
	g := &Guard{
		source:   source,
		resolver: resolver,
		logger:   slog.Default(),
		state:    Bootstrapping(),
		updates:  make(chan State, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Guard) Decide(requestPath string) Decision {
	return Decide(g.State(), requestPath)
}

// Updates carries the latest state after each transition. Intermediate states
// are dropped when the reader falls behind.
func (g *Guard) Updates() <-chan State {
	return g.updates
}

// Run subscribes to the session source, performs the one-shot fetch and
// processes events until ctx ends. The subscription is released on return.
func (g *Guard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, unsubscribe := g.source.Subscribe(ctx)
	defer unsubscribe()

	loaded := make(chan SessionLoaded, 1)
	go func() {
		session, err := g.source.Current(ctx)
		loaded <- SessionLoaded{Session: session, Err: err}
	}()

	roles := make(chan RoleResolved)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-loaded:
			loaded = nil
			g.step(ctx, ev, roles)
		case session, ok := <-changes:
			if !ok {
				changes = nil
				g.logger.Debug("session subscription closed")
				continue
			}
			g.step(ctx, SessionChanged{Session: session}, roles)
		case ev := <-roles:
			g.step(ctx, ev, roles)
		}
	}
}

func (g *Guard) step(ctx context.Context, ev Event, roles chan<- RoleResolved) {
	g.mu.Lock()
	prev := g.state
	next, changed := prev.Apply(ev)
	if changed {
		g.state = next
	}
	g.mu.Unlock()

	if !changed {
		if stale, ok := ev.(RoleResolved); ok {
			g.logger.Debug("discarded superseded role lookup", "generation", stale.Generation, "current", prev.generation)
		}
		return
	}

	if g.observe != nil {
		g.observe(prev, next)
	}
	g.publish(next)

	if next.Phase == PhaseResolvingRole && next.generation != prev.generation {
		go g.lookup(ctx, next.generation, next.Session.PrincipalID, roles)
	}
}

func (g *Guard) lookup(ctx context.Context, generation uint64, principalID string, roles chan<- RoleResolved) {
	role, err := g.resolver.ResolveRole(ctx, principalID)
	if err != nil {
		g.logger.Warn("role lookup failed", "principalId", principalID, "err", err)
	}
	select {
	case roles <- RoleResolved{Generation: generation, Role: role, Err: err}:
	case <-ctx.Done():
	}
}

func (g *Guard) publish(state State) {
	select {
	case g.updates <- state:
		return
	default:
	}
	select {
	case <-g.updates:
	default:
	}
	g.updates <- state
}
