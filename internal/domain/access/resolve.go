package access

import "context"

// Resolve runs the state machine to a settled state for a single request:
// fetch the session once, then look up the role of whoever it belongs to.
func Resolve(ctx context.Context, source SessionSource, resolver RoleResolver) State {
	state := Bootstrapping()
	session, err := source.Current(ctx)
	state, _ = state.Apply(SessionLoaded{Session: session, Err: err})
	if state.Phase != PhaseResolvingRole {
		return state
	}
	role, err := resolver.ResolveRole(ctx, state.Session.PrincipalID)
	state, _ = state.Apply(RoleResolved{Generation: state.Generation(), Role: role, Err: err})
	return state
}
