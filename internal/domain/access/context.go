package access

import "context"

type ctxKey struct{}

func WithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, ctxKey{}, state)
}

// StateFromContext returns the guard state stored for the current request.
// Without one it reports Unauthenticated so callers fail closed.
func StateFromContext(ctx context.Context) State {
	if state, ok := ctx.Value(ctxKey{}).(State); ok {
		return state
	}
	return State{Phase: PhaseUnauthenticated}
}

// PrincipalID returns the signed in principal when the request was admitted.
func PrincipalID(ctx context.Context) (string, bool) {
	state := StateFromContext(ctx)
	if state.Phase != PhaseAdmitted {
		return "", false
	}
	return state.Session.PrincipalID, true
}
