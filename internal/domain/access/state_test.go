package access

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Session{PrincipalID: "alice", SessionID: "s-alice"}
	bob   = Session{PrincipalID: "bob", SessionID: "s-bob"}
)

func TestApplyBootstrapTransitions(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  Phase
	}{
		{name: "no session", event: SessionLoaded{}, want: PhaseUnauthenticated},
		{name: "fetch failure fails closed", event: SessionLoaded{Err: errors.New("provider down")}, want: PhaseUnauthenticated},
		{name: "session present", event: SessionLoaded{Session: alice}, want: PhaseResolvingRole},
		{name: "sign in event first", event: SessionChanged{Session: alice}, want: PhaseResolvingRole},
		{name: "sign out event first", event: SessionChanged{}, want: PhaseUnauthenticated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, changed := Bootstrapping().Apply(tc.event)
			require.True(t, changed)
			assert.Equal(t, tc.want, next.Phase)
		})
	}
}

func TestApplyRoleOutcomes(t *testing.T) {
	resolving, _ := Bootstrapping().Apply(SessionLoaded{Session: alice})
	gen := resolving.Generation()

	admitted, changed := resolving.Apply(RoleResolved{Generation: gen, Role: RoleAdmin})
	require.True(t, changed)
	assert.True(t, admitted.Admitted(RoleAdmin))
	assert.Equal(t, alice, admitted.Session)

	denied, _ := resolving.Apply(RoleResolved{Generation: gen, Err: errors.New("no rows")})
	assert.Equal(t, PhaseDenied, denied.Phase)
	assert.Empty(t, denied.Role)

	supervisor, _ := resolving.Apply(RoleResolved{Generation: gen, Role: RoleSupervisor})
	assert.Equal(t, PhaseDenied, supervisor.Phase)

	garbage, _ := resolving.Apply(RoleResolved{Generation: gen, Role: Role("root")})
	assert.Equal(t, PhaseDenied, garbage.Phase)
}

func TestApplyDiscardsSupersededLookup(t *testing.T) {
	state, _ := Bootstrapping().Apply(SessionLoaded{Session: alice})
	aliceGen := state.Generation()
	state, _ = state.Apply(SessionChanged{Session: bob})
	bobGen := state.Generation()
	require.NotEqual(t, aliceGen, bobGen)

	next, changed := state.Apply(RoleResolved{Generation: aliceGen, Role: RoleAdmin})
	assert.False(t, changed)
	assert.Equal(t, state, next)

	next, changed = state.Apply(RoleResolved{Generation: bobGen, Role: RoleEmployee})
	require.True(t, changed)
	assert.True(t, next.Admitted(RoleEmployee))
	assert.Equal(t, "bob", next.Session.PrincipalID)
}

func TestApplyLateOneShotFetchIgnored(t *testing.T) {
	state, _ := Bootstrapping().Apply(SessionChanged{Session: bob})
	next, changed := state.Apply(SessionLoaded{Session: alice})
	assert.False(t, changed)
	assert.Equal(t, "bob", next.Session.PrincipalID)
}

func TestApplySignOutFromAnyState(t *testing.T) {
	resolving, _ := Bootstrapping().Apply(SessionLoaded{Session: alice})
	admitted, _ := resolving.Apply(RoleResolved{Generation: resolving.Generation(), Role: RoleAdmin})
	denied, _ := resolving.Apply(RoleResolved{Generation: resolving.Generation(), Err: errors.New("boom")})

	for _, from := range []State{Bootstrapping(), resolving, admitted, denied} {
		next, changed := from.Apply(SessionChanged{})
		require.True(t, changed)
		assert.Equal(t, PhaseUnauthenticated, next.Phase, "from %s", from.Phase)
		assert.False(t, next.Session.Valid())
	}
}

// Admitted must only ever reflect a successful lookup for the most recent
// session, whatever order events arrive in.
func TestApplyRandomSequencesNeverAdmitStaleRole(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sessions := []Session{{}, alice, bob}
	roles := []Role{RoleAdmin, RoleEmployee, RoleSupervisor, ""}

	for run := 0; run < 500; run++ {
		state := Bootstrapping()
		var current Session
		goodLookups := map[uint64]map[Role]bool{}
		issued := []uint64{}

		for step := 0; step < 30; step++ {
			var ev Event
			switch rng.Intn(3) {
			case 0:
				ev = SessionLoaded{Session: sessions[rng.Intn(len(sessions))]}
			case 1:
				ev = SessionChanged{Session: sessions[rng.Intn(len(sessions))]}
			default:
				if len(issued) == 0 {
					continue
				}
				gen := issued[rng.Intn(len(issued))]
				role := roles[rng.Intn(len(roles))]
				var err error
				if rng.Intn(4) == 0 {
					err = errors.New("lookup failed")
				}
				ev = RoleResolved{Generation: gen, Role: role, Err: err}
				if err == nil && role.Known() {
					if goodLookups[gen] == nil {
						goodLookups[gen] = map[Role]bool{}
					}
					goodLookups[gen][role] = true
				}
			}

			next, changed := state.Apply(ev)
			if changed && next.Generation() != state.Generation() {
				current = next.Session
				issued = append(issued, next.Generation())
			}
			state = next

			if state.Phase == PhaseAdmitted {
				require.True(t, goodLookups[state.Generation()][state.Role], "admitted without successful lookup for generation %d", state.Generation())
				require.Equal(t, current, state.Session)
			}
			if !state.Session.Valid() {
				require.NotEqual(t, PhaseAdmitted, state.Phase)
			}
		}
	}
}
