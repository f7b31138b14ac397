package access

type Phase int

const (
	PhaseBootstrapping Phase = iota
	PhaseUnauthenticated
	PhaseResolvingRole
	PhaseAdmitted
	PhaseDenied
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseResolvingRole:
		return "resolving_role"
	case PhaseAdmitted:
		return "admitted"
	case PhaseDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// State is the guard's view of one browser. Role is only set while Admitted
// and Session is only set while ResolvingRole, Admitted or Denied.
type State struct {
	Phase   Phase
	Session Session
	Role    Role

	generation uint64
}

func Bootstrapping() State {
	return State{Phase: PhaseBootstrapping}
}

// Generation increases on every session transition. Role lookups carry the
// generation they were started for.
func (s State) Generation() uint64 {
	return s.generation
}

func (s State) Admitted(role Role) bool {
	return s.Phase == PhaseAdmitted && s.Role == role
}

func (s State) Pending() bool {
	return s.Phase == PhaseBootstrapping || s.Phase == PhaseResolvingRole
}

// Event is one input to the guard state machine.
type Event interface {
	isEvent()
}

// SessionLoaded is the outcome of the one-shot session fetch.
type SessionLoaded struct {
	Session Session
	Err     error
}

// SessionChanged is a transition pushed by the session subscription.
type SessionChanged struct {
	Session Session
}

// RoleResolved is the outcome of a role lookup started for Generation.
type RoleResolved struct {
	Generation uint64
	Role       Role
	Err        error
}

func (SessionLoaded) isEvent()  {}
func (SessionChanged) isEvent() {}
func (RoleResolved) isEvent()   {}

// Apply returns the state after ev and whether anything changed. Apply never
// mutates s.
func (s State) Apply(ev Event) (State, bool) {
	switch e := ev.(type) {
	case SessionLoaded:
		// A subscription event already superseded the one-shot fetch.
		if s.Phase != PhaseBootstrapping {
			return s, false
		}
		if e.Err != nil {
			return s.enterSession(Session{}), true
		}
		return s.enterSession(e.Session), true
	case SessionChanged:
		return s.enterSession(e.Session), true
	case RoleResolved:
		if s.Phase != PhaseResolvingRole || e.Generation != s.generation {
			return s, false
		}
		next := s
		if e.Err != nil || !e.Role.Known() {
			next.Phase = PhaseDenied
			next.Role = ""
			return next, true
		}
		next.Phase = PhaseAdmitted
		next.Role = e.Role
		return next, true
	default:
		return s, false
	}
}

func (s State) enterSession(session Session) State {
	next := State{generation: s.generation + 1}
	if !session.Valid() {
		next.Phase = PhaseUnauthenticated
		return next
	}
	next.Phase = PhaseResolvingRole
	next.Session = session
	return next
}
