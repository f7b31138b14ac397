package access

type DecisionKind int

const (
	// Wait renders the neutral loading placeholder.
	Wait DecisionKind = iota
	Render
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "wait"
	}
}

type Decision struct {
	Kind   DecisionKind
	Tree   Tree
	Target string
}

func render(tree Tree) Decision {
	return Decision{Kind: Render, Tree: tree}
}

func redirect(tree Tree, target string) Decision {
	return Decision{Kind: Redirect, Tree: tree, Target: target}
}

// Decide is the admission function. Every path outside the admitted set of a
// settled state yields a redirect.
func Decide(state State, requestPath string) Decision {
	tree := Classify(requestPath)
	switch state.Phase {
	case PhaseBootstrapping, PhaseResolvingRole:
		return Decision{Kind: Wait, Tree: tree}
	case PhaseAdmitted:
		switch {
		case state.Role == RoleAdmin && tree == TreeAdmin:
			return render(tree)
		case state.Role == RoleEmployee && tree == TreeEmployee:
			return render(tree)
		case state.Role.Known():
			return redirect(tree, state.Role.Home())
		}
		// Admitted with a role outside the closed set cannot be built through
		// Apply; treat it like Denied anyway.
		fallthrough
	default:
		if tree == TreePublic {
			return render(tree)
		}
		return redirect(tree, PathLogin)
	}
}
