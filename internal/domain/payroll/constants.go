package payroll

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"

	MethodBankTransfer = "bank_transfer"
	MethodCash         = "cash"
	MethodCheck        = "check"
)

var (
	Statuses = []string{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
	Methods  = []string{MethodBankTransfer, MethodCash, MethodCheck}
)

// transitions lists the statuses each status may move to.
var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusPending},
	StatusCompleted:  nil,
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
