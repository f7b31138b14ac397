package payroll

import "errors"

var (
	ErrNotFound          = errors.New("salary payment not found")
	ErrInvalidTransition = errors.New("payment status change not allowed")
	ErrInvalidPayment    = errors.New("invalid salary payment")
)
