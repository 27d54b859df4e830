package engine

import "errors"

// Engine error kinds. Every rejected operation rolls back its transaction
// and surfaces exactly one of these; callers may retry with corrected input,
// the engine itself never retries.
var (
	ErrUnauthorized      = errors.New("caller lacks the required role")
	ErrInvalidState      = errors.New("operation not valid in the current project state")
	ErrInvalidSchedule   = errors.New("milestone schedule is empty or does not sum to the total")
	ErrInvalidDeadline   = errors.New("deadline must be strictly in the future")
	ErrInvalidIndex      = errors.New("index out of range")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAlreadyPaid       = errors.New("milestone already paid")
	ErrAlreadyResolved   = errors.New("dispute already resolved")
	ErrDuplicateVote     = errors.New("caller already voted on this dispute")
	ErrDuplicateBid      = errors.New("caller already has a bid on this project")
	ErrInsufficientFunds = errors.New("escrow balance below milestone amount")
	ErrNotFound          = errors.New("record not found")
)

// result maps an operation error to a stable metrics label.
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidSchedule):
		return "invalid_schedule"
	case errors.Is(err, ErrInvalidDeadline):
		return "invalid_deadline"
	case errors.Is(err, ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, ErrDuplicateBid):
		return "duplicate_bid"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
