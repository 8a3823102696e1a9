package records

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotFound              = errors.New("record not found")
	ErrForbidden             = errors.New("not allowed")
	ErrNotConfirmed          = errors.New("confirmation required")
	ErrUserExists            = errors.New("username already taken")
	ErrProtectedUser         = errors.New("the bootstrap administrator cannot be deleted")
	ErrInvalidRank           = errors.New("unknown rank")
	ErrInvalidTimestamp      = errors.New("invalid timestamp")
	ErrNegativeDuration      = errors.New("shift end is before its start")
	ErrNegativeTicket        = errors.New("ticket must not be negative")
	ErrUnknownCalculatorItem = errors.New("unknown calculator item")
	ErrEmptyQuote            = errors.New("no calculator items selected")
	ErrInvalidPost           = errors.New("post title and content are required")
)
