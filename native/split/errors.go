package split

import "errors"

var (
	ErrInvalidPool    = errors.New("split: invalid pool")
	ErrUnauthorized   = errors.New("split: unauthorized")
	ErrDuplicatePayee = errors.New("split: duplicate payee")
	ErrUnknownPayee   = errors.New("split: unknown payee")
	ErrZeroAddress    = errors.New("split: zero address")
	ErrZeroShare      = errors.New("split: share must be positive")
	ErrInvalidAmount  = errors.New("split: amount must be non-negative")
	ErrTransferFailed = errors.New("split: transfer failed")
	ErrRoyaltyPercent = errors.New("split: royalty percent out of range")
	ErrShapeMismatch  = errors.New("split: payees and shares length mismatch")
)
