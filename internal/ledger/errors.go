package ledger

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrUnknownKind   = errors.New("unknown transaction type")
)
