package scan

import "errors"

var (
	ErrInvalidRange = errors.New("invalid nonce range")
	ErrInvalidDice  = errors.New("dice count out of range")
	ErrUnknownOp    = errors.New("unknown target op")
)
