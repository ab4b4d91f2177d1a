package types

import "errors"

// Ledger errors.
var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrHeaderMismatch = errors.New("ledger header does not match schema")
	ErrArity          = errors.New("record arity does not match header")
	ErrInvalidKey     = errors.New("invalid key")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrNotFound       = errors.New("record not found")
	ErrInvalidSchema  = errors.New("invalid schema")
)

// Pipeline errors.
var (
	ErrRunNotFound   = errors.New("run not found in metadata")
	ErrCutToolFailed = errors.New("cut tool failed")
	ErrTreeNotFound  = errors.New("tree not found")
	ErrDomain        = errors.New("numeric domain error")
	ErrConfigInvalid = errors.New("invalid configuration")
)
