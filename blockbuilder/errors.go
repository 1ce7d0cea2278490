package blockbuilder

import "errors"

// Sentinel errors matching the taxonomy of spec §4.1/§7: storage,
// chain-validation, overflow, system-time, and malformed-diff failures
// each fail the whole build. There is no executor sentinel: per-tx
// executor errors are handled locally and never reach the caller.
var (
	ErrStorage         = errors.New("blockbuilder: storage error")
	ErrChainValidation = errors.New("blockbuilder: chain validation failed")
	ErrOverflow        = errors.New("blockbuilder: overflow")
	ErrSystemTime      = errors.New("blockbuilder: system time error")
	ErrMalformedDiff   = errors.New("blockbuilder: malformed diff")
)
