package signature

import "errors"

var (
	// ErrUnknownScheme is returned when a Signature or VerifyingKey carries
	// a scheme tag this package does not recognize.
	ErrUnknownScheme = errors.New("signature: unknown scheme")

	// ErrMalformedSignature is returned when the signature byte slice does
	// not match the length expected for its scheme.
	ErrMalformedSignature = errors.New("signature: malformed signature bytes")

	// ErrMalformedKey is returned when a verifying or signing key byte
	// slice does not match the length expected for its scheme.
	ErrMalformedKey = errors.New("signature: malformed key bytes")

	// ErrVerifyFailed is returned by Verify when the signature does not
	// match the digest under the given key; it is distinct from malformed
	// input errors so callers can tell "well-formed but wrong" apart from
	// "garbage on the wire".
	ErrVerifyFailed = errors.New("signature: verification failed")
)
