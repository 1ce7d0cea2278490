// Package signature implements the tagged-variant signature primitive used
// to authenticate sequencer-produced blocks: a single Signature type that
// carries its scheme alongside its bytes, with dispatch by a switch on the
// scheme at every verify site rather than through an interface hierarchy.
package signature

// Scheme identifies which signature algorithm a Signature or VerifyingKey
// was produced under.
type Scheme uint8

const (
	Ed25519 Scheme = iota
	Secp256k1
)

// String implements fmt.Stringer for logging.
func (s Scheme) String() string {
	switch s {
	case Ed25519:
		return "Ed25519"
	case Secp256k1:
		return "Secp256k1"
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes the scheme the way the wire schema in §6 expects:
// the bare string "Ed25519" or "Secp256k1".
func (s Scheme) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the wire string form back into a Scheme.
func (s *Scheme) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Ed25519"`:
		*s = Ed25519
	case `"Secp256k1"`:
		*s = Secp256k1
	default:
		return ErrUnknownScheme
	}
	return nil
}

// Signature is the tagged-variant envelope: raw signature bytes plus the
// scheme that produced them.
type Signature struct {
	Bytes  []byte `json:"bytes"`
	Scheme Scheme `json:"scheme"`
}

// VerifyingKey is the tagged-variant public key companion to Signature.
type VerifyingKey struct {
	Bytes  []byte `json:"-"`
	Scheme Scheme `json:"-"`
}

// Verify checks sig over digest using key, dispatching on key.Scheme. It
// returns ErrUnknownScheme, ErrMalformedKey/ErrMalformedSignature, or
// ErrVerifyFailed; a nil error means the signature is valid.
func Verify(key VerifyingKey, digest [32]byte, sig Signature) error {
	if key.Scheme != sig.Scheme {
		return ErrUnknownScheme
	}
	switch sig.Scheme {
	case Ed25519:
		return verifyEd25519(key.Bytes, digest, sig.Bytes)
	case Secp256k1:
		return verifySecp256k1(key.Bytes, digest, sig.Bytes)
	default:
		return ErrUnknownScheme
	}
}
