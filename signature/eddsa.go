package signature

import "crypto/ed25519"

// SigningKeyEd25519 wraps an Ed25519 private key and signs raw 32-byte
// digests directly, with no pre-hash step, since digest is always already
// the 32-byte block-header hash.
type SigningKeyEd25519 struct {
	priv ed25519.PrivateKey
}

// NewSigningKeyEd25519 loads a signing key from its 32-byte or 64-byte
// seed/expanded form, matching ed25519.PrivateKey's native length.
func NewSigningKeyEd25519(raw []byte) (*SigningKeyEd25519, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return &SigningKeyEd25519{priv: ed25519.NewKeyFromSeed(raw)}, nil
	case ed25519.PrivateKeySize:
		return &SigningKeyEd25519{priv: append(ed25519.PrivateKey(nil), raw...)}, nil
	default:
		return nil, ErrMalformedKey
	}
}

// Sign produces an Ed25519-tagged Signature over digest.
func (k *SigningKeyEd25519) Sign(digest [32]byte) (Signature, error) {
	return Signature{Bytes: ed25519.Sign(k.priv, digest[:]), Scheme: Ed25519}, nil
}

// VerifyingKey returns the public counterpart as a tagged VerifyingKey.
func (k *SigningKeyEd25519) VerifyingKey() VerifyingKey {
	pub := k.priv.Public().(ed25519.PublicKey)
	return VerifyingKey{Bytes: []byte(pub), Scheme: Ed25519}
}

func verifyEd25519(keyBytes []byte, digest [32]byte, sigBytes []byte) error {
	if len(keyBytes) != ed25519.PublicKeySize {
		return ErrMalformedKey
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return ErrMalformedSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(keyBytes), digest[:], sigBytes) {
		return ErrVerifyFailed
	}
	return nil
}
