package signature

import (
	"crypto/ecdsa"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SigningKeySecp256k1 wraps a secp256k1 private key and signs raw 32-byte
// digests using go-ethereum/crypto, the same secp256k1 stack the teacher
// uses throughout its consensus and transaction-signing code paths. Unlike
// the original Rust implementation, which hashes a bincode-serialized
// message with SHA-256 before signing, the digest here is always exactly
// hash(block.header) as required by spec, so there is never a generic
// message needing a separate serialization step.
type SigningKeySecp256k1 struct {
	priv *ecdsa.PrivateKey
}

// NewSigningKeySecp256k1 loads a signing key from its raw 32-byte scalar.
func NewSigningKeySecp256k1(raw []byte) (*SigningKeySecp256k1, error) {
	priv, err := gethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, ErrMalformedKey
	}
	return &SigningKeySecp256k1{priv: priv}, nil
}

// Sign produces a Secp256k1-tagged Signature over digest. The trailing
// recovery byte is dropped: verification here only ever checks against an
// explicitly carried verifying key, never recovers one.
func (k *SigningKeySecp256k1) Sign(digest [32]byte) (Signature, error) {
	sig, err := gethcrypto.Sign(digest[:], k.priv)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Bytes: sig[:64], Scheme: Secp256k1}, nil
}

// VerifyingKey returns the public counterpart as a tagged VerifyingKey,
// using the uncompressed (65-byte) encoding go-ethereum/crypto produces.
func (k *SigningKeySecp256k1) VerifyingKey() VerifyingKey {
	return VerifyingKey{Bytes: gethcrypto.FromECDSAPub(&k.priv.PublicKey), Scheme: Secp256k1}
}

// Address derives the go-ethereum-style 20-byte address for a secp256k1
// verifying key: Keccak256 of the uncompressed public key, minus the
// leading format byte, last 20 bytes. Grounded on the original Rust
// VerifyingKey::to_address convention; useful for attributing a produced
// block to its signer in logs.
func (key VerifyingKey) Address() (gethcommon.Address, error) {
	if key.Scheme != Secp256k1 {
		return gethcommon.Address{}, ErrUnknownScheme
	}
	pub, err := gethcrypto.UnmarshalPubkey(key.Bytes)
	if err != nil {
		return gethcommon.Address{}, ErrMalformedKey
	}
	return gethcrypto.PubkeyToAddress(*pub), nil
}

func verifySecp256k1(keyBytes []byte, digest [32]byte, sigBytes []byte) error {
	if len(sigBytes) != 64 {
		return ErrMalformedSignature
	}
	pub, err := gethcrypto.UnmarshalPubkey(keyBytes)
	if err != nil {
		return ErrMalformedKey
	}
	if !gethcrypto.VerifySignature(gethcrypto.FromECDSAPub(pub), digest[:], sigBytes) {
		return ErrVerifyFailed
	}
	return nil
}
