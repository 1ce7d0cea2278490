package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestFor(b byte) [32]byte {
	var d [32]byte
	for i := range d {
		d[i] = b
	}
	return d
}

func TestEd25519SignVerify(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7
	key, err := NewSigningKeyEd25519(seed)
	require.NoError(t, err)

	digest := digestFor(1)
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	assert.Equal(t, Ed25519, sig.Scheme)

	err = Verify(key.VerifyingKey(), digest, sig)
	assert.NoError(t, err)
}

func TestEd25519VerifyFailsOnWrongDigest(t *testing.T) {
	seed := make([]byte, 32)
	key, err := NewSigningKeyEd25519(seed)
	require.NoError(t, err)

	sig, err := key.Sign(digestFor(1))
	require.NoError(t, err)

	err = Verify(key.VerifyingKey(), digestFor(2), sig)
	assert.ErrorIs(t, err, ErrVerifyFailed)
}

func TestSecp256k1SignVerify(t *testing.T) {
	raw := make([]byte, 32)
	raw[31] = 1
	key, err := NewSigningKeySecp256k1(raw)
	require.NoError(t, err)

	digest := digestFor(3)
	sig, err := key.Sign(digest)
	require.NoError(t, err)
	assert.Equal(t, Secp256k1, sig.Scheme)

	err = Verify(key.VerifyingKey(), digest, sig)
	assert.NoError(t, err)

	addr, err := key.VerifyingKey().Address()
	require.NoError(t, err)
	assert.NotEqual(t, [20]byte{}, addr)
}

func TestVerifySchemeMismatch(t *testing.T) {
	seed := make([]byte, 32)
	key, err := NewSigningKeyEd25519(seed)
	require.NoError(t, err)
	sig, err := key.Sign(digestFor(1))
	require.NoError(t, err)

	mismatched := key.VerifyingKey()
	mismatched.Scheme = Secp256k1

	err = Verify(mismatched, digestFor(1), sig)
	assert.ErrorIs(t, err, ErrUnknownScheme)
}
