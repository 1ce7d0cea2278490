package mempool

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChainID = big.NewInt(1337)

func mustSignTx(t *testing.T, signer types.Signer, key *ecdsa.PrivateKey, nonce uint64, gasPrice int64) *types.Transaction {
	t.Helper()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		Gas:      21000,
		GasPrice: big.NewInt(gasPrice),
		Value:    big.NewInt(0),
	})
	signed, err := types.SignTx(tx, signer, key)
	require.NoError(t, err)
	return signed
}

func TestPoolAddLocalAndSnapshotOrdersByNonce(t *testing.T) {
	pool := NewPool()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := types.NewEIP155Signer(testChainID)

	tx1 := mustSignTx(t, signer, key, 1, 10)
	tx0 := mustSignTx(t, signer, key, 0, 10)

	require.NoError(t, pool.AddLocal(tx1))
	require.NoError(t, pool.AddLocal(tx0))

	snap := pool.Snapshot()
	first, ok := snap.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(0), first.Nonce())
}

func TestPoolEvictRemovesTransaction(t *testing.T) {
	pool := NewPool()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := types.NewEIP155Signer(testChainID)
	tx := mustSignTx(t, signer, key, 0, 10)

	require.NoError(t, pool.AddLocal(tx))
	pool.Evict(tx.Hash())

	snap := pool.Snapshot()
	assert.True(t, snap.IsEmpty())
}

func TestPoolAddBlobTransactionRejectsNonBlob(t *testing.T) {
	pool := NewPool()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := types.NewEIP155Signer(testChainID)
	tx := mustSignTx(t, signer, key, 0, 10)

	err = pool.AddBlobTransaction(tx)
	assert.ErrorIs(t, err, ErrNotBlobTx)
}

func TestPoolSnapshotOrdersSendersByTip(t *testing.T) {
	pool := NewPool()
	signer := types.NewEIP155Signer(testChainID)

	lowKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	highKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	low := mustSignTx(t, signer, lowKey, 0, 1)
	high := mustSignTx(t, signer, highKey, 0, 100)

	require.NoError(t, pool.AddLocal(low))
	require.NoError(t, pool.AddLocal(high))

	snap := pool.Snapshot()
	best, ok := snap.Peek()
	require.True(t, ok)
	assert.Equal(t, high.Hash(), best.Hash())
}
