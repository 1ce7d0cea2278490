package mempool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacyTx(nonce uint64) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		Gas:      21000,
		GasPrice: big.NewInt(1),
		Value:    big.NewInt(0),
	})
}

func blobTx(nonce uint64) *types.Transaction {
	return types.NewTx(&types.BlobTx{
		Nonce: nonce,
		Gas:   21000,
	})
}

func TestBlobTransactionsAreFilteredOut(t *testing.T) {
	addr := common.HexToAddress("0x1")
	q := NewTransactionQueue([]SenderBatch{{Addr: addr, Txs: []*types.Transaction{blobTx(0)}}})
	assert.True(t, q.IsEmpty())
}

func TestPeekReturnsFirstSenderFirstTx(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	q := NewTransactionQueue([]SenderBatch{
		{Addr: a, Txs: []*types.Transaction{legacyTx(0), legacyTx(1)}},
		{Addr: b, Txs: []*types.Transaction{legacyTx(0)}},
	})

	tx, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(0), tx.Nonce())
}

func TestShiftAdvancesWithinSender(t *testing.T) {
	a := common.HexToAddress("0xa")
	q := NewTransactionQueue([]SenderBatch{
		{Addr: a, Txs: []*types.Transaction{legacyTx(0), legacyTx(1)}},
	})

	q.Shift()
	tx, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(1), tx.Nonce())
}

func TestPopSkipsRestOfSender(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	q := NewTransactionQueue([]SenderBatch{
		{Addr: a, Txs: []*types.Transaction{legacyTx(0), legacyTx(1)}},
		{Addr: b, Txs: []*types.Transaction{legacyTx(5)}},
	})

	q.Pop()
	tx, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, 1, len(q.senders))
}

func TestEmptySnapshotPeekReturnsFalse(t *testing.T) {
	q := NewTransactionQueue(nil)
	_, ok := q.Peek()
	assert.False(t, ok)
}
