package statediff

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeLatestWinsBalance(t *testing.T) {
	addr := common.HexToAddress("0x1")
	prev := Book{addr: {NewBalance: big.NewInt(10)}}
	tx := Book{addr: {NewBalance: big.NewInt(20)}}

	merged, err := Merge(prev, tx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), merged[addr].NewBalance)
}

func TestMergeNonceDiffAdditive(t *testing.T) {
	addr := common.HexToAddress("0x2")
	prev := Book{addr: {NonceDiff: 2}}
	tx := Book{addr: {NonceDiff: 3}}

	merged, err := Merge(prev, tx)
	require.NoError(t, err)
	assert.Equal(t, uint16(5), merged[addr].NonceDiff)
}

func TestMergeNonceDiffOverflow(t *testing.T) {
	addr := common.HexToAddress("0x3")
	prev := Book{addr: {NonceDiff: 0xFFFE}}
	tx := Book{addr: {NonceDiff: 5}}

	_, err := Merge(prev, tx)
	assert.ErrorIs(t, err, ErrNonceDiffOverflow)
}

func TestMergeStorageUnionOverwritesOnCollision(t *testing.T) {
	addr := common.HexToAddress("0x4")
	slot := common.HexToHash("0xaa")
	other := common.HexToHash("0xbb")
	prev := Book{addr: {Storage: map[common.Hash]common.Hash{
		slot: common.HexToHash("0x1"),
	}}}
	tx := Book{addr: {Storage: map[common.Hash]common.Hash{
		slot:  common.HexToHash("0x2"),
		other: common.HexToHash("0x3"),
	}}}

	merged, err := Merge(prev, tx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x2"), merged[addr].Storage[slot])
	assert.Equal(t, common.HexToHash("0x3"), merged[addr].Storage[other])
}

func TestMergeInsertsUnseenAddressVerbatim(t *testing.T) {
	addr := common.HexToAddress("0x5")
	prev := Book{}
	tx := Book{addr: {NonceDiff: 1}}

	merged, err := Merge(prev, tx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), merged[addr].NonceDiff)
}

func TestMergeDoesNotMutatePrev(t *testing.T) {
	addr := common.HexToAddress("0x6")
	prev := Book{addr: {NonceDiff: 1}}
	tx := Book{addr: {NonceDiff: 1}}

	_, err := Merge(prev, tx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), prev[addr].NonceDiff)
}

func TestEmptyDiffIsOmitted(t *testing.T) {
	d := &AccountDiff{}
	assert.True(t, d.IsEmpty())
	assert.Equal(t, uint64(0), d.EncodedLen())
}
