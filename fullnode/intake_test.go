package fullnode

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	written []*types.Block
}

func (s *fakeStore) GetHeaderByHash(common.Hash) *types.Header   { return nil }
func (s *fakeStore) GetHeaderByNumber(uint64) *types.Header      { return nil }
func (s *fakeStore) StateAt(common.Hash) (*state.StateDB, error) { return nil, nil }
func (s *fakeStore) GetNonce(common.Address, common.Hash) (uint64, error) {
	return 0, nil
}
func (s *fakeStore) WriteBlockAndReceipts(block *types.Block, _ []*types.Receipt) error {
	s.written = append(s.written, block)
	return nil
}

type fakeForkChoice struct {
	heads []uint64
}

func (f *fakeForkChoice) SetHead(_ common.Hash, number uint64) error {
	f.heads = append(f.heads, number)
	return nil
}

func newBlockAt(number uint64) *types.Block {
	header := &types.Header{Number: big.NewInt(int64(number))}
	return types.NewBlockWithHeader(header)
}

func TestHandleBroadcastBlockEnqueuesDirectSuccessor(t *testing.T) {
	store := &fakeStore{}
	forkChoice := &fakeForkChoice{}
	intake := NewIntake(store, forkChoice, nil, 0)

	err := intake.HandleBroadcastBlock(context.Background(), newBlockAt(1))
	require.NoError(t, err)

	item, ok := intake.Queue.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(1), item.Number)
	assert.Equal(t, uint64(1), intake.Latest())
}

func TestHandleBroadcastBlockIsIdempotentOnRetransmission(t *testing.T) {
	store := &fakeStore{}
	forkChoice := &fakeForkChoice{}
	intake := NewIntake(store, forkChoice, nil, 0)

	block := newBlockAt(1)
	require.NoError(t, intake.HandleBroadcastBlock(context.Background(), block))
	require.NoError(t, intake.HandleBroadcastBlock(context.Background(), block))

	count := 0
	for {
		if _, ok := intake.Queue.Pop(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, 1, count)
}

func TestApplyOneAdvancesLatestAndForkChoice(t *testing.T) {
	store := &fakeStore{}
	forkChoice := &fakeForkChoice{}
	intake := NewIntake(store, forkChoice, nil, 0)

	block := newBlockAt(5)
	require.NoError(t, intake.applyOne(block))

	assert.Equal(t, uint64(5), intake.Latest())
	assert.Len(t, store.written, 1)
	assert.Equal(t, []uint64{5}, forkChoice.heads)
}

func TestApplyOneInvokesOnApplyHook(t *testing.T) {
	store := &fakeStore{}
	forkChoice := &fakeForkChoice{}
	intake := NewIntake(store, forkChoice, nil, 0)

	var seen *types.Header
	intake.OnApply = func(h *types.Header) { seen = h }

	block := newBlockAt(7)
	require.NoError(t, intake.applyOne(block))

	require.NotNil(t, seen)
	assert.Equal(t, uint64(7), seen.Number.Uint64())
}
