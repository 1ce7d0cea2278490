package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

// BlockChainAdapter implements Store and ForkChoice directly over a
// go-ethereum *core.BlockChain, the concrete external storage/fork-choice
// engine spec §1 treats as a library.
type BlockChainAdapter struct {
	chain *core.BlockChain
}

// NewBlockChainAdapter wraps an already-initialized go-ethereum
// blockchain instance.
func NewBlockChainAdapter(bc *core.BlockChain) *BlockChainAdapter {
	return &BlockChainAdapter{chain: bc}
}

func (a *BlockChainAdapter) GetHeaderByHash(hash common.Hash) *types.Header {
	return a.chain.GetHeaderByHash(hash)
}

func (a *BlockChainAdapter) GetHeaderByNumber(number uint64) *types.Header {
	return a.chain.GetHeaderByNumber(number)
}

func (a *BlockChainAdapter) CurrentHeader() *types.Header {
	return a.chain.CurrentHeader()
}

func (a *BlockChainAdapter) StateAt(root common.Hash) (*state.StateDB, error) {
	return a.chain.StateAt(root)
}

func (a *BlockChainAdapter) WriteBlockAndReceipts(block *types.Block, receipts []*types.Receipt) error {
	_, err := a.chain.WriteBlockAndSetHead(block, receipts, nil, nil, true)
	if err != nil {
		return fmt.Errorf("chain: write block and receipts: %w", err)
	}
	return nil
}

func (a *BlockChainAdapter) GetNonce(addr common.Address, root common.Hash) (uint64, error) {
	st, err := a.chain.StateAt(root)
	if err != nil {
		return 0, fmt.Errorf("chain: state at root: %w", err)
	}
	return st.GetNonce(addr), nil
}

// SetHead marks hash as the safe and finalized block. The head itself is
// advanced earlier, by WriteBlockAndReceipts (WriteBlockAndSetHead), so
// after both calls head/safe/finalized point at the same block. In this
// single-sequencer system there is no reorg depth to account for.
func (a *BlockChainAdapter) SetHead(hash common.Hash, number uint64) error {
	log.Debug("fork-choice advance", "hash", hash, "number", number)
	a.chain.SetFinalized(a.chain.GetHeaderByHash(hash))
	a.chain.SetSafe(a.chain.GetHeaderByHash(hash))
	return nil
}

// ExecutorAdapter implements Executor directly over go-ethereum's
// core.ApplyTransaction, the EVM execution entry point spec §1 treats as a
// library.
type ExecutorAdapter struct {
	bc *core.BlockChain
}

// NewExecutorAdapter builds an Executor bound to bc's consensus engine
// (needed by core.ApplyTransaction for author/difficulty lookups).
func NewExecutorAdapter(bc *core.BlockChain) *ExecutorAdapter {
	return &ExecutorAdapter{bc: bc}
}

func (e *ExecutorAdapter) ApplyTransaction(chainConfig *params.ChainConfig, header *types.Header, st *state.StateDB, gasPool *core.GasPool, tx *types.Transaction, vmConfig vm.Config) (*types.Receipt, error) {
	usedGas := new(uint64)
	receipt, err := core.ApplyTransaction(chainConfig, e.bc, nil, gasPool, st, header, tx, usedGas, vmConfig)
	if err != nil {
		return nil, fmt.Errorf("chain: apply transaction: %w", err)
	}
	return receipt, nil
}
