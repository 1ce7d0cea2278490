// Package chain is the thin adapter the rest of this module uses to reach
// the external collaborators spec §1 names: the EVM executor, the storage
// engine, and fork-choice. It defines narrow interfaces rather than
// depending on concrete go-ethereum types everywhere, the way
// miner/worker.go's environment struct narrows state/gas-pool access for
// its own commit loop.
package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
)

// Executor runs transactions against a StateDB, the way
// core.ApplyTransaction does. It has no undo method of its own: the
// builder rolls back the most recently applied transaction itself, by
// reverting a StateDB snapshot and restoring the gas pool (Builder.undo).
type Executor interface {
	// ApplyTransaction executes tx against state/gasPool under header and
	// vmConfig, returning a receipt on success.
	ApplyTransaction(chainConfig *params.ChainConfig, header *types.Header, state *state.StateDB, gasPool *core.GasPool, tx *types.Transaction, vmConfig vm.Config) (*types.Receipt, error)
}

// Store is the storage engine's write surface the builder needs:
// persisting a finalized block plus its receipts, and reading chain state
// needed for header preparation (parent lookup, account nonces).
type Store interface {
	GetHeaderByHash(hash common.Hash) *types.Header
	GetHeaderByNumber(number uint64) *types.Header
	StateAt(root common.Hash) (*state.StateDB, error)
	WriteBlockAndReceipts(block *types.Block, receipts []*types.Receipt) error
	GetNonce(addr common.Address, root common.Hash) (uint64, error)
}

// RollupStore persists the builder's per-block account-update diffs,
// keyed by block number, for later publication as a blob.
type RollupStore interface {
	PutAccountDiffs(blockNumber uint64, encoded []byte) error
}

// ForkChoice advances which block is head/safe/finalized. In this
// single-sequencer system all three always point at the same hash the
// moment a block is applied.
type ForkChoice interface {
	SetHead(hash common.Hash, number uint64) error
}

// HeadReader exposes the current canonical head header, the input the
// sequencer loop needs each tick before calling into the Block Builder.
type HeadReader interface {
	CurrentHeader() *types.Header
}

// ChainConfig exposes the subset of chain configuration the builder and
// header-preparation logic need: the standard go-ethereum chain config
// plus this system's replay-protection activation height.
type ChainConfig struct {
	Eth     *params.ChainConfig
	Rollup  RollupUpgrade
	ChainID *big.Int
}

// RollupUpgrade is satisfied by params.RollupUpgradeConfig; kept as an
// interface here so chain does not need to import params for the concrete
// type.
type RollupUpgrade interface {
	IsReplayProtectionActive(blockNumber uint64) bool
}
