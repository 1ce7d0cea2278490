package blockbuilder

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/misc/eip1559"
	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/mojavechain/node/chain"
	rollupparams "github.com/mojavechain/node/params"
	"github.com/mojavechain/node/statediff"
)

// Config bundles the knobs BuildBlock needs beyond the mempool snapshot
// and parent header: the elasticity multiplier, the go-ethereum chain
// config (the external executor/fork schedule), and this system's own
// replay-protection activation height.
type Config struct {
	ChainConfig *params.ChainConfig
	Rollup      *rollupparams.RollupUpgradeConfig
	Elasticity  *big.Int
	Coinbase    common.Address
	VMConfig    vm.Config
}

// Builder constructs blocks against the external storage/executor
// collaborators, holding no mutable state of its own between calls: each
// BuildBlock call owns its own in-progress state machine (Init ->
// HeaderReady -> Filling -> Finalizing -> Stored -> ForkChoiceApplied, per
// spec §4.1).
type Builder struct {
	Config      Config
	Store       chain.Store
	Executor    chain.Executor
	RollupStore chain.RollupStore
	ForkChoice  chain.ForkChoice
	Pool        Evictor
}

// Evictor is the real mempool's permanent-removal surface. The builder
// calls Evict when spec §4.1 steps 5/6 require a transaction to be
// dropped from the pool outright (replay-protected pre-activation,
// nonce-too-low), as distinct from merely skipping it for the current
// build via the frozen snapshot's Pop.
type Evictor interface {
	Evict(hash common.Hash)
}

// NewBuilder wires a Builder to its external collaborators. pool may be
// nil, in which case steps 5/6 still skip the transaction for this build
// but perform no permanent eviction.
func NewBuilder(cfg Config, store chain.Store, executor chain.Executor, rollupStore chain.RollupStore, forkChoice chain.ForkChoice, pool Evictor) *Builder {
	return &Builder{Config: cfg, Store: store, Executor: executor, RollupStore: rollupStore, ForkChoice: forkChoice, Pool: pool}
}

// buildState is the per-call working state threaded through the execution
// loop: the header under construction, the live StateDB, the remaining gas
// pool, accepted transactions/receipts, and the running diff-size
// accumulators of spec §4.1.
type buildState struct {
	header   *types.Header
	state    *state.StateDB
	gasPool  *core.GasPool
	txs      []*types.Transaction
	receipts []*types.Receipt
	diffBook statediff.Book

	accSizeWithoutAccounts uint64
	sizeAccountsDiffs      uint64
}

// prepareHeader computes the next header deterministically from the
// parent header and the wall-clock timestamp, following spec §4.1's
// "Header preparation": gas limit scaled from the parent, EIP-1559 base
// fee, EIP-4844 excess blob gas when the active fork schedules blobs, zero
// prev-randao/beacon-root/nonce/extra-data.
func (b *Builder) prepareHeader(parent *types.Header) (*types.Header, error) {
	now := uint64(time.Now().Unix())
	if parent.Time >= now {
		now = parent.Time + 1
	}

	desiredLimit := parent.GasLimit
	if b.Config.Elasticity != nil {
		desiredLimit = new(big.Int).Mul(new(big.Int).SetUint64(parent.GasLimit), b.Config.Elasticity).Uint64()
	}

	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		Time:       now,
		Coinbase:   b.Config.Coinbase,
		GasLimit:   core.CalcGasLimit(parent.GasLimit, desiredLimit),
		Extra:      nil,
		Difficulty: big.NewInt(0),
		Nonce:      types.BlockNonce{},
		MixDigest:  common.Hash{},
	}

	header.BaseFee = eip1559.CalcBaseFee(b.Config.ChainConfig, parent)

	if b.Config.ChainConfig.IsCancun(header.Number, header.Time) {
		var excess uint64
		if parent.ExcessBlobGas != nil && parent.BlobGasUsed != nil {
			excess = eip4844.CalcExcessBlobGas(b.Config.ChainConfig, parent, header.Time)
		}
		header.ExcessBlobGas = &excess
		used := uint64(0)
		header.BlobGasUsed = &used
		root := common.Hash{}
		header.ParentBeaconRoot = &root
	}

	if b.Config.ChainConfig.IsShanghai(header.Number, header.Time) {
		// Withdrawals are always empty in this system (spec §3); go-ethereum
		// exposes the canonical empty-list root as a package constant rather
		// than requiring every caller to re-derive it via a trie hasher.
		emptyWithdrawals := types.EmptyWithdrawalsHash
		header.WithdrawalsHash = &emptyWithdrawals
	}

	return header, nil
}

func newBuildState(header *types.Header, st *state.StateDB) *buildState {
	return &buildState{
		header:                 header,
		state:                  st,
		gasPool:                new(core.GasPool).AddGas(header.GasLimit),
		diffBook:               statediff.Book{},
		accSizeWithoutAccounts: rollupparams.DiffPreludeSize,
	}
}

func (s *buildState) remainingGas() uint64 { return s.gasPool.Gas() }

func wrapStorageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func logBuildStart(number uint64) {
	log.Debug("block builder starting fill", "number", number)
}
