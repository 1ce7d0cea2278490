// Package devchain constructs the minimal in-memory blockchain the cmd
// entrypoints need to exercise the rest of this module. Genesis file
// loading, data-directory resolution, and consensus-engine selection are
// explicit spec.md §1 Non-goals; this exists only to give the wiring a
// real *core.BlockChain to point at, the same way the teacher's own
// miner/worker_test.go bootstraps a throwaway chain rather than loading
// one from disk.
package devchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus/ethash"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
)

// New builds an in-memory chain seeded with a single coinbase allocation,
// running params.AllEthashProtocolChanges under a fake ethash engine. That
// config schedules no Shanghai or Cancun fork, so the builder's
// Shanghai/Cancun-gated header fields (withdrawals root, blob gas, parent
// beacon root) stay unset on this chain.
func New(coinbase common.Address) (*core.BlockChain, error) {
	db := rawdb.NewMemoryDatabase()
	genesis := &core.Genesis{
		Config:   params.AllEthashProtocolChanges,
		GasLimit: 30_000_000,
		Alloc: core.GenesisAlloc{
			coinbase: {Balance: new(big.Int).SetUint64(1_000_000_000_000_000_000)},
		},
	}
	engine := ethash.NewFaker()
	return core.NewBlockChain(db, nil, genesis, nil, engine, vm.Config{}, nil)
}
