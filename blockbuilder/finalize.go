package blockbuilder

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/mojavechain/node/statediff"
)

// finalize implements spec §4.1's "Finalization": compute roots and gas
// used, assemble and validate the block, persist it with its receipts and
// account updates, then advance fork-choice so the new block becomes
// head/safe/finalized.
func (b *Builder) finalize(work *buildState) (*Result, error) {
	work.header.Root = work.state.IntermediateRoot(b.Config.ChainConfig.IsEIP158(work.header.Number))
	work.header.GasUsed = work.header.GasLimit - work.remainingGas()
	work.header.TxHash = types.DeriveSha(types.Transactions(work.txs), trie.NewStackTrie(nil))
	work.header.ReceiptHash = types.DeriveSha(types.Receipts(work.receipts), trie.NewStackTrie(nil))
	work.header.Bloom = types.CreateBloom(work.receipts)

	body := &types.Body{Transactions: work.txs}
	block := types.NewBlock(work.header, body, work.receipts, trie.NewStackTrie(nil))

	if err := b.validateBlock(block); err != nil {
		return nil, wrapChainValidationErr(err)
	}

	if err := b.Store.WriteBlockAndReceipts(block, work.receipts); err != nil {
		return nil, wrapStorageErr(err)
	}

	encoded, err := encodeDiffBook(work.diffBook)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDiff, err)
	}
	if err := b.RollupStore.PutAccountDiffs(block.NumberU64(), encoded); err != nil {
		return nil, wrapStorageErr(err)
	}

	if err := b.ForkChoice.SetHead(block.Hash(), block.NumberU64()); err != nil {
		return nil, wrapStorageErr(err)
	}

	log.Info("built block", "number", block.NumberU64(), "hash", block.Hash(), "txs", len(work.txs), "gasUsed", block.GasUsed())
	return &Result{Block: block, Receipts: work.receipts}, nil
}

// validateBlock performs the one sanity check this node owns itself
// (gas used within the gas limit); full consensus-level
// validation belongs to the external executor/validator and is invoked
// through the Executor collaborator during fillTransactions, not here.
func (b *Builder) validateBlock(block *types.Block) error {
	if block.GasUsed() > block.GasLimit() {
		return fmt.Errorf("gas used %d exceeds gas limit %d", block.GasUsed(), block.GasLimit())
	}
	return nil
}

// diffEntryWire is the JSON encoding of one account's diff, persisted to
// the rollup store keyed by block number. The exact on-wire byte layout
// spec §4.1 describes (a version byte, header length, three 16-bit
// section lengths) is an encoding detail owned by the blob-publishing
// pipeline, out of scope for this node (§1 non-goals); what this node
// owns is sizing the diff correctly for the budget check (statediff's
// EncodedLen) and persisting it keyed by block number.
type diffEntryWire struct {
	NewBalance   string            `json:"new_balance,omitempty"`
	NonceDiff    uint16            `json:"nonce_diff,omitempty"`
	Storage      map[string]string `json:"storage,omitempty"`
	Bytecode     []byte            `json:"bytecode,omitempty"`
	BytecodeHash *common.Hash      `json:"bytecode_hash,omitempty"`
}

func encodeDiffBook(book statediff.Book) ([]byte, error) {
	wire := make(map[string]diffEntryWire, len(book))
	for addr, d := range book {
		if d.IsEmpty() {
			continue
		}
		entry := diffEntryWire{NonceDiff: d.NonceDiff, Bytecode: d.Bytecode, BytecodeHash: d.BytecodeHash}
		if d.NewBalance != nil {
			entry.NewBalance = d.NewBalance.String()
		}
		if len(d.Storage) > 0 {
			entry.Storage = make(map[string]string, len(d.Storage))
			for slot, val := range d.Storage {
				entry.Storage[slot.Hex()] = val.Hex()
			}
		}
		wire[addr.Hex()] = entry
	}
	return json.Marshal(wire)
}
