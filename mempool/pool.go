package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotBlobTx is returned by AddBlobTransaction when given a
// non-blob-carrying transaction.
var ErrNotBlobTx = errors.New("mempool: not a blob transaction")

// Pool is the pending-transaction store this system owns itself (spec
// §3's Mempool, not one of the external collaborators §6 lists). It
// backs every TransactionQueue snapshot handed to the builder and is the
// admission point for rpcserver's eth_sendRawTransaction handler on the
// sequencer.
type Pool struct {
	mu       sync.Mutex
	bySender map[common.Address]map[uint64]*types.Transaction
}

// NewPool builds an empty pool.
func NewPool() *Pool {
	return &Pool{bySender: make(map[common.Address]map[uint64]*types.Transaction)}
}

// AddLocal admits tx, keyed by its sender and nonce; resubmitting the same
// (sender, nonce) replaces the previous transaction, matching standard
// mempool replace-by-nonce semantics.
func (p *Pool) AddLocal(tx *types.Transaction) error {
	return p.add(tx)
}

// AddBlobTransaction admits a blob-carrying transaction through the
// pool's separate path (spec §4.4's "blob-bundle admission for blob
// kinds"); the builder itself never sees these (spec §3: blob-carrying
// transactions are filtered out of every snapshot).
func (p *Pool) AddBlobTransaction(tx *types.Transaction) error {
	if tx.Type() != types.BlobTxType {
		return ErrNotBlobTx
	}
	return p.add(tx)
}

func (p *Pool) add(tx *types.Transaction) error {
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return fmt.Errorf("mempool: recover sender: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bySender[sender] == nil {
		p.bySender[sender] = make(map[uint64]*types.Transaction)
	}
	p.bySender[sender][tx.Nonce()] = tx
	return nil
}

// Evict permanently removes the transaction with the given hash from the
// pool, used by the builder (blockbuilder.Evictor) for the two permanent
// eviction cases of spec §4.1 steps 5/6.
func (p *Pool) Evict(hash common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, byNonce := range p.bySender {
		for nonce, tx := range byNonce {
			if tx.Hash() == hash {
				delete(byNonce, nonce)
				if len(byNonce) == 0 {
					delete(p.bySender, addr)
				}
				return
			}
		}
	}
}

// Snapshot freezes the current pool contents into a TransactionQueue:
// each sender's pending transactions ordered by ascending nonce, senders
// ordered best-tip-first across the whole snapshot (spec §3's "the
// snapshot is taken once per build; pool mutations during a build do not
// affect the current build").
func (p *Pool) Snapshot() *TransactionQueue {
	p.mu.Lock()
	defer p.mu.Unlock()

	batches := make([]SenderBatch, 0, len(p.bySender))
	for addr, byNonce := range p.bySender {
		nonces := make([]uint64, 0, len(byNonce))
		for n := range byNonce {
			nonces = append(nonces, n)
		}
		sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })

		txs := make([]*types.Transaction, len(nonces))
		for i, n := range nonces {
			txs[i] = byNonce[n]
		}
		batches = append(batches, SenderBatch{Addr: addr, Txs: txs})
	}

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].Txs[0].GasTipCap().Cmp(batches[j].Txs[0].GasTipCap()) > 0
	})

	return NewTransactionQueue(batches)
}
