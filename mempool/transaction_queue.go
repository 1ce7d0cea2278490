// Package mempool implements the Mempool Snapshot: a lazy, finite,
// non-restartable view over pending transactions grouped by sender, frozen
// once per block build so that pool mutations during a build never affect
// it.
package mempool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransactionQueue is the builder-facing iterator over a frozen mempool
// snapshot. It exposes exactly the three operations spec §9 allows: Peek,
// Pop (skip the rest of the current sender's transactions), and Shift
// (advance past just the current transaction within its sender). This
// mirrors the teacher's TimedTxSet.Transactions()/Forward() pair, adapted
// into a cursor so the builder cannot accidentally reorder candidates.
type TransactionQueue struct {
	// senders holds, per address, the pending transactions already sorted
	// by ascending nonce; the outer slice is ordered by best-fee-first
	// across senders the way fetchMempoolTransactions groups candidates.
	senders []*senderQueue
}

type senderQueue struct {
	addr common.Address
	txs  []*types.Transaction
	pos  int
}

func (s *senderQueue) current() (*types.Transaction, bool) {
	if s.pos >= len(s.txs) {
		return nil, false
	}
	return s.txs[s.pos], true
}

// SenderBatch is one sender's nonce-ordered pending transactions, as the
// caller's fee-priority ordering across senders requires them to be
// presented: best-fee sender first. A map would silently discard that
// ordering, so callers (Pool.Snapshot in this package) pass an explicit
// priority-ordered slice instead.
type SenderBatch struct {
	Addr common.Address
	Txs  []*types.Transaction
}

// NewTransactionQueue builds a snapshot from a priority-ordered list of
// per-sender pending transaction batches, after filtering out
// blob-carrying transactions as spec §3 requires ("the builder rejects
// blob-carrying transactions").
func NewTransactionQueue(bySender []SenderBatch) *TransactionQueue {
	q := &TransactionQueue{}
	for _, batch := range bySender {
		filtered := make([]*types.Transaction, 0, len(batch.Txs))
		for _, tx := range batch.Txs {
			if tx.Type() == types.BlobTxType {
				continue
			}
			filtered = append(filtered, tx)
		}
		if len(filtered) == 0 {
			continue
		}
		q.senders = append(q.senders, &senderQueue{addr: batch.Addr, txs: filtered})
	}
	return q
}

// Peek returns the current best candidate transaction without advancing
// the cursor, or false if the snapshot is exhausted.
func (q *TransactionQueue) Peek() (*types.Transaction, bool) {
	for _, s := range q.senders {
		if tx, ok := s.current(); ok {
			return tx, true
		}
	}
	return nil, false
}

// Pop skips the rest of the current best sender's transactions for this
// build: used when that sender's head transaction cannot be included
// (insufficient gas, replay protection, nonce too low, executor error).
func (q *TransactionQueue) Pop() {
	for i, s := range q.senders {
		if _, ok := s.current(); ok {
			q.senders = append(q.senders[:i], q.senders[i+1:]...)
			return
		}
	}
}

// Shift advances past exactly the current transaction within its sender,
// used once a transaction has been accepted into the block: the sender's
// next-nonce transaction becomes the new candidate for that sender.
func (q *TransactionQueue) Shift() {
	for _, s := range q.senders {
		if _, ok := s.current(); ok {
			s.pos++
			return
		}
	}
}

// IsEmpty reports whether every sender's transactions have been consumed.
func (q *TransactionQueue) IsEmpty() bool {
	_, ok := q.Peek()
	return !ok
}
