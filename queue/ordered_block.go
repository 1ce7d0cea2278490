// Package queue implements the Ordered Block Queue: a concurrency-safe,
// unique-key priority queue that merges blocks arriving out of order (race
// broadcast, gap fill) and emits them strictly ascending by block number.
package queue

import "github.com/ethereum/go-ethereum/core/types"

// OrderedBlock wraps a block so that priority ordering is by block number
// ascending: lower number sorts first.
type OrderedBlock struct {
	Block  *types.Block
	Number uint64
}

// NewOrderedBlock wraps block, keying it on its own header number.
func NewOrderedBlock(block *types.Block) OrderedBlock {
	return OrderedBlock{Block: block, Number: block.NumberU64()}
}

// Key returns the admission key: the block number. Duplicates of the same
// key are rejected silently on push.
func (b OrderedBlock) Key() uint64 { return b.Number }
