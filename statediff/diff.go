// Package statediff implements the per-account state-diff record produced
// by the block builder and the merge rules that fold per-transaction diffs
// into the running diff book for a block under construction.
package statediff

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNonceDiffOverflow is returned by Merge when two nonce diffs would sum
// past the uint16 range.
var ErrNonceDiffOverflow = errors.New("statediff: nonce_diff overflow")

// AccountDiff is the per-account record of §3's Account State Diff: an
// optional new balance, an additive nonce delta, a storage-slot map, and
// optional replacement bytecode.
type AccountDiff struct {
	NewBalance   *big.Int
	NonceDiff    uint16
	Storage      map[common.Hash]common.Hash
	Bytecode     []byte
	BytecodeHash *common.Hash
}

// IsEmpty reports whether the diff carries no changes at all; empty diffs
// are omitted from the encoded blob.
func (d *AccountDiff) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.NewBalance == nil && d.NonceDiff == 0 && len(d.Storage) == 0 &&
		d.Bytecode == nil && d.BytecodeHash == nil
}

// Clone returns a deep copy so the builder can try a merge without
// mutating the running diff book until the budget check passes.
func (d *AccountDiff) Clone() *AccountDiff {
	if d == nil {
		return nil
	}
	out := &AccountDiff{NonceDiff: d.NonceDiff}
	if d.NewBalance != nil {
		out.NewBalance = new(big.Int).Set(d.NewBalance)
	}
	if d.Bytecode != nil {
		out.Bytecode = append([]byte(nil), d.Bytecode...)
	}
	if d.BytecodeHash != nil {
		h := *d.BytecodeHash
		out.BytecodeHash = &h
	}
	if len(d.Storage) > 0 {
		out.Storage = make(map[common.Hash]common.Hash, len(d.Storage))
		for k, v := range d.Storage {
			out.Storage[k] = v
		}
	}
	return out
}

// Book is the running per-block diff book: one AccountDiff per touched
// address.
type Book map[common.Address]*AccountDiff

// Clone deep-copies the book so a trial merge can be discarded on undo.
func (b Book) Clone() Book {
	out := make(Book, len(b))
	for addr, d := range b {
		out[addr] = d.Clone()
	}
	return out
}

// Merge folds tx's diffs into prev and returns the result. prev is not
// mutated; the caller decides whether to adopt the result. Implements the
// exact rules of spec §4.1: latest-known-wins balance/bytecode/hash,
// additive nonce_diff with overflow checking, storage union with the
// incoming diff winning on key collision.
func Merge(prev Book, tx Book) (Book, error) {
	out := prev.Clone()
	for addr, d2 := range tx {
		d1, exists := out[addr]
		if !exists || d1 == nil {
			out[addr] = d2.Clone()
			continue
		}
		merged, err := mergeOne(d1, d2)
		if err != nil {
			return nil, err
		}
		out[addr] = merged
	}
	return out, nil
}

func mergeOne(d1, d2 *AccountDiff) (*AccountDiff, error) {
	merged := &AccountDiff{}

	if d2.NewBalance != nil {
		merged.NewBalance = new(big.Int).Set(d2.NewBalance)
	} else if d1.NewBalance != nil {
		merged.NewBalance = new(big.Int).Set(d1.NewBalance)
	}

	sum := uint32(d1.NonceDiff) + uint32(d2.NonceDiff)
	if sum > 0xFFFF {
		return nil, ErrNonceDiffOverflow
	}
	merged.NonceDiff = uint16(sum)

	if len(d1.Storage) > 0 || len(d2.Storage) > 0 {
		merged.Storage = make(map[common.Hash]common.Hash, len(d1.Storage)+len(d2.Storage))
		for k, v := range d1.Storage {
			merged.Storage[k] = v
		}
		for k, v := range d2.Storage {
			merged.Storage[k] = v
		}
	}

	if d2.Bytecode != nil {
		merged.Bytecode = append([]byte(nil), d2.Bytecode...)
	} else if d1.Bytecode != nil {
		merged.Bytecode = append([]byte(nil), d1.Bytecode...)
	}

	if d2.BytecodeHash != nil {
		h := *d2.BytecodeHash
		merged.BytecodeHash = &h
	} else if d1.BytecodeHash != nil {
		h := *d1.BytecodeHash
		merged.BytecodeHash = &h
	}

	return merged, nil
}
