package statediff

import "github.com/ethereum/go-ethereum/common"

// perAccountOverhead is the fixed cost of identifying which address an
// encoded AccountDiff belongs to (the 20-byte address key itself).
const perAccountOverhead = common.AddressLength

// EncodedLen returns the length, in bytes, that d would occupy in the
// encoded state-diff blob. An empty diff returns 0 (it contributes
// nothing to the blob), matching spec §3's "an empty diff is legal and is
// omitted."
func (d *AccountDiff) EncodedLen() uint64 {
	if d.IsEmpty() {
		return 0
	}
	var n uint64 = perAccountOverhead
	n += 1 // presence bitmap byte: which optional fields are set
	if d.NewBalance != nil {
		n += 32
	}
	if d.NonceDiff != 0 {
		n += 2
	}
	n += 2 // storage slot count
	n += uint64(len(d.Storage)) * (32 + 32)
	if d.Bytecode != nil {
		n += 4 + uint64(len(d.Bytecode))
	}
	if d.BytecodeHash != nil {
		n += 32
	}
	return n
}

// EncodedLen sums the encoded length of every non-empty account diff in
// the book; this is the quantity the builder compares against
// params.SafeBytesPerBlob at each iteration.
func (b Book) EncodedLen() uint64 {
	var total uint64
	for _, d := range b {
		total += d.EncodedLen()
	}
	return total
}
