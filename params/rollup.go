// Package params collects the fixed protocol constants and chain-config
// extensions used by the block builder and the rest of the node.
package params

import "math/big"

const (
	// BaseTxCost is the minimum gas a transaction can possibly consume;
	// the builder stops filling once remaining gas drops below this.
	BaseTxCost uint64 = 21000

	// SafeBytesPerBlob is the byte budget the encoded state-diff blob of a
	// single block must fit within.
	SafeBytesPerBlob uint64 = 126_944

	// DiffHeaderLen is the encoded byte length of the block header section
	// that prefixes every diff blob.
	DiffHeaderLen uint64 = 256

	// DiffPreludeSize is the fixed length of the encoded blob's prelude:
	// one version byte, the encoded block header, and three 16-bit
	// section length fields.
	DiffPreludeSize uint64 = 1 + DiffHeaderLen + 2 + 2 + 2

	// SimpleTxDiffSize is the encoded size of the smallest possible
	// single-account diff (balance + nonce_diff only), used as the
	// lower-bound check before even peeking a candidate transaction: the
	// 20-byte address key, the presence byte, a 32-byte balance, a 2-byte
	// nonce_diff and the 2-byte storage slot count (statediff.EncodedLen).
	SimpleTxDiffSize uint64 = 20 + 1 + 32 + 2 + 2

	// DepositLogLen is the encoded byte length of the synthetic log
	// emitted for a privileged (L1-originated) transaction.
	DepositLogLen uint64 = 64

	// MessageLogLen is the encoded byte length of a single L1-message log
	// emitted by a transaction.
	MessageLogLen uint64 = 96

	// DefaultBlockTimeMillis is the default cadence of the sequencer loop.
	DefaultBlockTimeMillis uint64 = 1000

	// FilterDurationProd and FilterDurationTest bound the sweep interval
	// for stale eth filters: 300s in production, 1s under test.
	FilterDurationProd = 300
	FilterDurationTest = 1

	// BuilderQueueCapacity is a capacity figure for a bounded block-builder
	// command channel. No such channel or full-channel error exists in this
	// module: the sequencer loop calls Builder.BuildBlock directly and
	// nothing reads this constant.
	BuilderQueueCapacity = 100
)

// ElasticityMultiplier scales the gas limit a child block may claim
// relative to its parent, mirroring the EIP-1559 gas-target mechanism.
var ElasticityMultiplier = big.NewInt(2)

// RollupUpgradeConfig extends a chain configuration with the activation
// height of transaction replay protection, the way mantlenetworkio-op-geth's
// MantleUpgradeChainConfig gates its own forks off *uint64 block numbers.
type RollupUpgradeConfig struct {
	ReplayProtectionBlock *uint64
}

// IsReplayProtectionActive reports whether replay protection is active at
// the given block number. A nil activation height means the fork has not
// been scheduled and is therefore never active.
func (c *RollupUpgradeConfig) IsReplayProtectionActive(blockNumber uint64) bool {
	if c == nil || c.ReplayProtectionBlock == nil {
		return false
	}
	return blockNumber >= *c.ReplayProtectionBlock
}

// U64Ptr is a small helper for constructing *uint64 activation heights.
func U64Ptr(v uint64) *uint64 { return &v }
