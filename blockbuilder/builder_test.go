package blockbuilder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
)

func TestIsPrivilegedDepositType(t *testing.T) {
	tx := types.NewTx(&types.DepositTx{})
	assert.True(t, isPrivileged(tx))
}

func TestIsPrivilegedLegacyIsFalse(t *testing.T) {
	tx := types.NewTx(&types.LegacyTx{})
	assert.False(t, isPrivileged(tx))
}

func TestTouchedAddressesIncludesSenderAndRecipient(t *testing.T) {
	sender := common.HexToAddress("0x1")
	to := common.HexToAddress("0x2")
	tx := types.NewTx(&types.LegacyTx{To: &to})

	addrs := touchedAddresses(sender, tx)
	assert.Contains(t, addrs, sender)
	assert.Contains(t, addrs, to)
}

func TestDiffFromSnapshotsOmitsUnchangedAccounts(t *testing.T) {
	addr := common.HexToAddress("0x3")
	same := accountSnapshot{nonce: 1}
	pre := map[common.Address]accountSnapshot{addr: same}
	post := map[common.Address]accountSnapshot{addr: same}

	book := diffFromSnapshots([]common.Address{addr}, pre, post, newStorageWrites())
	_, present := book[addr]
	assert.False(t, present)
}

func TestDiffFromSnapshotsCapturesNonceIncrease(t *testing.T) {
	addr := common.HexToAddress("0x4")
	pre := map[common.Address]accountSnapshot{addr: {nonce: 1}}
	post := map[common.Address]accountSnapshot{addr: {nonce: 2}}

	book := diffFromSnapshots([]common.Address{addr}, pre, post, newStorageWrites())
	assert.Equal(t, uint16(1), book[addr].NonceDiff)
}

func TestDiffFromSnapshotsCapturesStorageWrite(t *testing.T) {
	addr := common.HexToAddress("0x5")
	slot := common.HexToHash("0x1")
	oldVal := common.HexToHash("0x0")
	newVal := common.HexToHash("0x2a")

	writes := newStorageWrites()
	writes.record(addr, slot, oldVal, newVal)

	pre := map[common.Address]accountSnapshot{}
	post := map[common.Address]accountSnapshot{}

	book := diffFromSnapshots([]common.Address{addr}, pre, post, writes)
	assert.Equal(t, newVal, book[addr].Storage[slot])
}

func TestDiffFromSnapshotsOmitsStorageRoundTrip(t *testing.T) {
	addr := common.HexToAddress("0x6")
	slot := common.HexToHash("0x1")
	val := common.HexToHash("0x2a")

	writes := newStorageWrites()
	writes.record(addr, slot, val, common.HexToHash("0x99"))
	writes.record(addr, slot, common.HexToHash("0x99"), val)

	pre := map[common.Address]accountSnapshot{}
	post := map[common.Address]accountSnapshot{}

	book := diffFromSnapshots([]common.Address{addr}, pre, post, writes)
	_, present := book[addr]
	assert.False(t, present)
}

func TestUnionAddrsDeduplicates(t *testing.T) {
	a := common.HexToAddress("0x1")
	b := common.HexToAddress("0x2")

	out := unionAddrs([]common.Address{a}, []common.Address{a, b})
	assert.ElementsMatch(t, []common.Address{a, b}, out)
}
