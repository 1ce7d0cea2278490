// Package sequencer implements the Sequencer Loop (spec §4.6): a single
// periodic task that builds a block, signs it, and races it out to every
// full node, logging and continuing on any error.
package sequencer

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mojavechain/node/blockbuilder"
	"github.com/mojavechain/node/chain"
	"github.com/mojavechain/node/mempool"
	"github.com/mojavechain/node/rpcclient"
	"github.com/mojavechain/node/signature"
)

// MempoolSource produces a fresh, frozen mempool snapshot for each build
// tick, matching spec §3's "the snapshot is taken once per build."
type MempoolSource interface {
	Snapshot() *mempool.TransactionQueue
}

// Signer is the minimal surface the loop needs from a signing key,
// matching either signature.SigningKeyEd25519 or
// signature.SigningKeySecp256k1 (spec §9's "avoid inheritance" — both
// concrete key types satisfy this without a shared base type).
type Signer interface {
	Sign(digest [32]byte) (signature.Signature, error)
	VerifyingKey() signature.VerifyingKey
}

// Config bundles the loop's single tunable (spec §4.6's "block_time_ms is
// a configuration parameter").
type Config struct {
	BlockTime time.Duration
}

// DefaultConfig matches spec §4.6's stated default of 1000ms.
var DefaultConfig = Config{BlockTime: time.Second}

// Loop is the sequencer's single asynchronous task.
type Loop struct {
	cfg     Config
	builder *blockbuilder.Builder
	heads   chain.HeadReader
	mempool MempoolSource
	client  *rpcclient.Client
	signer  Signer

	// OnBlock, if set, is called with every block successfully built and
	// broadcast, regardless of whether the broadcast itself succeeded.
	// Wired to the RPC server's newHeads pubsub feed by cmd/sequencer; a
	// nil OnBlock (e.g. in tests) is simply never called.
	OnBlock func(*types.Header)
}

// New wires a Loop to its collaborators.
func New(cfg Config, builder *blockbuilder.Builder, heads chain.HeadReader, mp MempoolSource, client *rpcclient.Client, signer Signer) *Loop {
	return &Loop{cfg: cfg, builder: builder, heads: heads, mempool: mp, client: client, signer: signer}
}

// Run executes the loop body on every tick until ctx is cancelled,
// exactly as spec §4.6 describes:
//
//	loop:
//	  result = BlockBuilder.build_block()
//	  if ok: Client.send_broadcast_block(block)
//	  sleep block_time_ms
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.BlockTime)
	defer ticker.Stop()

	for {
		l.tick(ctx)

		select {
		case <-ctx.Done():
			log.Info("sequencer loop stopping")
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	parent := l.heads.CurrentHeader()
	snapshot := l.mempool.Snapshot()

	result, err := l.builder.BuildBlock(ctx, parent, snapshot)
	if err != nil {
		log.Error("sequencer: build failed, continuing", "err", err)
		return
	}

	if err := l.broadcast(ctx, result.Block); err != nil {
		log.Warn("sequencer: broadcast failed, continuing", "number", result.Block.NumberU64(), "err", err)
	}

	if l.OnBlock != nil {
		l.OnBlock(result.Block.Header())
	}
}

// broadcast signs block.header's hash and races the envelope out to every
// configured full-node URL (spec §4.5's "Signing": "before sending a
// broadcast, it signs hash(block.header) and attaches signature +
// verifying key").
func (l *Loop) broadcast(ctx context.Context, block *types.Block) error {
	digest := block.Header().Hash()

	sig, err := l.signer.Sign([32]byte(digest))
	if err != nil {
		return err
	}

	blockJSON, err := chain.EncodeBlockJSON(block)
	if err != nil {
		return err
	}

	verifyingKey := l.signer.VerifyingKey()
	envelope := rpcclient.SignedBlockEnvelope{
		Block:        blockJSON,
		Signature:    sig,
		VerifyingKey: "0x" + hex.EncodeToString(verifyingKey.Bytes),
	}

	_, err = l.client.SendBroadcastBlock(ctx, envelope)
	return err
}
