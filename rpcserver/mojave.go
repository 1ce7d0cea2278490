package rpcserver

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mojavechain/node/chain"
	"github.com/mojavechain/node/signature"
)

// BlockIntake is the full node's admission surface for a verified
// broadcast block: gap-fill any missing intermediate numbers, then enqueue
// both the back-filled blocks and the new one onto the Ordered Block
// Queue (spec §4.4's mojave_sendBroadcastBlock steps b/c). Implemented by
// fullnode.Intake.
type BlockIntake interface {
	HandleBroadcastBlock(ctx context.Context, block *types.Block) error
}

// RegisterMojaveFullNodeHandlers binds the full-node-only mojave_*
// method: mojave_sendBroadcastBlock.
func RegisterMojaveFullNodeHandlers(r *Router, intake BlockIntake) {
	r.Register("mojave_sendBroadcastBlock", func(ctx context.Context, params json.RawMessage) (json.RawMessage, *rpcError) {
		obj, perr := decodeSingleObjectParam(params)
		if perr != nil {
			return nil, perr
		}

		var envelope SignedBlockEnvelope
		if err := json.Unmarshal(obj, &envelope); err != nil {
			return nil, newBadParams("malformed SignedBlock: " + err.Error())
		}

		block, err := chain.DecodeBlockJSON(envelope.Block)
		if err != nil {
			return nil, newInternalError(err.Error())
		}

		keyBytes, err := hex.DecodeString(trimHexPrefix(envelope.VerifyingKey))
		if err != nil {
			return nil, newInternalError("malformed verifying key: " + err.Error())
		}
		key := signature.VerifyingKey{Bytes: keyBytes, Scheme: envelope.Signature.Scheme}

		// Step (a): verify signature over block.hash before any I/O,
		// matching original_source's full_node/block.rs handler ordering.
		if err := signature.Verify(key, block.Header().Hash(), envelope.Signature); err != nil {
			return nil, newInternalError("signature verification failed: " + err.Error())
		}

		// Steps (b)/(c): gap-fill then enqueue; duplicates are silently
		// absorbed by the queue's unique-key admission, making this
		// handler idempotent on retransmission.
		if err := intake.HandleBroadcastBlock(ctx, block); err != nil {
			return nil, newInternalError(err.Error())
		}

		return json.Marshal(nil)
	})
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
