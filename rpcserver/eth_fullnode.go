package rpcserver

import (
	"context"
	"encoding/json"
)

// Forwarder is the full node's relay surface to the sequencer: raw
// transaction bytes in, the sequencer-computed hash out. Implemented by
// fullnode.Forwarder and wired in here as a narrow interface so rpcserver
// never needs to import the fullnode package directly.
type Forwarder interface {
	Forward(ctx context.Context, rawTx []byte) (json.RawMessage, error)
}

// RegisterFullNodeHandlers binds the full-node-role eth_* overrides:
// eth_sendRawTransaction is intercepted and forwarded to the sequencer
// (spec §4.4); the returned hash is the sequencer's, not one computed
// locally (spec §7's "User-visible failures").
func RegisterFullNodeHandlers(r *Router, fw Forwarder) {
	r.Register("eth_sendRawTransaction", func(ctx context.Context, params json.RawMessage) (json.RawMessage, *rpcError) {
		rawTx, perr := decodeSingleHexParam(params)
		if perr != nil {
			return nil, perr
		}
		result, err := fw.Forward(ctx, rawTx)
		if err != nil {
			return nil, newInternalError(err.Error())
		}
		return result, nil
	})
}
