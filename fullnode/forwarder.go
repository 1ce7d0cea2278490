package fullnode

import (
	"context"
	"encoding/json"

	"github.com/mojavechain/node/rpcclient"
)

// Forwarder is the Transaction Forwarder (spec §2/§4.5): it relays raw
// transactions submitted to this full node's eth_sendRawTransaction
// straight through to the configured sequencer replica set, using the
// client's sequential-all policy so every replica observes the
// transaction.
type Forwarder struct {
	client *rpcclient.Client
}

// NewForwarder wraps client, the RPC client already configured with the
// sequencer's URL set.
func NewForwarder(client *rpcclient.Client) *Forwarder {
	return &Forwarder{client: client}
}

// Forward implements rpcserver.Forwarder.
func (f *Forwarder) Forward(ctx context.Context, rawTx []byte) (json.RawMessage, error) {
	return f.client.SendForwardTransaction(ctx, rawTx)
}
