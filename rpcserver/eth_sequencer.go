package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// Mempool is the narrow admission surface the sequencer's
// eth_sendRawTransaction handler needs from the mempool (implemented by
// mempool.Pool), matching spec §4.4's "admits it to the mempool."
type Mempool interface {
	AddLocal(tx *types.Transaction) error
	// AddBlobTransaction admits a blob-carrying transaction through the
	// pool's separate blob-bundle path, per spec §4.4's "blob-bundle
	// admission for blob kinds."
	AddBlobTransaction(tx *types.Transaction) error
}

// RegisterSequencerHandlers binds the sequencer-role eth_* overrides:
// eth_sendRawTransaction decodes and admits directly to the local
// mempool, returning the tx's own hash (spec §4.4).
func RegisterSequencerHandlers(r *Router, mp Mempool) {
	r.Register("eth_sendRawTransaction", func(ctx context.Context, params json.RawMessage) (json.RawMessage, *rpcError) {
		rawTx, perr := decodeSingleHexParam(params)
		if perr != nil {
			return nil, perr
		}
		return admitRawTransaction(mp, rawTx)
	})
}

// RegisterSequencerLegacyHandlers binds mojave_sendForwardTransaction, the
// legacy alias of eth_sendRawTransaction spec §4.4 keeps for compatibility
// with older forwarder clients.
func RegisterSequencerLegacyHandlers(r *Router, mp Mempool) {
	r.Register("mojave_sendForwardTransaction", func(ctx context.Context, params json.RawMessage) (json.RawMessage, *rpcError) {
		rawTx, perr := decodeSingleHexParam(params)
		if perr != nil {
			return nil, perr
		}
		return admitRawTransaction(mp, rawTx)
	})
}

// admitRawTransaction decodes rawTx, rejects privileged L2 transactions at
// this boundary (spec §3: these are sequencer/L1-originated only, never a
// legitimate client submission), routes blob-carrying transactions
// through blob-bundle admission, and otherwise admits locally.
func admitRawTransaction(mp Mempool, rawTx []byte) (json.RawMessage, *rpcError) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		return nil, newBadParams(fmt.Sprintf("could not decode raw transaction: %v", err))
	}

	if tx.Type() == types.DepositTxType {
		return nil, newBadParams("privileged L2 transactions are not accepted via eth_sendRawTransaction")
	}

	var err error
	if tx.Type() == types.BlobTxType {
		err = mp.AddBlobTransaction(tx)
	} else {
		err = mp.AddLocal(tx)
	}
	if err != nil {
		log.Debug("sequencer: mempool rejected transaction", "hash", tx.Hash(), "err", err)
		return nil, newInternalError(err.Error())
	}

	return json.Marshal(tx.Hash())
}
