package chain

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// DecodeBlockJSON converts the standard eth_getBlockByNumber/SignedBlock
// JSON block representation into a storage-native *types.Block with empty
// ommers, matching spec §4.3's "converts the RPC body (full, not
// hash-only) into a storage-native block with empty ommers." types.Header
// already round-trips this wire format (go-ethereum's own RPC marshaling);
// the transactions array is decoded separately since it sits alongside,
// not inside, the header fields.
func DecodeBlockJSON(raw json.RawMessage) (*types.Block, error) {
	var header types.Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("chain: decode block header: %w", err)
	}

	var body struct {
		Transactions []*types.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("chain: decode block transactions: %w", err)
	}

	block := types.NewBlockWithHeader(&header).WithBody(types.Body{Transactions: body.Transactions})
	return block, nil
}

// EncodeBlockJSON is the inverse of DecodeBlockJSON: it flattens block's
// header fields and its transactions array into the single JSON object
// the "block" field of a SignedBlock envelope (spec §6) carries.
func EncodeBlockJSON(block *types.Block) (json.RawMessage, error) {
	headerJSON, err := json.Marshal(block.Header())
	if err != nil {
		return nil, fmt.Errorf("chain: encode block header: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &fields); err != nil {
		return nil, fmt.Errorf("chain: flatten block header: %w", err)
	}

	txsJSON, err := json.Marshal(block.Transactions())
	if err != nil {
		return nil, fmt.Errorf("chain: encode block transactions: %w", err)
	}
	fields["transactions"] = txsJSON

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("chain: encode block: %w", err)
	}
	return out, nil
}
