package rpcserver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeSingleHexParam validates and decodes the common
// `["0x<hex>"]` param shape used by eth_sendRawTransaction and its
// aliases (spec §4.4's "Request validation": params must be a
// one-element 0x-prefixed hex string).
func decodeSingleHexParam(params json.RawMessage) ([]byte, *rpcError) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, newBadParams("expected a single hex string parameter")
	}
	if len(args) != 1 {
		return nil, newBadParams(fmt.Sprintf("expected exactly 1 parameter, got %d", len(args)))
	}
	if !strings.HasPrefix(args[0], "0x") {
		return nil, newBadParams("expected a 0x-prefixed hex string parameter")
	}
	hexStr := strings.TrimPrefix(args[0], "0x")
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, newBadParams(fmt.Sprintf("malformed hex parameter: %v", err))
	}
	return raw, nil
}

// decodeSingleObjectParam validates the one-element-array shape used by
// mojave_sendBroadcastBlock (spec §4.4), returning the raw JSON of the
// single element.
func decodeSingleObjectParam(params json.RawMessage) (json.RawMessage, *rpcError) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, newBadParams("expected a single-element params array")
	}
	if len(args) != 1 {
		return nil, newBadParams(fmt.Sprintf("expected exactly 1 parameter, got %d", len(args)))
	}
	return args[0], nil
}
