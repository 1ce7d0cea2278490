// Package rpcserver implements the single HTTP JSON-RPC POST endpoint
// (§4.4): namespace dispatch between eth/mojave, single-or-batch request
// handling, permissive CORS, a background filter-TTL sweep, and an
// optional eth_subscribe websocket upgrade.
package rpcserver

import (
	"encoding/json"

	"github.com/mojavechain/node/signature"
)

// rpcRequest is a single JSON-RPC 2.0 request object.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// rpcResponse is a single JSON-RPC 2.0 response object.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func successResponse(id json.RawMessage, result json.RawMessage) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *rpcError) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: err}
}

// SignedBlockEnvelope is the wire shape of §6's SignedBlock JSON, the
// input to mojave_sendBroadcastBlock.
type SignedBlockEnvelope struct {
	Block        json.RawMessage     `json:"block"`
	Signature    signature.Signature `json:"signature"`
	VerifyingKey string              `json:"verifying_key"`
}
