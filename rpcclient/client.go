// Package rpcclient implements the two fan-out policies the node uses to
// call out over JSON-RPC: racing all full-node URLs for block broadcast,
// and trying sequencer-replica URLs one by one for transaction forwarding.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mojavechain/node/signature"
)

// request is the JSON-RPC 2.0 envelope this client always sends: a
// numeric id of 1 and a single-element params array, matching
// send_request_to_url in the original source.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// Client is the RPC fan-out client used by both roles: the sequencer uses
// SendBroadcastBlock (race policy) to broadcast signed blocks; a full node
// uses SendForwardTransaction (sequential-all policy) to forward raw
// transactions across one or more sequencer replica URLs. Client holds no
// signing key: blocks arrive already signed (sequencer.Loop signs them).
type Client struct {
	httpClient *http.Client
	urls       []string
}

// New builds a Client bound to urls, in the priority order sendAll will
// use.
func New(urls []string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		urls:       urls,
	}
}

// SignedBlockEnvelope is the wire shape of §6's SignedBlock JSON.
type SignedBlockEnvelope struct {
	Block        json.RawMessage    `json:"block"`
	Signature    signature.Signature `json:"signature"`
	VerifyingKey string              `json:"verifying_key"`
}

// SendBroadcastBlock races every configured URL with mojave_sendBroadcastBlock,
// returning as soon as one succeeds and cancelling the rest.
func (c *Client) SendBroadcastBlock(ctx context.Context, envelope SignedBlockEnvelope) (json.RawMessage, error) {
	return c.race(ctx, "mojave_sendBroadcastBlock", []interface{}{envelope})
}

// SendForwardTransaction tries every configured URL in order, keeping the
// last successful response, matching the original's intentional "contact
// every sequencer replica" semantics for send_forward_transaction.
func (c *Client) SendForwardTransaction(ctx context.Context, rawTx []byte) (json.RawMessage, error) {
	hexTx := "0x" + hex.EncodeToString(rawTx)
	return c.sendAll(ctx, "eth_sendRawTransaction", []interface{}{hexTx})
}

// GetBlockByNumber fetches a full block (transactions included, not just
// hashes) from the sequencer, used by the full node's gap-fill path
// (spec §4.3) to back-fill numbers missing between its local latest and a
// newly broadcast block. It uses the sequential-all policy since, like
// forwarding, it may need to reach whichever sequencer replica is live.
func (c *Client) GetBlockByNumber(ctx context.Context, number uint64) (json.RawMessage, error) {
	return c.sendAll(ctx, "eth_getBlockByNumber", []interface{}{hexutil.EncodeUint64(number), true})
}

// race starts every URL in parallel; the first successful response wins
// and all other in-flights are cancelled via ctx. If all fail,
// ErrAllEndpointsFailed is returned.
func (c *Client) race(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if len(c.urls) == 0 {
		return nil, ErrNoURLs
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result json.RawMessage
		err    error
	}
	results := make(chan outcome, len(c.urls))

	for _, url := range c.urls {
		go func(url string) {
			res, err := c.sendToURL(raceCtx, url, method, params)
			results <- outcome{result: res, err: err}
		}(url)
	}

	var lastErr error
	for i := 0; i < len(c.urls); i++ {
		out := <-results
		if out.err == nil {
			cancel() // best-effort: stop the rest of the in-flight requests
			return out.result, nil
		}
		lastErr = out.err
	}
	log.Warn("rpcclient: broadcast race failed at all endpoints", "urls", len(c.urls), "lastErr", lastErr)
	return nil, fmt.Errorf("%w: %v", ErrAllEndpointsFailed, lastErr)
}

// sendAll tries every URL in list order, keeping the last successful
// response; if all fail, it returns the last error.
// TODO: if sequencer replicas ever diverge, callers can observe
// inconsistent tx hashes since this keeps the last success rather than
// requiring a quorum; no quorum policy exists yet.
func (c *Client) sendAll(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	if len(c.urls) == 0 {
		return nil, ErrNoURLs
	}

	var lastResult json.RawMessage
	var lastErr error
	succeeded := false
	for _, url := range c.urls {
		res, err := c.sendToURL(ctx, url, method, params)
		if err != nil {
			lastErr = err
			log.Debug("rpcclient: forward attempt failed", "url", url, "err", err)
			continue
		}
		lastResult = res
		succeeded = true
	}
	if !succeeded {
		return nil, lastErr
	}
	return lastResult, nil
}

func (c *Client) sendToURL(ctx context.Context, url, method string, params []interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rpcResp response
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("rpcclient: malformed response from %s: %w", url, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
