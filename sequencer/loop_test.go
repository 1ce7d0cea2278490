package sequencer

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojavechain/node/rpcclient"
	"github.com/mojavechain/node/signature"
)

func testSigner(t *testing.T) *signature.SigningKeyEd25519 {
	t.Helper()
	seed := make([]byte, 32)
	seed[0] = 9
	key, err := signature.NewSigningKeyEd25519(seed)
	require.NoError(t, err)
	return key
}

func TestBroadcastSignsAndSendsEnvelope(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":null}`))
	}))
	defer srv.Close()

	client := rpcclient.New([]string{srv.URL}, 2*time.Second)
	loop := &Loop{client: client, signer: testSigner(t)}

	header := &types.Header{Number: big.NewInt(1)}
	block := types.NewBlockWithHeader(header)

	err := loop.broadcast(context.Background(), block)
	require.NoError(t, err)
	assert.Contains(t, string(gotBody), "mojave_sendBroadcastBlock")
	assert.Contains(t, string(gotBody), "verifying_key")
}

func TestBroadcastPropagatesClientFailure(t *testing.T) {
	loop := &Loop{client: rpcclient.New(nil, time.Second), signer: testSigner(t)}

	header := &types.Header{Number: big.NewInt(1)}
	block := types.NewBlockWithHeader(header)

	err := loop.broadcast(context.Background(), block)
	assert.ErrorIs(t, err, rpcclient.ErrNoURLs)
}
