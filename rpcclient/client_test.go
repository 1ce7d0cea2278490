package rpcclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okServer(t *testing.T, result string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":"` + result + `"}`))
	}))
}

// hangingServer never answers; its handler returns only once the client
// abandons the request, so the server's Close does not block forever.
func hangingServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
}

func failServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"id":1,"jsonrpc":"2.0","error":{"code":-32000,"message":"boom"}}`))
	}))
}

func TestRaceReturnsFirstSuccess(t *testing.T) {
	hang := hangingServer()
	defer hang.Close()
	good := okServer(t, "0xabc")
	defer good.Close()

	c := New([]string{hang.URL, good.URL}, 2*time.Second)
	result, err := c.race(context.Background(), "mojave_sendBroadcastBlock", []interface{}{map[string]int{"x": 1}})
	require.NoError(t, err)
	assert.Contains(t, string(result), "0xabc")
}

func TestRaceFailsWhenAllEndpointsFail(t *testing.T) {
	f1 := failServer()
	defer f1.Close()
	f2 := failServer()
	defer f2.Close()

	c := New([]string{f1.URL, f2.URL}, 2*time.Second)
	_, err := c.race(context.Background(), "mojave_sendBroadcastBlock", []interface{}{map[string]int{}})
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
}

func TestSendAllContactsEveryURLAndKeepsLast(t *testing.T) {
	var hits int32
	s1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":"0x1"}`))
	}))
	defer s1.Close()
	s2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"id":1,"jsonrpc":"2.0","result":"0x2"}`))
	}))
	defer s2.Close()

	c := New([]string{s1.URL, s2.URL}, 2*time.Second)
	result, err := c.SendForwardTransaction(context.Background(), []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Contains(t, string(result), "0x2")
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestSendAllReturnsLastErrorWhenAllFail(t *testing.T) {
	f1 := failServer()
	defer f1.Close()

	c := New([]string{f1.URL}, 2*time.Second)
	_, err := c.SendForwardTransaction(context.Background(), []byte{0x01})
	assert.Error(t, err)
}

func TestNoURLsConfigured(t *testing.T) {
	c := New(nil, time.Second)
	_, err := c.SendForwardTransaction(context.Background(), []byte{0x01})
	assert.ErrorIs(t, err, ErrNoURLs)
}
