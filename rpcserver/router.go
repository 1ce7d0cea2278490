package rpcserver

import (
	"context"
	"encoding/json"
	"strings"
)

// MethodHandler handles one JSON-RPC method call and returns either a
// JSON result or an rpcError; never both.
type MethodHandler func(ctx context.Context, params json.RawMessage) (json.RawMessage, *rpcError)

// Router resolves a method name to a namespace by parsing up to the first
// underscore (spec §4.4's "Namespace resolution"), recognizing exactly
// "eth" and "mojave"; anything else is method-not-found.
type Router struct {
	handlers    map[string]MethodHandler
	ethDelegate MethodHandler
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]MethodHandler)}
}

// Register binds a fully-qualified method name (e.g. "mojave_sendBroadcastBlock")
// to its handler.
func (r *Router) Register(method string, h MethodHandler) {
	r.handlers[method] = h
}

// SetEthDelegate installs the fallback used for any eth_* method not
// explicitly registered, representing delegation to the external RPC
// implementation spec §4.4 describes ("delegates to the external RPC
// implementation except ..."). A nil delegate means standard eth_* reads
// are unsupported in this deployment and fall through to method-not-found.
func (r *Router) SetEthDelegate(h MethodHandler) {
	r.ethDelegate = h
}

// Dispatch resolves and invokes the handler for method.
func (r *Router) Dispatch(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, *rpcError) {
	switch namespaceOf(method) {
	case "eth":
		if h, ok := r.handlers[method]; ok {
			return h(ctx, params)
		}
		if r.ethDelegate != nil {
			return r.ethDelegate(ctx, params)
		}
		return nil, newMethodNotFound(method)
	case "mojave":
		if h, ok := r.handlers[method]; ok {
			return h(ctx, params)
		}
		return nil, newMethodNotFound(method)
	default:
		return nil, newMethodNotFound(method)
	}
}

func namespaceOf(method string) string {
	if idx := strings.IndexByte(method, '_'); idx >= 0 {
		return method[:idx]
	}
	return method
}
