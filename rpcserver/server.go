package rpcserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// Config bundles the listener and filter-sweep knobs.
type Config struct {
	Addr           string
	FilterDuration time.Duration
}

// DefaultConfig matches the original's full_node.addresses default of
// 0.0.0.0:8545 and the production FILTER_DURATION of 300s.
var DefaultConfig = Config{
	Addr:           "0.0.0.0:8545",
	FilterDuration: 300 * time.Second,
}

// String implements fmt.Stringer for logging, in the style of the
// teacher's preconf.TxPoolConfig/MinerConfig.
func (c Config) String() string {
	return "addr=" + c.Addr + " filterDuration=" + c.FilterDuration.String()
}

// Server is the single HTTP JSON-RPC POST endpoint, with permissive CORS
// and a background filter-TTL sweep task.
type Server struct {
	cfg    Config
	router *Router
	http   *http.Server
	sweep  *filterSweeper
	pubsub *PubSub
}

// New builds a Server around router; filters is the shared active-filters
// map the sweep task owns jointly with any registered eth filter handlers.
// pubsub is optional (nil disables the /ws newHeads upgrade entirely).
func New(cfg Config, router *Router, filters *FilterSet, pubsub *PubSub) *Server {
	s := &Server{cfg: cfg, router: router, sweep: newFilterSweeper(filters, cfg.FilterDuration), pubsub: pubsub}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)
	if pubsub != nil {
		mux.HandleFunc("/ws", pubsub.HandleUpgrade)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)

	s.http = &http.Server{Addr: cfg.Addr, Handler: handler}
	return s
}

// Start launches the HTTP listener and the filter sweep task; both
// observe ctx for cancellation, matching spec §5's cancellation-token
// model (Ctrl-C triggers cancellation of the sweep task and a graceful
// HTTP shutdown).
func (s *Server) Start(ctx context.Context) error {
	go s.sweep.run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("rpc server listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleHTTP implements §6's HTTP contract: a POST body that is either a
// single JSON-RPC object or a JSON array of them; an unparseable body
// yields one error response with an empty-string id and bad-params code.
func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body := bytes.TrimSpace(readAll(r))
	if len(body) == 0 {
		writeJSON(w, errorResponse(json.RawMessage(`""`), newBadParams("empty request body")))
		return
	}

	if body[0] == '[' {
		var reqs []rpcRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			writeJSON(w, errorResponse(json.RawMessage(`""`), newBadParams("malformed batch request")))
			return
		}
		responses := make([]rpcResponse, len(reqs))
		for i, req := range reqs {
			responses[i] = s.handleOne(r.Context(), req)
		}
		writeJSON(w, responses)
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, errorResponse(json.RawMessage(`""`), newBadParams("malformed request")))
		return
	}
	writeJSON(w, s.handleOne(r.Context(), req))
}

func (s *Server) handleOne(ctx context.Context, req rpcRequest) rpcResponse {
	result, rpcErr := s.router.Dispatch(ctx, req.Method, req.Params)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	return successResponse(req.ID, result)
}

func readAll(r *http.Request) []byte {
	defer r.Body.Close()
	buf := new(bytes.Buffer)
	buf.ReadFrom(r.Body)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("rpc server: failed to write response", "err", err)
	}
}
