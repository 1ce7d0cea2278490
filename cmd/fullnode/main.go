// Command fullnode runs one of this system's full nodes: the Ordered
// Block Intake applying sequencer-broadcast blocks in order, and the
// JSON-RPC surface forwarding locally submitted transactions to the
// sequencer (spec §2, §4.3, §4.5).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mojavechain/node/chain"
	"github.com/mojavechain/node/fullnode"
	"github.com/mojavechain/node/internal/devchain"
	"github.com/mojavechain/node/internal/nodeconfig"
	"github.com/mojavechain/node/rpcclient"
	"github.com/mojavechain/node/rpcserver"
)

func main() {
	rpcAddr := flag.String("rpc.addr", "0.0.0.0:8546", "address the JSON-RPC HTTP server listens on")
	sequencerAddr := flag.String("sequencer.address", "0.0.0.0:8545", "sequencer URL this node forwards transactions to and fetches gap-fill blocks from")
	dataDir := flag.String("data-dir", "./data/fullnode", "directory node_config.json is persisted under on shutdown")
	logLevel := flag.String("log.level", "info", "log verbosity: trace, debug, info, warn, error")
	flag.Parse()

	setupLogging(*logLevel)

	bc, err := devchain.New(common.Address{})
	if err != nil {
		log.Crit("fullnode: failed to initialize chain", "err", err)
	}

	adapter := chain.NewBlockChainAdapter(bc)

	sequencerURL := withScheme(*sequencerAddr)
	client := rpcclient.New([]string{sequencerURL}, 5*time.Second)

	intake := fullnode.NewIntake(adapter, adapter, client, adapter.CurrentHeader().Number.Uint64())
	forwarder := fullnode.NewForwarder(client)

	router := rpcserver.NewRouter()
	rpcserver.RegisterFullNodeHandlers(router, forwarder)
	rpcserver.RegisterMojaveFullNodeHandlers(router, intake)

	filters := rpcserver.NewFilterSet()
	pubsub := rpcserver.NewPubSub()
	intake.OnApply = pubsub.BroadcastNewHead

	server := rpcserver.New(rpcserver.Config{
		Addr:           *rpcAddr,
		FilterDuration: 300 * time.Second,
	}, router, filters, pubsub)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go intake.RunApplyLoop(ctx)

	if err := server.Start(ctx); err != nil {
		log.Error("fullnode: rpc server stopped with error", "err", err)
	}

	persistErr := nodeconfig.Persist(*dataDir, nodeconfig.NodeConfig{
		Role:       "full_node",
		ListenAddr: *rpcAddr,
		KnownPeers: []string{sequencerURL},
	})
	if persistErr != nil {
		log.Error("fullnode: failed to persist node config", "err", persistErr)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, parseLevel(level), true)))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "crit":
		return log.LevelCrit
	default:
		return log.LevelInfo
	}
}

func withScheme(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "http://" + addr
}
