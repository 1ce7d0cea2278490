// Command sequencer runs this system's single sequencer node: the Block
// Builder and Sequencer Loop producing signed blocks, and the JSON-RPC
// surface admitting transactions locally (spec §2, §4.1, §4.6).
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mojavechain/node/blockbuilder"
	"github.com/mojavechain/node/chain"
	"github.com/mojavechain/node/internal/devchain"
	"github.com/mojavechain/node/internal/nodeconfig"
	"github.com/mojavechain/node/internal/rollupstore"
	"github.com/mojavechain/node/mempool"
	rollupparams "github.com/mojavechain/node/params"
	"github.com/mojavechain/node/rpcclient"
	"github.com/mojavechain/node/rpcserver"
	"github.com/mojavechain/node/sequencer"
	"github.com/mojavechain/node/signature"
)

func main() {
	rpcAddr := flag.String("rpc.addr", "0.0.0.0:8545", "address the JSON-RPC HTTP server listens on")
	fullNodeAddrs := flag.String("full_node.addresses", "", "comma-separated full-node URLs to broadcast signed blocks to")
	blockTimeMs := flag.Uint64("block-time-ms", rollupparams.DefaultBlockTimeMillis, "sequencer loop cadence in milliseconds")
	dataDir := flag.String("data-dir", "./data/sequencer", "directory node_config.json is persisted under on shutdown")
	replayProtectionBlock := flag.Uint64("replay-protection-block", 0, "block number transaction replay protection activates at; 0 disables it")
	logLevel := flag.String("log.level", "info", "log verbosity: trace, debug, info, warn, error")
	flag.Parse()

	setupLogging(*logLevel)

	signer, scheme, err := loadSigningKey()
	if err != nil {
		log.Crit("sequencer: failed to load signing key", "err", err)
	}

	coinbase := coinbaseFor(signer, scheme)

	bc, err := devchain.New(coinbase)
	if err != nil {
		log.Crit("sequencer: failed to initialize chain", "err", err)
	}

	adapter := chain.NewBlockChainAdapter(bc)
	executor := chain.NewExecutorAdapter(bc)
	rollupStore := rollupstore.New()
	pool := mempool.NewPool()

	var rollupCfg rollupparams.RollupUpgradeConfig
	if *replayProtectionBlock > 0 {
		rollupCfg.ReplayProtectionBlock = rollupparams.U64Ptr(*replayProtectionBlock)
	}

	builder := blockbuilder.NewBuilder(blockbuilder.Config{
		ChainConfig: bc.Config(),
		Rollup:      &rollupCfg,
		Elasticity:  rollupparams.ElasticityMultiplier,
		Coinbase:    coinbase,
		VMConfig:    vm.Config{},
	}, adapter, executor, rollupStore, adapter, pool)

	urls := parseURLs(*fullNodeAddrs)
	if len(urls) == 0 {
		log.Warn("sequencer: no full_node.addresses configured, broadcasts will always fail")
	}
	client := rpcclient.New(urls, 5*time.Second)

	loop := sequencer.New(sequencer.Config{BlockTime: time.Duration(*blockTimeMs) * time.Millisecond}, builder, adapter, pool, client, signer)

	router := rpcserver.NewRouter()
	rpcserver.RegisterSequencerHandlers(router, pool)
	rpcserver.RegisterSequencerLegacyHandlers(router, pool)

	filters := rpcserver.NewFilterSet()
	pubsub := rpcserver.NewPubSub()
	loop.OnBlock = pubsub.BroadcastNewHead

	server := rpcserver.New(rpcserver.Config{
		Addr:           *rpcAddr,
		FilterDuration: rollupparams.FilterDurationProd * time.Second,
	}, router, filters, pubsub)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go loop.Run(ctx)

	if err := server.Start(ctx); err != nil {
		log.Error("sequencer: rpc server stopped with error", "err", err)
	}

	verifyingAddr := ""
	if scheme == signature.Secp256k1 {
		if addr, err := signer.VerifyingKey().Address(); err == nil {
			verifyingAddr = addr.Hex()
		}
	}
	persistErr := nodeconfig.Persist(*dataDir, nodeconfig.NodeConfig{
		Role:           "sequencer",
		ListenAddr:     *rpcAddr,
		KnownPeers:     urls,
		SigningAddress: verifyingAddr,
	})
	if persistErr != nil {
		log.Error("sequencer: failed to persist node config", "err", persistErr)
		os.Exit(1)
	}
}

// setupLogging configures the default logger the same way the teacher's
// own cmd binaries do: a colored terminal handler at a chosen level.
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

// loadSigningKey reads PRIVATE_KEY (hex, no 0x prefix required) and
// PRIVATE_KEY_SCHEME ("secp256k1" or "ed25519", defaulting to
// secp256k1 to match the teacher's own key material) from the
// environment, matching original_source's env::var("PRIVATE_KEY")
// convention rather than a flag (a signing key is a secret, not
// something that belongs on a process's command line).
func loadSigningKey() (sequencer.Signer, signature.Scheme, error) {
	raw := os.Getenv("PRIVATE_KEY")
	if raw == "" {
		return nil, 0, fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	raw = strings.TrimPrefix(raw, "0x")

	keyBytes, err := decodeHex(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("PRIVATE_KEY: %w", err)
	}

	switch strings.ToLower(os.Getenv("PRIVATE_KEY_SCHEME")) {
	case "ed25519":
		key, err := signature.NewSigningKeyEd25519(keyBytes)
		if err != nil {
			return nil, 0, err
		}
		return key, signature.Ed25519, nil
	default:
		key, err := signature.NewSigningKeySecp256k1(keyBytes)
		if err != nil {
			return nil, 0, err
		}
		return key, signature.Secp256k1, nil
	}
}

func coinbaseFor(signer sequencer.Signer, scheme signature.Scheme) common.Address {
	if scheme != signature.Secp256k1 {
		return common.Address{}
	}
	addr, err := signer.VerifyingKey().Address()
	if err != nil {
		return common.Address{}
	}
	return addr
}

func parseURLs(csv string) []string {
	var urls []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			part = "http://" + part
		}
		urls = append(urls, part)
	}
	return urls
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
