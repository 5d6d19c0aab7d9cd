// Command node runs duskwire in node mode: it binds an ephemeral UDP
// port, punches a NAT mapping toward the configured hub, completes the
// post-quantum handshake, and tunnels IPv4 traffic to and from it
// (spec.md §6 "Node").
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/duskwire/duskwire/config"
	"github.com/duskwire/duskwire/internal/loopnic"
	"github.com/duskwire/duskwire/internal/udpnet"
	"github.com/duskwire/duskwire/kernel"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "duskwire-node"
	app.Usage = "point-to-multipoint encrypted overlay node"
	app.Version = Version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "hub", Usage: "hub UDP endpoint, host:port", Required: true},
		cli.StringFlag{Name: "hub-pubkey", Usage: "hex-encoded pinned hub Dilithium3 public key", Required: true},
		cli.StringFlag{Name: "listen", Value: "", Usage: "local UDP bind address (empty: ephemeral)"},
		cli.StringFlag{Name: "log-file", Value: "", Usage: "structured JSON log path (empty: stdout only)"},
		cli.DurationFlag{Name: "handshake-retry", Value: 0, Usage: "handshake retry interval (0: default)"},
		cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "duskwire-node: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger, err := config.SetupLogging(c.String("log-file"), level)
	if err != nil {
		return err
	}

	hubPub, err := hex.DecodeString(c.String("hub-pubkey"))
	if err != nil {
		return fmt.Errorf("decode hub-pubkey: %w", err)
	}

	hubAddr, err := net.ResolveUDPAddr("udp", c.String("hub"))
	if err != nil {
		return fmt.Errorf("resolve hub endpoint: %w", err)
	}

	transport, err := udpnet.Listen(c.String("listen"), 0)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer transport.Close()

	nic := loopnic.New()

	k, err := kernel.NewNode(kernel.NodeOptions{
		Cfg: config.Config{
			Mode:                   config.ModeNode,
			Upstream:               c.String("hub"),
			HandshakeRetryInterval: c.Duration("handshake-retry"),
		},
		Transport:    transport,
		NIC:          nic,
		Upstream:     hubAddr,
		HubPublicKey: hubPub,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("construct kernel: %w", err)
	}

	logger.Info("node starting", "hub", c.String("hub"))
	runLoop(k, logger)
	return nil
}

// runLoop drives the cooperative poll loop until a signal arrives, backing
// off briefly whenever a poll found no work (spec.md §4.9 step 6).
func runLoop(k *kernel.Kernel, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			return
		default:
		}
		if !k.Poll() {
			time.Sleep(time.Millisecond)
		}
	}
}
