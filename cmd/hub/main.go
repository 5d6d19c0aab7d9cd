// Command hub runs duskwire in hub mode: it listens on a UDP endpoint,
// accepts handshakes from many nodes, and relays decrypted inner IPv4
// traffic between them by learned route (spec.md §6 "Hub").
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/duskwire/duskwire/config"
	"github.com/duskwire/duskwire/internal/loopnic"
	"github.com/duskwire/duskwire/internal/udpnet"
	"github.com/duskwire/duskwire/kernel"
	"github.com/duskwire/duskwire/pqc"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "duskwire-hub"
	app.Usage = "point-to-multipoint encrypted overlay hub"
	app.Version = Version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "listen", Value: ":9443", Usage: "UDP listen address"},
		cli.StringFlag{Name: "log-file", Value: "", Usage: "structured JSON log path (empty: stdout only)"},
		cli.IntFlag{Name: "max-sessions", Value: 0, Usage: "session table cap (0: default)"},
		cli.DurationFlag{Name: "route-ttl", Value: 0, Usage: "route binding TTL (0: default)"},
		cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "duskwire-hub: %v\n", err)
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

	signer, err := pqc.GenerateSigner()
	if err != nil {
		return fmt.Errorf("generate hub identity: %w", err)
	}
	pub, err := signer.PublicKeyBytes()
	if err != nil {
		return fmt.Errorf("marshal hub identity: %w", err)
	}
	logger.Info("hub identity generated; pin this on every node",
		"pubkey_hex", hex.EncodeToString(pub))

	transport, err := udpnet.Listen(c.String("listen"), 0)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer transport.Close()

	nic := loopnic.New()

	k, err := kernel.NewHub(kernel.HubOptions{
		Cfg: config.Config{
			Mode:        config.ModeHub,
			ListenAddr:  c.String("listen"),
			MaxSessions: c.Int("max-sessions"),
			RouteTTL:    c.Duration("route-ttl"),
		},
		Transport: transport,
		NIC:       nic,
		Logger:    logger,
		Signer:    signer,
	})
	if err != nil {
		return fmt.Errorf("construct kernel: %w", err)
	}

	logger.Info("hub listening", "addr", c.String("listen"))
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
