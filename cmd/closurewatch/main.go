// Closurewatch polls the COtrip lane-closure feed and texts subscribers
// when closures appear or clear. It also hosts the Twilio webhook that
// manages subscriptions.
//
// Usage:
//
//	closurewatch [-config path/to/config.yaml]
//
// All settings can also be supplied as CLOSUREWATCH_* environment
// variables; see internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/analytics"
	"github.com/closurewatch/closurewatch/internal/config"
	"github.com/closurewatch/closurewatch/internal/feed"
	"github.com/closurewatch/closurewatch/internal/geo"
	"github.com/closurewatch/closurewatch/internal/logging"
	"github.com/closurewatch/closurewatch/internal/poll"
	"github.com/closurewatch/closurewatch/internal/server"
	"github.com/closurewatch/closurewatch/internal/sms"
	"github.com/closurewatch/closurewatch/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots := store.NewFileSnapshotStore(cfg.State.Snapshot, cfg.State.Archive, log)
	if err := snapshots.EnsureArchiveDir(); err != nil {
		log.Fatal("archive directory unavailable", zap.Error(err))
	}
	roster := store.NewFileRosterStore(cfg.State.Roster, log)
	sink := analytics.NewFileSink(cfg.State.Analytics, log)

	var transport sms.Transport
	if cfg.Twilio.SID != "" {
		transport = sms.NewTwilioTransport(cfg.Twilio.SID, cfg.Twilio.Token, cfg.Twilio.From, log)
	} else {
		log.Warn("no twilio credentials configured, messages will only be logged")
		transport = sms.NewLogTransport(log)
	}

	bounds := geo.Bounds{
		SouthLat: cfg.Bounds.South,
		NorthLat: cfg.Bounds.North,
		WestLon:  cfg.Bounds.West,
		EastLon:  cfg.Bounds.East,
	}
	fetcher := feed.NewHTTPFetcher(cfg.Feed.URL, log)
	cycle := poll.NewCycle(fetcher, bounds, snapshots, roster, transport, log)
	runner := poll.NewRunner(cycle, cfg.Feed.Interval, log)

	srv := server.New(cfg.Server, roster, sink, log)

	log.Info("starting",
		zap.String("feed", cfg.Feed.URL),
		zap.Duration("interval", cfg.Feed.Interval),
		zap.String("addr", cfg.Server.Addr))

	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", zap.Error(err))
		stop()
	}
	<-done
	log.Info("shut down")
}
