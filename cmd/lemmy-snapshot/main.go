// Command lemmy-snapshot captures posts and their comment trees from a Lemmy
// instance, writing JSON to stdout or publishing it to NATS.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/engine/lemmy"
	"github.com/lemmylite/lemmy-lite/pkg/config"
	"github.com/lemmylite/lemmy-lite/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file (overrides CONFIG_PATH env)")
	instance := flag.String("instance", "lemmy.ml", "instance host")
	community := flag.String("community", "", "community name (empty = front page)")
	limit := flag.Int("limit", 10, "posts per run")
	sort := flag.String("sort", "", "listing sort (empty = upstream default for the listing)")
	workers := flag.Int("workers", 4, "concurrent comment fetches per run")
	interval := flag.Duration("interval", 0, "polling interval (0 = one-shot)")
	natsURL := flag.String("nats", "", "NATS URL (overrides config; empty = stdout)")
	subject := flag.String("subject", "", "NATS subject (overrides config)")
	api := flag.String("api", "", "API revision v1, v2 or v3 (overrides config)")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.MustLoad(*configPath)
	if *natsURL != "" {
		cfg.NATS.URL = *natsURL
	}
	if *subject != "" {
		cfg.NATS.Subject = *subject
	}
	if *api != "" {
		cfg.Upstream.APIVersion = *api
	}

	inst, err := domain.ParseInstance(*instance)
	if err != nil {
		log.Error("bad instance", "err", err)
		os.Exit(2)
	}
	paging := domain.PagingParams{Limit: limit}
	if *sort != "" {
		s, err := domain.ParseSort(*sort)
		if err != nil {
			log.Error("bad sort", "err", err)
			os.Exit(2)
		}
		paging.Sort = &s
	}

	version, err := lemmy.ParseVersion(cfg.Upstream.APIVersion)
	if err != nil {
		log.Error("bad api version", "err", err)
		os.Exit(2)
	}
	hc, _ := lemmy.NewHTTPClient(lemmy.Policy{
		Timeout:          cfg.Upstream.Timeout,
		RPS:              cfg.Upstream.RPS,
		Burst:            cfg.Upstream.Burst,
		Attempts:         cfg.Upstream.Retries,
		BreakerThreshold: cfg.Upstream.BreakerThreshold,
		BreakerCooldown:  cfg.Upstream.BreakerCooldown,
	}, metrics.New())
	client, err := lemmy.New(lemmy.Config{
		Version:    version,
		UserAgent:  cfg.Upstream.UserAgent,
		MaxPayload: cfg.Upstream.MaxPayload,

		CommentPageSize: cfg.Upstream.CommentPageSize,
		CommentMaxPages: cfg.Upstream.CommentMaxPages,
	}, hc)
	if err != nil {
		log.Error("build client", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emit := stdoutSink(os.Stdout)
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Error("nats connect", "err", err)
			os.Exit(1)
		}
		defer nc.Close()
		log.Info("publishing to NATS", "subject", cfg.NATS.Subject)
		emit = natsSink(nc, cfg.NATS.Subject)
	}

	c := &collector{
		client:   client,
		instance: inst,
		paging:   paging,
		workers:  *workers,
		emit:     emit,
		log:      log,
		now:      time.Now,
	}
	if *community != "" {
		c.community = community
	}

	if err := c.loop(ctx, *interval); err != nil {
		log.Error("snapshot", "err", err)
		stop()
		os.Exit(1)
	}
}
