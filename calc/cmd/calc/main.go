package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/strokestats/strokestats/calc/internal/config"
)

func main() {
	configPath := flag.String("config", "calc.yaml", "path to config file")
	once := flag.Bool("once", false, "run one batch and exit, ignoring schedule and watch")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("strokestats-calc starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	setLevel(level, cfg.Calc.LogLevel)
	slog.Info("config loaded",
		"source", cfg.Calc.Source.Type,
		"country_code", cfg.Calc.CountryCode,
		"format", cfg.Calc.Output.Format,
		"publish", cfg.Calc.Publish.Enabled(),
		"schedule", cfg.Calc.Schedule,
		"watch", cfg.Calc.Watch,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := newRunner(cfg)

	if *once || (cfg.Calc.Schedule == "" && !cfg.Calc.Watch) {
		if err := r.run(ctx, "once"); err != nil {
			slog.Error("run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// An initial run so the output exists before the first trigger.
	if err := r.run(ctx, "startup"); err != nil {
		slog.Error("run failed", "err", err)
	}

	if cfg.Calc.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Calc.Schedule, func() { r.trigger(ctx, "schedule") }); err != nil {
			slog.Error("invalid schedule", "schedule", cfg.Calc.Schedule, "err", err)
			os.Exit(1)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		slog.Info("schedule started", "spec", cfg.Calc.Schedule)
	}

	if cfg.Calc.Watch {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				setLevel(level, updated.Calc.LogLevel)
				r.setConfig(updated)
				r.trigger(ctx, "watch")
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("strokestats-calc shutting down")
}

func setLevel(v *slog.LevelVar, name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		slog.Warn("unknown log level, keeping current", "level", name)
		return
	}
	v.Set(l)
}
