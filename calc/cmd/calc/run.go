package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strokestats/strokestats/calc/internal/config"
	"github.com/strokestats/strokestats/calc/internal/export"
	"github.com/strokestats/strokestats/calc/internal/publish"
	"github.com/strokestats/strokestats/calc/internal/registry"
	"github.com/strokestats/strokestats/calc/internal/stats"
)

// runner executes batches. Triggers that arrive while a batch is running
// are skipped.
type runner struct {
	mu  sync.Mutex
	cfg *config.Config

	busy  atomic.Bool
	batch func(ctx context.Context, cfg *config.Config) error // injectable for tests
}

func newRunner(cfg *config.Config) *runner {
	return &runner{cfg: cfg, batch: runBatch}
}

func (r *runner) setConfig(cfg *config.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

func (r *runner) config() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// trigger runs a batch and logs its failure.
func (r *runner) trigger(ctx context.Context, reason string) {
	if err := r.run(ctx, reason); err != nil {
		slog.Error("run failed", "reason", reason, "err", err)
	}
}

// errBusy is returned by run when another batch holds the runner.
var errBusy = fmt.Errorf("calc: run in progress")

func (r *runner) run(ctx context.Context, reason string) error {
	if !r.busy.CompareAndSwap(false, true) {
		slog.Warn("calc: run skipped, previous run still in progress", "reason", reason)
		return errBusy
	}
	defer r.busy.Store(false)

	start := time.Now()
	slog.Debug("calc: run started", "reason", reason)
	if err := r.batch(ctx, r.config()); err != nil {
		return err
	}
	slog.Info("calc: run finished", "reason", reason, "duration", time.Since(start))
	return nil
}

// runBatch loads, filters, computes, writes and publishes one report.
func runBatch(ctx context.Context, cfg *config.Config) error {
	c := cfg.Calc

	src, err := registry.Open(c.RegistrySource())
	if err != nil {
		return err
	}
	defer src.Close()

	tbl, err := src.Load(ctx)
	if err != nil {
		return err
	}
	loaded := tbl.Len()
	if f := c.RowFilter(); f.Active() {
		if tbl, err = f.Apply(tbl); err != nil {
			return err
		}
	}
	slog.Info("calc: extract loaded", "source", c.Source.Type, "rows", loaded, "kept", tbl.Len())

	rep, err := stats.Compute(tbl, c.Options())
	if err != nil {
		return err
	}
	wire := rep.Wire(c.Scope())

	if c.Output.Path == "" {
		if err := export.Write(os.Stdout, wire, c.Format()); err != nil {
			return err
		}
	} else {
		if err := export.WriteFile(c.Output.Path, wire, c.Format()); err != nil {
			return err
		}
		slog.Info("calc: report written", "path", c.Output.Path, "format", c.Format())
	}

	if c.Publish.Enabled() {
		p, err := publish.New(c.PublishOptions())
		if err != nil {
			return err
		}
		if err := p.Publish(ctx, wire); err != nil {
			return err
		}
	}
	return nil
}
