package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/strokestats/strokestats/pkg/types"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0

	// DefaultTimeout bounds one POST.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxAttempts bounds the retries of one Publish call.
	DefaultMaxAttempts = 5
	// DefaultHeader carries the API key.
	DefaultHeader = "X-API-Key"

	reportsPath = "/api/v1/reports"
)

// ErrRejected is returned when the server refuses a report with a 4xx status.
var ErrRejected = errors.New("report rejected")

// Config addresses the report server.
type Config struct {
	// Endpoint is the server base URL, e.g. http://reports:8080.
	Endpoint string

	// Header and Key authenticate the request. Key "" sends no header.
	Header string
	Key    string

	Timeout     time.Duration
	MaxAttempts int
}

// Publisher posts reports to one server.
type Publisher struct {
	cfg    Config
	url    string
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error // injectable for tests
}

// New returns a Publisher for cfg. Zero fields take their defaults.
func New(cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("publish: endpoint is required")
	}
	if cfg.Header == "" {
		cfg.Header = DefaultHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Publisher{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.Endpoint, "/") + reportsPath,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepCtx,
	}, nil
}

// Publish delivers r, retrying transient failures. It blocks until the
// report is accepted, rejected, the attempts run out or ctx is cancelled.
func (p *Publisher) Publish(ctx context.Context, r *types.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("publish: encode: %w", err)
	}

	bo := newBackoff()
	var last error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		last = p.send(ctx, body)
		if last == nil {
			slog.Info("publish: report delivered",
				"scope", r.Scope, "run_id", r.RunID, "sites", len(r.Sites), "attempt", attempt)
			return nil
		}
		if errors.Is(last, ErrRejected) || ctx.Err() != nil {
			break
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}
		wait := bo.next()
		slog.Warn("publish: send failed, will retry",
			"endpoint", p.cfg.Endpoint, "err", last, "attempt", attempt, "retry_in", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return fmt.Errorf("publish: %s: %w", r.Scope, last)
}

func (p *Publisher) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.Key != "" {
		req.Header.Set(p.cfg.Header, p.cfg.Key)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode < 500:
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(msg), ErrRejected)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
