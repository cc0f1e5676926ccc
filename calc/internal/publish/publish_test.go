package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/strokestats/strokestats/pkg/types"
)

// mockServer records the reports it accepts. The first failN requests get
// status failCode.
type mockServer struct {
	mu       sync.Mutex
	received []types.Report
	keys     []string
	failN    int
	failCode int
}

func (m *mockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Method != http.MethodPost || r.URL.Path != "/api/v1/reports" {
		http.NotFound(w, r)
		return
	}
	m.keys = append(m.keys, r.Header.Get("X-API-Key"))
	if m.failN > 0 {
		m.failN--
		http.Error(w, "mock failure", m.failCode)
		return
	}
	var rep types.Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.received = append(m.received, rep)
	w.WriteHeader(http.StatusAccepted)
}

func (m *mockServer) requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func report() *types.Report {
	return &types.Report{
		RunID:   "r1",
		Scope:   "cz",
		Columns: []string{"Total Patients"},
		Sites:   []types.SiteRow{{SiteID: "CZ_1", Values: []float64{40}, Award: "GOLD", AwardOld: "GOLD"}},
	}
}

// newPublisher points a Publisher at srv and records the backoff waits
// instead of sleeping.
func newPublisher(t *testing.T, srv http.Handler, cfg Config) (*Publisher, *[]time.Duration) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	cfg.Endpoint = ts.URL + "/"
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var waits []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return p, &waits
}

func TestPublish_Delivers(t *testing.T) {
	srv := &mockServer{}
	p, waits := newPublisher(t, srv, Config{Key: "secret"})

	if err := p.Publish(context.Background(), report()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(srv.received) != 1 || srv.received[0].Scope != "cz" || srv.received[0].Sites[0].Award != "GOLD" {
		t.Errorf("received = %+v", srv.received)
	}
	if srv.keys[0] != "secret" {
		t.Errorf("api key header = %q", srv.keys[0])
	}
	if len(*waits) != 0 {
		t.Errorf("unexpected retries: %v", *waits)
	}
}

func TestPublish_RetriesServerErrors(t *testing.T) {
	srv := &mockServer{failN: 2, failCode: http.StatusServiceUnavailable}
	p, waits := newPublisher(t, srv, Config{})

	if err := p.Publish(context.Background(), report()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := srv.requests(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if len(*waits) != 2 {
		t.Fatalf("waits = %v, want 2", *waits)
	}
	if (*waits)[1] <= (*waits)[0]/2 {
		t.Errorf("backoff did not grow: %v", *waits)
	}
	if srv.keys[0] != "" {
		t.Errorf("api key sent without config: %q", srv.keys[0])
	}
}

func TestPublish_RejectedIsPermanent(t *testing.T) {
	srv := &mockServer{failN: 5, failCode: http.StatusUnauthorized}
	p, _ := newPublisher(t, srv, Config{})

	err := p.Publish(context.Background(), report())
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if got := srv.requests(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestPublish_GivesUp(t *testing.T) {
	srv := &mockServer{failN: 10, failCode: http.StatusBadGateway}
	p, waits := newPublisher(t, srv, Config{MaxAttempts: 3})

	if err := p.Publish(context.Background(), report()); err == nil {
		t.Fatal("expected error after max attempts")
	}
	if got := srv.requests(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if len(*waits) != 2 {
		t.Errorf("waits = %d, want 2", len(*waits))
	}
}

func TestPublish_Cancelled(t *testing.T) {
	srv := &mockServer{failN: 10, failCode: http.StatusInternalServerError}
	p, _ := newPublisher(t, srv, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	err := p.Publish(ctx, report())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{Endpoint: "http://reports:8080/"})
	if err != nil {
		t.Fatal(err)
	}
	if p.url != "http://reports:8080/api/v1/reports" {
		t.Errorf("url = %q", p.url)
	}
	if p.cfg.Header != DefaultHeader || p.cfg.Timeout != DefaultTimeout || p.cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("defaults = %+v", p.cfg)
	}
}

// --- backoff -----------------------------------------------------------------

func TestBackoff_FirstIsAboutInitial(t *testing.T) {
	d := newBackoff().next()
	if d < backoffInitial*3/4 || d > backoffInitial*5/4 {
		t.Errorf("first backoff = %v, want within 25%% of %v", d, backoffInitial)
	}
}

func TestBackoff_NeverExceedsMax(t *testing.T) {
	b := newBackoff()
	for i := 0; i < 50; i++ {
		if d := b.next(); d > backoffMax*5/4 {
			t.Errorf("backoff[%d] = %v, exceeds max with jitter", i, d)
		}
	}
}
