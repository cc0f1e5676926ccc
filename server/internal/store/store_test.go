package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/strokestats/strokestats/pkg/types"
)

func report(scope string) *types.Report {
	return &types.Report{Scope: scope, Columns: []string{"Total Patients"}}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(0, 0)
	st.Put(report("cz"))

	e, ok := st.Get("cz")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Report.Scope != "cz" {
		t.Errorf("Scope: got %q, want cz", e.Report.Scope)
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(0, 0)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(0, 0)
	r1 := report("cz")
	r1.RunID = "first"
	r2 := report("cz")
	r2.RunID = "second"

	st.Put(r1)
	st.Put(r2)

	e, ok := st.Get("cz")
	if !ok {
		t.Fatal("Get: expected entry after two Puts")
	}
	if e.Report.RunID != "second" {
		t.Errorf("RunID: got %q, want second", e.Report.RunID)
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
}

func TestPut_CapEvictsOldest(t *testing.T) {
	base := time.Now()
	st := New(2, 0)

	st.now = fixedClock(base.Add(-2 * time.Minute))
	st.Put(report("cz"))
	st.now = fixedClock(base.Add(-time.Minute))
	st.Put(report("sk"))

	// Replacing an existing scope never evicts.
	st.now = fixedClock(base)
	if ev := st.Put(report("sk")); ev != "" {
		t.Errorf("replace evicted %q", ev)
	}
	if ev := st.Put(report("pt")); ev != "cz" {
		t.Errorf("evicted %q, want cz", ev)
	}
	if _, ok := st.Get("cz"); ok {
		t.Error("cz still present after eviction")
	}
	if st.Count() != 2 {
		t.Errorf("Count: got %d, want 2", st.Count())
	}
}

func TestList_SortedAndExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(0, 5*time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	st.Put(report("old"))

	st.now = fixedClock(base)
	st.Put(report("sk"))
	st.Put(report("cz"))

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if entries[0].Report.Scope != "cz" || entries[1].Report.Scope != "sk" {
		t.Errorf("List order: %q, %q", entries[0].Report.Scope, entries[1].Report.Scope)
	}
	if _, ok := st.Get("old"); ok {
		t.Error("Get returned a stale entry")
	}
	// Count includes the stale entry until evicted.
	if n := st.Count(); n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(0, 5*time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(report("old1"))
	st.Put(report("old2"))

	st.now = fixedClock(base)
	st.Put(report("live"))

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoTTL(t *testing.T) {
	st := New(0, 0)
	st.now = fixedClock(time.Now().Add(-1000 * time.Hour))
	st.Put(report("cz"))

	if removed := st.Evict(time.Now()); removed != 0 {
		t.Errorf("Evict without TTL: removed %d, want 0", removed)
	}
	if len(st.List()) != 1 {
		t.Error("entry hidden without TTL")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	for _, ttl := range []time.Duration{0, time.Minute} {
		st := New(0, ttl)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() { st.Run(ctx); close(done) }()
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Run(ttl=%v) did not return after cancel", ttl)
		}
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(4, time.Minute)
	var wg sync.WaitGroup

	scopes := []string{"cz", "sk", "pt", "es", "it", "de"}
	for i := 0; i < 60; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			st.Put(report(scopes[n%len(scopes)]))
		}(i)
		go func() {
			defer wg.Done()
			st.List()
		}()
	}
	wg.Wait()

	if st.Count() > 4 {
		t.Errorf("Count after concurrent puts: got %d, want <= 4", st.Count())
	}
}
