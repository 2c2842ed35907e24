package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakePurger) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestPurgeTokensLogs(t *testing.T) {
	var logs bytes.Buffer
	s, err := New(log.New(&logs, "scheduler: ", 0))
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	p := &fakePurger{n: 4}
	s.PurgeTokens(p)
	if p.calls() != 1 || !p.cutoffs[0].Equal(fixed) || !strings.Contains(logs.String(), "purged 4") {
		t.Fatalf("unexpected purge: cutoffs=%v logs=%q", p.cutoffs, logs.String())
	}

	p.err = errors.New("db gone")
	s.PurgeTokens(p)
	if !strings.Contains(logs.String(), "db gone") {
		t.Fatalf("error not logged: %q", logs.String())
	}
	if strings.Contains(logs.String(), "scheduler: scheduler:") {
		t.Fatalf("logger prefix repeated: %q", logs.String())
	}
}

func TestTokenPurgeJobRuns(t *testing.T) {
	s, err := New(log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	p := &fakePurger{}
	if err := s.AddTokenPurge(p, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.calls() == 0 {
		t.Fatal("purge job never ran")
	}
}
