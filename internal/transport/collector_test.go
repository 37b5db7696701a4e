package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestCollector_StartsPaused(t *testing.T) {
	collector, addr, stop := startCollectorPaused(t)
	defer stop()

	unary := &UnaryClient{Dialer: &TCPDialer{}, Address: addr, Timeout: 2 * time.Second}
	if err := unary.PushForest(testForest("ignored")); err != nil {
		t.Fatalf("unary push: %v", err)
	}
	if got := collector.GatherForests(); len(got) != 0 {
		t.Errorf("paused collector buffered %d forests", len(got))
	}
}

// startCollectorPaused is startCollector without the Resume call.
func startCollectorPaused(t *testing.T, opts ...CollectorOption) (*Collector, string, func()) {
	t.Helper()
	c, addr, stop := startCollector(t, opts...)
	c.PauseAndClear()
	return c, addr, stop
}

func TestCollector_PauseAndClearDiscardsBuffer(t *testing.T) {
	collector, addr, stop := startCollector(t)
	defer stop()

	unary := &UnaryClient{Dialer: &TCPDialer{}, Address: addr, Timeout: 2 * time.Second}
	if err := unary.PushForest(testForest("stale")); err != nil {
		t.Fatalf("unary push: %v", err)
	}
	if err := unary.PushEvent(map[string]string{"event_type": "TYPE_VIEW_CLICKED"}); err != nil {
		t.Fatalf("unary event: %v", err)
	}
	// Unary calls complete only after the collector recorded the
	// payload, so the buffer is populated at this point.
	collector.PauseAndClear()
	if got := collector.GatherForests(); len(got) != 0 {
		t.Errorf("expected cleared forests, got %d", len(got))
	}
	if got := collector.GatherEvents(); len(got) != 0 {
		t.Errorf("expected cleared events, got %d", len(got))
	}

	collector.Resume()
	if err := unary.PushForest(testForest("fresh")); err != nil {
		t.Fatalf("unary push: %v", err)
	}
	forests := drainForests(t, collector, 1)
	if forests[0].Windows[0].Title != "fresh" {
		t.Errorf("forest title %q, want %q", forests[0].Windows[0].Title, "fresh")
	}
}

func TestCollector_LatestForestOnly(t *testing.T) {
	collector, addr, stop := startCollector(t, WithLatestForestOnly())
	defer stop()

	unary := &UnaryClient{Dialer: &TCPDialer{}, Address: addr, Timeout: 2 * time.Second}
	// Unary pushes complete only after the collector recorded them, so
	// all three are buffered (or rather, replaced) by the end of the loop.
	for _, title := range []string{"one", "two", "three"} {
		if err := unary.PushForest(testForest(title)); err != nil {
			t.Fatalf("unary push %s: %v", title, err)
		}
	}

	forests := collector.GatherForests()
	if len(forests) != 1 {
		t.Fatalf("latest-only collector kept %d forests", len(forests))
	}
	if forests[0].Windows[0].Title != "three" {
		t.Errorf("kept forest %q, want the newest", forests[0].Windows[0].Title)
	}
}

func TestCollector_ServeReturnsOnListenerClose(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	collector := NewCollector(testLogger())

	served := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { served <- collector.Serve(ctx, l) }()

	// Closing the listener with the context still live must surface an
	// accept error instead of leaving Serve (or its watcher) behind.
	l.Close()
	select {
	case err := <-served:
		if err == nil {
			t.Error("expected an accept error from Serve")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after listener close")
	}
}

func TestCollector_RequestForestWithoutStream(t *testing.T) {
	collector := NewCollector(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := collector.RequestForest(ctx); err != ErrNoStream {
		t.Errorf("expected ErrNoStream, got %v", err)
	}
}

func TestCollector_GatherDrains(t *testing.T) {
	collector, addr, stop := startCollector(t)
	defer stop()

	unary := &UnaryClient{Dialer: &TCPDialer{}, Address: addr, Timeout: 2 * time.Second}
	if err := unary.PushForest(testForest("only")); err != nil {
		t.Fatalf("unary push: %v", err)
	}
	drainForests(t, collector, 1)
	if got := collector.GatherForests(); len(got) != 0 {
		t.Errorf("gather must drain, second call returned %d", len(got))
	}
}
