package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/tobyv/a11yrelay/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startCollector runs a collector on a loopback listener and returns
// it, its address, and a stop function.
func startCollector(t *testing.T, opts ...CollectorOption) (*Collector, string, func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	c := NewCollector(testLogger(), opts...)
	c.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	go c.Serve(ctx, l)
	return c, l.Addr().String(), cancel
}

// drainForests polls the collector until n forests arrived or the
// deadline passes.
func drainForests(t *testing.T, c *Collector, n int) []model.Forest {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var got []model.Forest
	for time.Now().Before(deadline) {
		got = append(got, c.GatherForests()...)
		if len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d forests, got %d", n, len(got))
	return nil
}

func testForest(title string) *model.Forest {
	return &model.Forest{Windows: []model.Window{{
		ID:    1,
		Title: title,
		Tree: model.Tree{Nodes: []model.Node{
			{UniqueID: 0, Text: "root", ChildIDs: []int{1}},
			{UniqueID: 1, Text: "child", Depth: 1},
		}},
	}}}
}

func TestClient_ConnectAndPush(t *testing.T) {
	collector, addr, stop := startCollector(t)
	defer stop()

	client := NewClient(&TCPDialer{}, nil, testLogger())
	if client.State() != StateDisconnected {
		t.Fatalf("initial state %s, want disconnected", client.State())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
	if client.State() != StateOpen {
		t.Fatalf("state after connect %s, want open", client.State())
	}

	if err := client.PushForest(testForest("first")); err != nil {
		t.Fatalf("push forest: %v", err)
	}
	if err := client.PushEvent(map[string]string{"event_type": "TYPE_VIEW_CLICKED"}); err != nil {
		t.Fatalf("push event: %v", err)
	}

	forests := drainForests(t, collector, 1)
	if forests[0].Windows[0].Title != "first" {
		t.Errorf("forest title %q, want %q", forests[0].Windows[0].Title, "first")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		events := collector.GatherEvents()
		if len(events) > 0 {
			if events[0]["event_type"] != "TYPE_VIEW_CLICKED" {
				t.Errorf("event payload %v", events[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("event never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_PushWhileDisconnected(t *testing.T) {
	client := NewClient(&TCPDialer{}, nil, testLogger())
	if err := client.PushForest(testForest("x")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := client.PushEvent(map[string]string{"k": "v"}); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_ConnectFailureReturnsToDisconnected(t *testing.T) {
	// A listener that is immediately closed: dial fails.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	client := NewClient(&TCPDialer{Timeout: 500 * time.Millisecond}, nil, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx, addr); err == nil {
		t.Fatal("expected connect error")
	}
	if client.State() != StateDisconnected {
		t.Errorf("state after failed connect %s, want disconnected", client.State())
	}
}

func TestClient_SilentPeerHandshakeTimesOut(t *testing.T) {
	// A peer that accepts the connection but never sends the unblocking
	// first frame. Connect must give up instead of wedging its caller.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}()

	client := NewClient(&TCPDialer{}, nil, testLogger())
	client.HandshakeTimeout = 200 * time.Millisecond

	start := time.Now()
	err = client.Connect(context.Background(), l.Addr().String())
	if err == nil {
		t.Fatal("expected handshake timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("connect took %v, handshake deadline not applied", elapsed)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state after handshake timeout %s, want disconnected", client.State())
	}
}

func TestClient_ServesPullRequests(t *testing.T) {
	collector, addr, stop := startCollector(t)
	defer stop()

	var client *Client
	client = NewClient(&TCPDialer{}, func() {
		client.PushForest(testForest("pulled"))
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	forest, err := collector.RequestForest(ctx)
	if err != nil {
		t.Fatalf("request forest: %v", err)
	}
	if forest.Windows[0].Title != "pulled" {
		t.Errorf("pulled forest title %q", forest.Windows[0].Title)
	}
}

func TestClient_RemoteCloseDisconnects(t *testing.T) {
	_, addr, stop := startCollector(t)

	client := NewClient(&TCPDialer{}, nil, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("connect: %v", err)
	}

	stop() // tears down the collector and its connections

	deadline := time.Now().Add(2 * time.Second)
	for client.State() != StateDisconnected {
		if time.Now().After(deadline) {
			t.Fatalf("state %s, want disconnected after remote close", client.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_CloseThenReconnect(t *testing.T) {
	_, addr, stop := startCollector(t)
	defer stop()

	client := NewClient(&TCPDialer{}, nil, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("connect: %v", err)
	}
	client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for client.State() != StateDisconnected {
		if time.Now().After(deadline) {
			t.Fatalf("state %s, want disconnected after close", client.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The external driver may connect again after a clean close.
	if err := client.Connect(ctx, addr); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer client.Close()
	if client.State() != StateOpen {
		t.Errorf("state after reconnect %s, want open", client.State())
	}
}

func TestUnaryClient_SendForestAndEvent(t *testing.T) {
	collector, addr, stop := startCollector(t)
	defer stop()

	unary := &UnaryClient{Dialer: &TCPDialer{}, Address: addr, Timeout: 2 * time.Second}
	if err := unary.PushForest(testForest("legacy")); err != nil {
		t.Fatalf("unary push forest: %v", err)
	}
	if err := unary.PushEvent(map[string]string{"event_type": "TYPE_ANNOUNCEMENT"}); err != nil {
		t.Fatalf("unary push event: %v", err)
	}

	forests := drainForests(t, collector, 1)
	if forests[0].Windows[0].Title != "legacy" {
		t.Errorf("forest title %q, want %q", forests[0].Windows[0].Title, "legacy")
	}
}

func TestPusherBindings(t *testing.T) {
	// Both transports bind the same logical capability.
	var _ Pusher = (*Client)(nil)
	var _ Pusher = (*UnaryClient)(nil)
}
