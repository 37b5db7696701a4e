package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/wire"
)

// ErrNoStream is returned by RequestForest when no device is connected
// on the bidi channel.
var ErrNoStream = errors.New("transport: no device stream connected")

// Collector is the controller side of the protocol: it accepts device
// connections, buffers received forests and events, and can pull a
// fresh forest from the connected device on demand. It also answers
// the two deprecated unary calls.
type Collector struct {
	logger *slog.Logger

	// latestForestOnly keeps only the newest buffered forest instead of
	// the full history between gathers.
	latestForestOnly bool

	mu      sync.Mutex
	paused  bool
	forests []model.Forest
	events  []map[string]string
	stream  *collectorStream
	waiters []chan model.Forest
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithLatestForestOnly keeps only the newest buffered forest.
func WithLatestForestOnly() CollectorOption {
	return func(c *Collector) { c.latestForestOnly = true }
}

// NewCollector creates a collector. Buffering starts paused, matching
// the reset-then-resume lifecycle of the embedding environment.
func NewCollector(logger *slog.Logger, opts ...CollectorOption) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{logger: logger, paused: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Serve accepts connections until ctx is cancelled or the listener
// fails. Each connection is handled on its own goroutine.
func (c *Collector) Serve(ctx context.Context, l net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport: accept: %w", err)
		}
		go c.handleConn(ctx, conn)
	}
}

func (c *Collector) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	dec := wire.NewDecoder(conn)
	var hello wire.Hello
	if err := dec.Decode(&hello); err != nil {
		c.logger.Warn("dropping connection without hello", "error", err)
		return
	}
	switch hello.Method {
	case wire.MethodBidi:
		c.serveBidi(conn, dec)
	case wire.MethodSendForest:
		c.serveSendForest(conn, dec)
	case wire.MethodSendEvent:
		c.serveSendEvent(conn, dec)
	default:
		c.logger.Warn("unknown method", "method", hello.Method)
	}
}

// collectorStream serializes writes to one bidi connection.
type collectorStream struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

func (s *collectorStream) send(msg wire.ServerToClient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(msg)
}

func (c *Collector) serveBidi(conn net.Conn, dec *cbor.Decoder) {
	stream := &collectorStream{enc: wire.NewEncoder(conn)}

	// First frame unblocks the device's receive loop before any
	// pull-request exists.
	if err := stream.send(wire.ServerToClient{}); err != nil {
		return
	}

	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()
	c.logger.Info("device stream connected", "remote", conn.RemoteAddr())
	defer func() {
		c.mu.Lock()
		if c.stream == stream {
			c.stream = nil
		}
		c.mu.Unlock()
		c.logger.Info("device stream closed", "remote", conn.RemoteAddr())
	}()

	for {
		var msg wire.ClientToServer
		if err := dec.Decode(&msg); err != nil {
			if err != io.EOF {
				c.logger.Warn("stream read failed", "error", err)
			}
			return
		}
		switch {
		case msg.Event != nil:
			c.recordEvent(msg.Event.Event)
		case msg.Forest != nil:
			c.recordForest(*msg.Forest)
		default:
			c.logger.Warn("stream frame with no payload")
		}
		// Ack so the device can interleave reads with its pushes.
		if err := stream.send(wire.ServerToClient{}); err != nil {
			return
		}
	}
}

func (c *Collector) serveSendForest(conn net.Conn, dec *cbor.Decoder) {
	var resp wire.ForestResponse
	var forest model.Forest
	if err := dec.Decode(&forest); err != nil {
		resp.Error = fmt.Sprintf("decode forest: %v", err)
	} else {
		c.recordForest(forest)
	}
	if err := wire.NewEncoder(conn).Encode(resp); err != nil {
		c.logger.Warn("send-forest response failed", "error", err)
	}
}

func (c *Collector) serveSendEvent(conn net.Conn, dec *cbor.Decoder) {
	var resp wire.EventResponse
	var payload wire.EventPayload
	if err := dec.Decode(&payload); err != nil {
		resp.Error = fmt.Sprintf("decode event: %v", err)
	} else {
		c.recordEvent(payload.Event)
	}
	if err := wire.NewEncoder(conn).Encode(resp); err != nil {
		c.logger.Warn("send-event response failed", "error", err)
	}
}

func (c *Collector) recordForest(forest model.Forest) {
	c.mu.Lock()
	// Pull waiters are satisfied even while paused: a requested forest
	// is an answer, not ambient history.
	waiters := c.waiters
	c.waiters = nil
	if !c.paused {
		if c.latestForestOnly {
			c.forests = c.forests[:0]
		}
		c.forests = append(c.forests, forest)
	}
	c.mu.Unlock()
	for _, w := range waiters {
		w <- forest
	}
}

func (c *Collector) recordEvent(event map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.events = append(c.events, event)
}

// RequestForest sends a pull-request to the connected device and waits
// for the next forest it pushes.
func (c *Collector) RequestForest(ctx context.Context) (model.Forest, error) {
	c.mu.Lock()
	stream := c.stream
	if stream == nil {
		c.mu.Unlock()
		return model.Forest{}, ErrNoStream
	}
	waiter := make(chan model.Forest, 1)
	c.waiters = append(c.waiters, waiter)
	c.mu.Unlock()

	if err := stream.send(wire.ServerToClient{GetForest: &wire.GetForest{}}); err != nil {
		c.removeWaiter(waiter)
		return model.Forest{}, fmt.Errorf("transport: pull-request: %w", err)
	}
	select {
	case forest := <-waiter:
		return forest, nil
	case <-ctx.Done():
		c.removeWaiter(waiter)
		return model.Forest{}, ctx.Err()
	}
}

func (c *Collector) removeWaiter(waiter chan model.Forest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == waiter {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// GatherForests drains and returns the buffered forests.
func (c *Collector) GatherForests() []model.Forest {
	c.mu.Lock()
	defer c.mu.Unlock()
	forests := c.forests
	c.forests = nil
	return forests
}

// GatherEvents drains and returns the buffered events.
func (c *Collector) GatherEvents() []map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}

// PauseAndClear stops buffering and discards anything already buffered.
// Used around environment resets: stale captures from before the reset
// must not leak into the next episode.
func (c *Collector) PauseAndClear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
	c.forests = nil
	c.events = nil
}

// Resume restarts buffering after a reset.
func (c *Collector) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}
