package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/wire"
)

// ErrNotConnected is returned by pushes while the channel is not open.
var ErrNotConnected = errors.New("transport: channel not open")

// defaultHandshakeTimeout bounds the post-dial handshake when neither
// the context nor the client supplies a deadline. A peer that accepts
// the TCP connection but never sends the unblocking first frame must
// not block Connect forever.
const defaultHandshakeTimeout = 10 * time.Second

// Client is the device side of the bidirectional channel. It moves
// through DISCONNECTED → CONNECTING → OPEN, and back to DISCONNECTED on
// remote close, local Close, or any channel error. It never reconnects
// on its own; the owning driver decides when to call Connect again.
type Client struct {
	dialer Dialer
	logger *slog.Logger

	// onPull is invoked from the read loop for every inbound
	// pull-request. It must not block indefinitely.
	onPull func()

	// HandshakeTimeout bounds the Hello exchange in Connect. Zero means
	// defaultHandshakeTimeout; an earlier ctx deadline still wins.
	HandshakeTimeout time.Duration

	mu    sync.Mutex // guards state, conn and enc
	state State
	conn  net.Conn
	enc   *cbor.Encoder
}

// NewClient creates a disconnected client. onPull is called for each
// controller pull-request; it may be nil.
func NewClient(dialer Dialer, onPull func(), logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{dialer: dialer, onPull: onPull, logger: logger}
}

// State returns the current channel state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect performs the handshake: dial, announce the bidi method, and
// wait for the controller's unblocking first frame. On success the
// channel is OPEN and a background read loop serves pull-requests. On
// failure the client is back in DISCONNECTED and the error is returned
// to the caller; no retry happens here.
func (c *Client) Connect(ctx context.Context, address string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("transport: connect in state %s", state)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dialer.DialContext(ctx, address)
	if err != nil {
		c.setDisconnected()
		return fmt.Errorf("transport: dial %s: %w", address, err)
	}

	// The handshake always runs under a deadline, cleared once open.
	timeout := c.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)
	enc := wire.NewEncoder(conn)
	dec := wire.NewDecoder(conn)
	if err := enc.Encode(wire.Hello{Method: wire.MethodBidi}); err != nil {
		conn.Close()
		c.setDisconnected()
		return fmt.Errorf("transport: handshake: %w", err)
	}
	var first wire.ServerToClient
	if err := dec.Decode(&first); err != nil {
		conn.Close()
		c.setDisconnected()
		return fmt.Errorf("transport: handshake: %w", err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Close raced the handshake.
		c.mu.Unlock()
		conn.Close()
		c.setDisconnected()
		return fmt.Errorf("transport: closed during connect")
	}
	conn.SetDeadline(time.Time{})
	c.conn = conn
	c.enc = enc
	c.state = StateOpen
	c.mu.Unlock()

	c.logger.Info("channel open", "address", address)
	c.handleFrame(first)
	go c.readLoop(dec)
	return nil
}

// Close tears the channel down. Safe to call in any state.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		// The read loop observes the closed conn and finishes teardown.
		conn.Close()
	} else {
		c.setDisconnected()
	}
	return nil
}

// PushForest sends one forest on the open channel.
func (c *Client) PushForest(forest *model.Forest) error {
	return c.push(wire.ClientToServer{Forest: forest})
}

// PushEvent sends one discrete UI event on the open channel.
func (c *Client) PushEvent(event map[string]string) error {
	return c.push(wire.ClientToServer{Event: &wire.EventPayload{Event: event}})
}

// push serializes stream writes; with a single producer, wire order
// equals capture order.
func (c *Client) push(msg wire.ClientToServer) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return ErrNotConnected
	}
	err := c.enc.Encode(msg)
	c.mu.Unlock()
	if err != nil {
		c.teardown(err)
		return fmt.Errorf("transport: push: %w", err)
	}
	return nil
}

func (c *Client) readLoop(dec *cbor.Decoder) {
	for {
		var msg wire.ServerToClient
		if err := dec.Decode(&msg); err != nil {
			c.teardown(err)
			return
		}
		c.handleFrame(msg)
	}
}

func (c *Client) handleFrame(msg wire.ServerToClient) {
	// Frames without a pull-request are keep-alives/acks.
	if msg.GetForest != nil && c.onPull != nil {
		c.onPull()
	}
}

// teardown moves to DISCONNECTED from any state, closing the conn.
// An already-computed but unsent capture is simply dropped by the next
// failed push.
func (c *Client) teardown(cause error) {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	wasClosing := c.state == StateClosing
	conn := c.conn
	c.conn = nil
	c.enc = nil
	c.state = StateDisconnected
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if wasClosing {
		c.logger.Info("channel closed")
	} else {
		c.logger.Warn("channel lost", "error", cause)
	}
}

func (c *Client) setDisconnected() {
	c.mu.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.enc = nil
	c.mu.Unlock()
}
