// Package transport carries captured forests and events between the
// on-device relay and the remote controller over a long-lived
// bidirectional CBOR stream, plus two deprecated unary calls kept for
// backward compatibility.
package transport

import (
	"context"
	"net"
	"time"

	"github.com/tobyv/a11yrelay/internal/model"
)

// State is the client channel state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Pusher is the logical push capability: forward one forest or one
// event to the controller. The streaming client and the deprecated
// unary binding both implement it; capture logic sees only this.
type Pusher interface {
	PushForest(forest *model.Forest) error
	PushEvent(event map[string]string) error
}

// Dialer opens connections to the controller.
type Dialer interface {
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// TCPDialer dials the controller over TCP.
type TCPDialer struct {
	// Timeout is the maximum time to wait for the TCP connection. Zero
	// means only the context deadline applies.
	Timeout time.Duration
}

// DialContext opens a TCP connection to the given "host:port" address.
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}

// RetryPolicy decides whether to retry a failed connect and after how
// long. Reconnect policy belongs to the embedding collaborator; the
// relay only consults the policy it was given.
type RetryPolicy interface {
	// NextDelay returns the wait before retry attempt. attempt counts
	// consecutive failures starting at 1. ok=false stops retrying.
	NextDelay(attempt int) (delay time.Duration, ok bool)
}

// NoRetry never retries; each failed connect surfaces immediately and
// the next external trigger (tick with a valid endpoint) tries again.
type NoRetry struct{}

func (NoRetry) NextDelay(int) (time.Duration, bool) { return 0, false }
