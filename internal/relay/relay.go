// Package relay runs the on-device capture-and-forwarding loop: a
// periodic trigger, inbound pull-requests, and the control plane all
// converge on one capture worker pushing forests to the controller.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/tobyv/a11yrelay/internal/capture"
	"github.com/tobyv/a11yrelay/internal/flags"
	"github.com/tobyv/a11yrelay/internal/source"
	"github.com/tobyv/a11yrelay/internal/transport"
)

// Relay wires the accessibility provider, the flag store and the
// transport client into the capture pipeline.
type Relay struct {
	provider source.Provider
	store    *flags.Store
	client   *transport.Client
	retry    transport.RetryPolicy
	logger   *slog.Logger

	// triggers carries pending capture requests from the ticker and
	// from inbound pull-requests. Capacity 1: while a capture is in
	// flight at most one more is queued; further triggers coalesce
	// into it, bounding queue growth under a slow channel.
	triggers chan struct{}
}

// New creates a relay. retry may be nil for no connect retries; the
// next enabled tick tries again.
func New(provider source.Provider, store *flags.Store, dialer transport.Dialer, retry transport.RetryPolicy, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if retry == nil {
		retry = transport.NoRetry{}
	}
	r := &Relay{
		provider: provider,
		store:    store,
		retry:    retry,
		logger:   logger,
		triggers: make(chan struct{}, 1),
	}
	// A pull-request is served by the in-flight capture's result or by
	// the one it queues; either way the forest comes back on the same
	// channel the request arrived on.
	r.client = transport.NewClient(dialer, r.trigger, logger)
	return r
}

// State returns the transport channel state.
func (r *Relay) State() transport.State {
	return r.client.State()
}

// Run drives the relay until ctx is cancelled. Captures already in
// progress run to completion; a disable takes effect no later than the
// next scheduled tick.
func (r *Relay) Run(ctx context.Context) error {
	go r.forwardEvents(ctx)
	go r.captureLoop(ctx)
	r.tickLoop(ctx)
	return nil
}

// trigger requests a capture, coalescing with any already-pending one.
func (r *Relay) trigger() {
	select {
	case r.triggers <- struct{}{}:
	default:
	}
}

func (r *Relay) tickLoop(ctx context.Context) {
	// The period is re-read from the flag store on every tick.
	timer := time.NewTimer(r.store.CapturePeriod())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			r.client.Close()
			return
		case <-timer.C:
			if r.store.CaptureEnabled() {
				r.ensureConnected(ctx)
				r.trigger()
			}
			timer.Reset(r.store.CapturePeriod())
		}
	}
}

// ensureConnected dials when capture is enabled, a valid endpoint is
// configured, and the channel is down. Retries follow the configured
// policy; with no retries a failure simply waits for the next tick.
func (r *Relay) ensureConnected(ctx context.Context) {
	if r.client.State() != transport.StateDisconnected || !r.store.EndpointEnabled() {
		return
	}
	address := r.store.Addr()
	for attempt := 1; ; attempt++ {
		err := r.client.Connect(ctx, address)
		if err == nil {
			return
		}
		delay, retryable := r.retry.NextDelay(attempt)
		if !retryable {
			r.logger.Warn("connect failed", "address", address, "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (r *Relay) captureLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.triggers:
			r.captureAndPush()
		}
	}
}

func (r *Relay) captureAndPush() {
	windows, err := r.provider.Windows()
	if err != nil {
		r.logger.Warn("window enumeration failed", "error", err)
		windows = nil
	}
	forest := capture.CaptureForest(windows)
	if err := r.client.PushForest(&forest); err != nil {
		// The computed capture is discarded; the controller's signal is
		// the absence of forests.
		r.logger.Debug("forest dropped", "error", err, "windows", len(forest.Windows))
	}
}

func (r *Relay) forwardEvents(ctx context.Context) {
	events := r.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := r.client.PushEvent(event); err != nil {
				r.logger.Debug("event dropped", "error", err)
			}
		}
	}
}
