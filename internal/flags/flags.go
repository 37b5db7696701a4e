package flags

import (
	"fmt"
	"time"
)

const (
	// DefaultCapturePeriod is the interval between periodic captures.
	DefaultCapturePeriod = 100 * time.Millisecond

	// DefaultRemoteHost is the conventional loopback alias for the
	// workstation running the controller, as seen from the device.
	DefaultRemoteHost = "10.0.2.2"
)

// Store holds the process-wide, read-mostly capture configuration.
//
// The store is deliberately not internally synchronized: it follows a
// single-writer (the control-plane receiver) / many-reader (scheduler,
// transport) convention. Concurrent readers may observe a host/port
// pair assembled from two temporally adjacent writes; callers needing
// atomic multi-field consistency must add their own guard.
type Store struct {
	captureEnabled bool
	capturePeriod  time.Duration
	remoteHost     string
	remotePort     int
}

// NewStore returns a store initialized to defaults: capture disabled,
// 100ms period, default host, endpoint disabled (port 0).
func NewStore() *Store {
	return &Store{
		capturePeriod: DefaultCapturePeriod,
		remoteHost:    DefaultRemoteHost,
	}
}

// CaptureEnabled reports whether periodic capture is on.
func (s *Store) CaptureEnabled() bool { return s.captureEnabled }

// SetCaptureEnabled turns periodic capture on or off.
func (s *Store) SetCaptureEnabled(enabled bool) { s.captureEnabled = enabled }

// CapturePeriod returns the interval between periodic captures.
func (s *Store) CapturePeriod() time.Duration { return s.capturePeriod }

// SetCapturePeriod sets the interval between periodic captures.
// Non-positive values reset to the default.
func (s *Store) SetCapturePeriod(d time.Duration) {
	if d <= 0 {
		d = DefaultCapturePeriod
	}
	s.capturePeriod = d
}

// Endpoint returns the remote controller host and port.
func (s *Store) Endpoint() (host string, port int) {
	return s.remoteHost, s.remotePort
}

// SetEndpoint sets the remote controller endpoint. An empty host means
// the default loopback alias. Port 0 or below disables the endpoint.
func (s *Store) SetEndpoint(host string, port int) {
	if host == "" {
		host = DefaultRemoteHost
	}
	s.remoteHost = host
	s.remotePort = port
}

// EndpointEnabled reports whether a usable endpoint is configured.
func (s *Store) EndpointEnabled() bool { return s.remotePort > 0 }

// Addr returns the endpoint as "host:port". Meaningless when the
// endpoint is disabled.
func (s *Store) Addr() string {
	return fmt.Sprintf("%s:%d", s.remoteHost, s.remotePort)
}
