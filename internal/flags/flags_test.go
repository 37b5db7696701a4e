package flags

import (
	"testing"
	"time"
)

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore()
	if s.CaptureEnabled() {
		t.Error("capture must default to disabled")
	}
	if s.CapturePeriod() != 100*time.Millisecond {
		t.Errorf("default period %v, want 100ms", s.CapturePeriod())
	}
	host, port := s.Endpoint()
	if host != DefaultRemoteHost {
		t.Errorf("default host %q, want %q", host, DefaultRemoteHost)
	}
	if port != 0 {
		t.Errorf("default port %d, want 0", port)
	}
	if s.EndpointEnabled() {
		t.Error("endpoint must default to disabled")
	}
}

func TestStore_SetEndpoint(t *testing.T) {
	s := NewStore()
	s.SetEndpoint("controller.local", 9999)
	host, port := s.Endpoint()
	if host != "controller.local" || port != 9999 {
		t.Errorf("endpoint = %s:%d, want controller.local:9999", host, port)
	}
	if !s.EndpointEnabled() {
		t.Error("endpoint with positive port must be enabled")
	}
	if s.Addr() != "controller.local:9999" {
		t.Errorf("addr %q", s.Addr())
	}

	s.SetEndpoint("", -1)
	host, port = s.Endpoint()
	if host != DefaultRemoteHost {
		t.Errorf("empty host must reset to default, got %q", host)
	}
	if s.EndpointEnabled() {
		t.Error("non-positive port must disable the endpoint")
	}
	_ = port
}

func TestStore_SetCapturePeriod(t *testing.T) {
	s := NewStore()
	s.SetCapturePeriod(250 * time.Millisecond)
	if s.CapturePeriod() != 250*time.Millisecond {
		t.Errorf("period %v, want 250ms", s.CapturePeriod())
	}
	s.SetCapturePeriod(0)
	if s.CapturePeriod() != DefaultCapturePeriod {
		t.Errorf("non-positive period must reset to default, got %v", s.CapturePeriod())
	}
}
