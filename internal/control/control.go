// Package control dispatches out-of-band control-plane actions that
// mutate the process-wide flag store at runtime.
package control

import (
	"log/slog"

	"github.com/tobyv/a11yrelay/internal/flags"
)

// Names of the closed action set.
const (
	ActionEnableCapture  = "enable-capture"
	ActionDisableCapture = "disable-capture"
	ActionSetEndpoint    = "set-endpoint"
)

// Action is one control-plane message. Host and Port only apply to
// set-endpoint; nil means the field was omitted by the sender.
type Action struct {
	Name string
	Host *string
	Port *int
}

// Receiver applies control actions to the flag store. It is the
// store's single writer.
type Receiver struct {
	store  *flags.Store
	logger *slog.Logger
}

// NewReceiver creates a receiver writing to the given store.
func NewReceiver(store *flags.Store, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{store: store, logger: logger}
}

// Dispatch applies one action. Unknown actions are logged and ignored;
// nothing here is ever fatal.
//
// For set-endpoint, each supplied field is set and each omitted field
// is reset to its default (host to the loopback alias, port to 0 which
// disables the endpoint). Omitted fields never inherit previous values.
func (r *Receiver) Dispatch(a Action) {
	switch a.Name {
	case ActionEnableCapture:
		r.store.SetCaptureEnabled(true)
		r.logger.Info("capture enabled")
	case ActionDisableCapture:
		r.store.SetCaptureEnabled(false)
		r.logger.Info("capture disabled")
	case ActionSetEndpoint:
		host := flags.DefaultRemoteHost
		if a.Host != nil {
			host = *a.Host
		}
		port := 0
		if a.Port != nil {
			port = *a.Port
		}
		r.store.SetEndpoint(host, port)
		r.logger.Info("endpoint updated", "host", host, "port", port, "enabled", port > 0)
	default:
		r.logger.Warn("ignoring unknown control action", "action", a.Name)
	}
}
