// Package wire defines the messages exchanged between the on-device
// relay and the remote controller, and the codec that frames them.
//
// Every connection opens with a Hello naming one of three operations:
// the long-lived bidi stream, or one of the two deprecated unary calls.
package wire

import "github.com/tobyv/a11yrelay/internal/model"

// Method names an operation at the service boundary.
type Method string

const (
	// MethodBidi is the long-lived bidirectional stream.
	MethodBidi Method = "bidi"

	// MethodSendForest is the deprecated unary forest push.
	MethodSendForest Method = "send-forest"

	// MethodSendEvent is the deprecated unary event push.
	MethodSendEvent Method = "send-event"
)

// Hello is the first frame on every connection.
type Hello struct {
	Method Method `json:"method"`
}

// EventPayload carries one discrete UI event as opaque key/value pairs.
type EventPayload struct {
	Event map[string]string `json:"event,omitempty"`
}

// ClientToServer is one device-to-controller stream message. Exactly
// one of Event or Forest is set; a frame with neither is ignored by
// the receiver.
type ClientToServer struct {
	Event  *EventPayload `json:"event,omitempty"`
	Forest *model.Forest `json:"forest,omitempty"`
}

// GetForest is the controller's pull request. It carries no fields; its
// presence is the request.
type GetForest struct{}

// ServerToClient is one controller-to-device stream message. A frame
// with a nil GetForest is a keep-alive/ack and requires no action.
type ServerToClient struct {
	GetForest *GetForest `json:"get_forest,omitempty"`
}

// ForestResponse answers the deprecated unary forest push. Error is
// empty on success.
type ForestResponse struct {
	Error string `json:"error,omitempty"`
}

// EventResponse answers the deprecated unary event push. Error is
// empty on success.
type EventResponse struct {
	Error string `json:"error,omitempty"`
}
