package source

import (
	"fmt"

	"github.com/tobyv/a11yrelay/internal/model"
)

// Event is one discrete UI event reported by the accessibility layer,
// as opaque key/value pairs (e.g. event type, package, timestamp).
type Event map[string]string

// SpanInfo is a clickable span as reported by the platform, before the
// walker assigns the owning node's back-reference id.
type SpanInfo struct {
	Text   string
	URL    string
	Source model.SpanSource
	Start  int
}

// NodeInfo is the full attribute set of one node, extracted eagerly from
// a live handle. LabeledBy and LabelFor carry the identity of the
// referenced node (see NodeHandle.Identity), nil when absent; the walker
// resolves them to unique ids after the tree is materialized.
type NodeInfo struct {
	Bounds             model.Rect
	ClassName          string
	Text               string
	ContentDescription string
	HintText           string
	PackageName        string
	TextSelectionStart int
	TextSelectionEnd   int
	ViewIDResourceName string
	WindowID           int

	Checkable     bool
	Checked       bool
	Clickable     bool
	Editable      bool
	Enabled       bool
	Focusable     bool
	Focused       bool
	LongClickable bool
	Password      bool
	Scrollable    bool
	Selected      bool
	VisibleToUser bool

	Actions        []model.NodeAction
	ClickableSpans []SpanInfo
	DrawingOrder   int
	TooltipText    string

	ChildCount int
	LabeledBy  *uint64
	LabelFor   *uint64
}

// NodeHandle is an opaque, manually reference-counted reference into the
// platform's accessibility node graph. Whoever obtains a handle owns it
// and must call Release exactly once; attribute extraction and child
// enumeration are only valid before Release. The graph behind handles is
// host-owned and not guaranteed acyclic.
type NodeHandle interface {
	// Identity returns a stable identity for the underlying node. Two
	// handles to the same node return the same identity; used for cycle
	// detection and label-reference resolution.
	Identity() uint64

	// Info extracts the node's full attribute set. An error means the
	// handle went stale mid-traversal.
	Info() (NodeInfo, error)

	// Child obtains a fresh handle to the i-th child. Ownership of the
	// returned handle transfers to the caller. A nil handle with nil
	// error means the child is gone.
	Child(i int) (NodeHandle, error)

	// Release returns the handle to the platform. Must be called exactly
	// once per obtained handle.
	Release()
}

// WindowInfo is the metadata of one accessibility window.
type WindowInfo struct {
	Bounds               model.Rect
	DisplayID            int
	ID                   int
	Layer                int
	Title                string
	Type                 model.WindowType
	AccessibilityFocused bool
	Active               bool
	Focused              bool
	PictureInPicture     bool
}

// WindowHandle is one currently visible window. Window handles are not
// reference-counted; only node handles are.
type WindowHandle interface {
	Info() WindowInfo

	// Root obtains a handle to the window's root node, owned by the
	// caller. A nil handle with nil error means the window currently has
	// no obtainable root.
	Root() (NodeHandle, error)
}

// Provider is the accessibility-service collaborator boundary: it
// supplies window handles and a stream of discrete UI events. The
// framework behind it is consumed, never reimplemented.
type Provider interface {
	// Windows returns handles for all currently visible windows in
	// z-order as reported by the platform.
	Windows() ([]WindowHandle, error)

	// Events returns the channel of discrete UI events. Closed when the
	// provider shuts down.
	Events() <-chan Event
}

// ErrUnsupported is returned when no platform provider is registered
// for the current build.
var ErrUnsupported = fmt.Errorf("no accessibility provider is available on this platform")

// NewProviderFunc is set by platform-specific packages via init().
var NewProviderFunc func() (Provider, error)

// NewProvider returns the registered platform Provider.
func NewProvider() (Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
