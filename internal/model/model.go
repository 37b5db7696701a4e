package model

// Rect is a screen rectangle as [left, top, right, bottom] in pixels.
type Rect [4]int

// Width returns the rectangle width.
func (r Rect) Width() int { return r[2] - r[0] }

// Height returns the rectangle height.
func (r Rect) Height() int { return r[3] - r[1] }

// SpanSource identifies which node attribute a clickable span was found in.
type SpanSource int

const (
	SpanSourceUnknown SpanSource = iota
	SpanSourceText
	SpanSourceContentDescription
)

// String returns the lowercase name of the span source.
func (s SpanSource) String() string {
	switch s {
	case SpanSourceText:
		return "text"
	case SpanSourceContentDescription:
		return "content-description"
	default:
		return "unknown"
	}
}

// WindowType classifies an accessibility window.
type WindowType int

const (
	WindowTypeUnknown WindowType = iota
	WindowTypeApplication
	WindowTypeInputMethod
	WindowTypeSystem
	WindowTypeAccessibilityOverlay
	WindowTypeSplitScreenDivider
)

// String returns the lowercase name of the window type.
func (t WindowType) String() string {
	switch t {
	case WindowTypeApplication:
		return "application"
	case WindowTypeInputMethod:
		return "input-method"
	case WindowTypeSystem:
		return "system"
	case WindowTypeAccessibilityOverlay:
		return "accessibility-overlay"
	case WindowTypeSplitScreenDivider:
		return "split-screen-divider"
	default:
		return "unknown"
	}
}

// NodeAction is one action a node advertises, by platform action id and
// optional human-readable label.
type NodeAction struct {
	ID    int    `yaml:"id"              json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// ClickableSpan is a tappable region inside a node's text or content
// description. NodeID points back at the owning node within the same
// capture.
type ClickableSpan struct {
	Text   string     `yaml:"text,omitempty" json:"text,omitempty"`
	URL    string     `yaml:"url,omitempty"  json:"url,omitempty"`
	Source SpanSource `yaml:"source"         json:"source"`
	Start  int        `yaml:"start"          json:"start"`
	NodeID int        `yaml:"node_id"        json:"node_id"`
}

// Node is one UI element's accessibility-relevant attribute set, flattened
// out of the platform node graph. UniqueID is assigned in traversal order
// within a single capture (root = 0); ids are never stable across captures.
// All id references (ChildIDs, LabeledByID, LabelForID, span NodeID)
// resolve to nodes in the same capture or are absent.
type Node struct {
	UniqueID           int    `yaml:"unique_id"                     json:"unique_id"`
	Bounds             Rect   `yaml:"bounds"                        json:"bounds"`
	ClassName          string `yaml:"class_name,omitempty"          json:"class_name,omitempty"`
	Text               string `yaml:"text,omitempty"                json:"text,omitempty"`
	ContentDescription string `yaml:"content_description,omitempty" json:"content_description,omitempty"`
	HintText           string `yaml:"hint_text,omitempty"           json:"hint_text,omitempty"`
	PackageName        string `yaml:"package_name,omitempty"        json:"package_name,omitempty"`
	TextSelectionStart int    `yaml:"text_selection_start,omitempty" json:"text_selection_start,omitempty"`
	TextSelectionEnd   int    `yaml:"text_selection_end,omitempty"  json:"text_selection_end,omitempty"`
	ViewIDResourceName string `yaml:"view_id_resource_name,omitempty" json:"view_id_resource_name,omitempty"`
	WindowID           int    `yaml:"window_id,omitempty"           json:"window_id,omitempty"`

	Checkable     bool `yaml:"is_checkable,omitempty"       json:"is_checkable,omitempty"`
	Checked       bool `yaml:"is_checked,omitempty"         json:"is_checked,omitempty"`
	Clickable     bool `yaml:"is_clickable,omitempty"       json:"is_clickable,omitempty"`
	Editable      bool `yaml:"is_editable,omitempty"        json:"is_editable,omitempty"`
	Enabled       bool `yaml:"is_enabled,omitempty"         json:"is_enabled,omitempty"`
	Focusable     bool `yaml:"is_focusable,omitempty"       json:"is_focusable,omitempty"`
	Focused       bool `yaml:"is_focused,omitempty"         json:"is_focused,omitempty"`
	LongClickable bool `yaml:"is_long_clickable,omitempty"  json:"is_long_clickable,omitempty"`
	Password      bool `yaml:"is_password,omitempty"        json:"is_password,omitempty"`
	Scrollable    bool `yaml:"is_scrollable,omitempty"      json:"is_scrollable,omitempty"`
	Selected      bool `yaml:"is_selected,omitempty"        json:"is_selected,omitempty"`
	VisibleToUser bool `yaml:"is_visible_to_user,omitempty" json:"is_visible_to_user,omitempty"`

	Actions        []NodeAction    `yaml:"actions,omitempty"         json:"actions,omitempty"`
	ChildIDs       []int           `yaml:"child_ids,omitempty"       json:"child_ids,omitempty"`
	ClickableSpans []ClickableSpan `yaml:"clickable_spans,omitempty" json:"clickable_spans,omitempty"`

	Depth        int    `yaml:"depth"                   json:"depth"`
	LabeledByID  *int   `yaml:"labeled_by_id,omitempty" json:"labeled_by_id,omitempty"`
	LabelForID   *int   `yaml:"label_for_id,omitempty"  json:"label_for_id,omitempty"`
	DrawingOrder int    `yaml:"drawing_order,omitempty" json:"drawing_order,omitempty"`
	TooltipText  string `yaml:"tooltip_text,omitempty"  json:"tooltip_text,omitempty"`
}

// Tree is the flattened node set for one window. Nodes appear in
// traversal order; by convention the node with UniqueID 0 is the root.
// A tree may be empty when the window's root was unobtainable.
type Tree struct {
	Nodes []Node `yaml:"nodes,omitempty" json:"nodes,omitempty"`
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	for i := range t.Nodes {
		if t.Nodes[i].UniqueID == 0 {
			return &t.Nodes[i]
		}
	}
	return nil
}

// NodeByID returns the node with the given unique id, or nil.
func (t *Tree) NodeByID(id int) *Node {
	for i := range t.Nodes {
		if t.Nodes[i].UniqueID == id {
			return &t.Nodes[i]
		}
	}
	return nil
}

// Window is one accessibility-visible surface with metadata and its
// flattened tree.
type Window struct {
	Bounds               Rect       `yaml:"bounds"                            json:"bounds"`
	DisplayID            int        `yaml:"display_id,omitempty"              json:"display_id,omitempty"`
	ID                   int        `yaml:"id"                                json:"id"`
	Layer                int        `yaml:"layer,omitempty"                   json:"layer,omitempty"`
	Title                string     `yaml:"title,omitempty"                   json:"title,omitempty"`
	Type                 WindowType `yaml:"window_type"                       json:"window_type"`
	AccessibilityFocused bool       `yaml:"is_accessibility_focused,omitempty" json:"is_accessibility_focused,omitempty"`
	Active               bool       `yaml:"is_active,omitempty"               json:"is_active,omitempty"`
	Focused              bool       `yaml:"is_focused,omitempty"              json:"is_focused,omitempty"`
	PictureInPicture     bool       `yaml:"is_in_picture_in_picture_mode,omitempty" json:"is_in_picture_in_picture_mode,omitempty"`
	Tree                 Tree       `yaml:"tree"                              json:"tree"`
}

// Forest is one capture snapshot across all currently visible windows,
// in the order the platform reported them. Forests are constructed fresh
// per capture and carry no identity across captures.
type Forest struct {
	Windows []Window `yaml:"windows" json:"windows"`
}

// NodeCount returns the total node count across all windows.
func (f *Forest) NodeCount() int {
	n := 0
	for i := range f.Windows {
		n += len(f.Windows[i].Tree.Nodes)
	}
	return n
}
