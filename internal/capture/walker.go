package capture

import (
	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/source"
)

// WalkTree flattens one window's node graph into a Tree by depth-first
// pre-order traversal. Unique ids are assigned in visitation order
// starting at 0 (the root), and depth(child) == depth(parent)+1. A nil
// root yields an empty tree. Traversal never fails the capture: a
// handle that goes stale truncates its own subtree and nothing else.
//
// The walker owns every handle it obtains and releases each one exactly
// once, on every exit path. A visited set keyed by handle identity
// guarantees termination even when the host graph has cycles.
func WalkTree(root source.NodeHandle) model.Tree {
	if root == nil {
		return model.Tree{}
	}
	w := &treeWalker{
		visited: make(map[uint64]bool),
		ids:     make(map[uint64]int),
	}
	w.visit(root, 0)
	w.resolveLabels()
	return model.Tree{Nodes: w.nodes}
}

// labelRef is a pending labeled-by / label-for reference, recorded by
// node identity during traversal and resolved to unique ids once the
// node list is fully materialized. References to nodes that never
// appeared in this capture are dropped rather than left dangling.
type labelRef struct {
	nodeIndex int
	labeledBy *uint64
	labelFor  *uint64
}

type treeWalker struct {
	nodes   []model.Node
	visited map[uint64]bool
	ids     map[uint64]int // node identity -> assigned unique id
	labels  []labelRef
}

// visit processes one handle, taking ownership of it. It returns the
// node's assigned unique id, or -1 when the node was skipped (already
// visited, or its attributes were unobtainable).
func (w *treeWalker) visit(h source.NodeHandle, depth int) int {
	defer h.Release()

	ident := h.Identity()
	if w.visited[ident] {
		return -1
	}
	w.visited[ident] = true

	// Extract the full attribute set before obtaining any further
	// handle. A stale handle truncates this subtree only.
	info, err := h.Info()
	if err != nil {
		return -1
	}

	id := len(w.nodes)
	w.ids[ident] = id
	w.nodes = append(w.nodes, nodeFromInfo(info, id, depth))
	if info.LabeledBy != nil || info.LabelFor != nil {
		w.labels = append(w.labels, labelRef{nodeIndex: id, labeledBy: info.LabeledBy, labelFor: info.LabelFor})
	}

	for i := 0; i < info.ChildCount; i++ {
		child, err := h.Child(i)
		if err != nil || child == nil {
			continue
		}
		if childID := w.visit(child, depth+1); childID >= 0 {
			w.nodes[id].ChildIDs = append(w.nodes[id].ChildIDs, childID)
		}
	}
	return id
}

func (w *treeWalker) resolveLabels() {
	for _, ref := range w.labels {
		if ref.labeledBy != nil {
			if id, ok := w.ids[*ref.labeledBy]; ok {
				v := id
				w.nodes[ref.nodeIndex].LabeledByID = &v
			}
		}
		if ref.labelFor != nil {
			if id, ok := w.ids[*ref.labelFor]; ok {
				v := id
				w.nodes[ref.nodeIndex].LabelForID = &v
			}
		}
	}
}

func nodeFromInfo(info source.NodeInfo, id, depth int) model.Node {
	var spans []model.ClickableSpan
	for _, s := range info.ClickableSpans {
		spans = append(spans, model.ClickableSpan{
			Text:   s.Text,
			URL:    s.URL,
			Source: s.Source,
			Start:  s.Start,
			NodeID: id,
		})
	}
	return model.Node{
		UniqueID:           id,
		Bounds:             info.Bounds,
		ClassName:          info.ClassName,
		Text:               info.Text,
		ContentDescription: info.ContentDescription,
		HintText:           info.HintText,
		PackageName:        info.PackageName,
		TextSelectionStart: info.TextSelectionStart,
		TextSelectionEnd:   info.TextSelectionEnd,
		ViewIDResourceName: info.ViewIDResourceName,
		WindowID:           info.WindowID,
		Checkable:          info.Checkable,
		Checked:            info.Checked,
		Clickable:          info.Clickable,
		Editable:           info.Editable,
		Enabled:            info.Enabled,
		Focusable:          info.Focusable,
		Focused:            info.Focused,
		LongClickable:      info.LongClickable,
		Password:           info.Password,
		Scrollable:         info.Scrollable,
		Selected:           info.Selected,
		VisibleToUser:      info.VisibleToUser,
		Actions:            info.Actions,
		ClickableSpans:     spans,
		Depth:              depth,
		DrawingOrder:       info.DrawingOrder,
		TooltipText:        info.TooltipText,
	}
}
