package source

import (
	"fmt"
	"sync"

	"github.com/tobyv/a11yrelay/internal/model"
)

// FakeNode is a scriptable in-memory node for tests and the --fake demo
// mode. Children may form cycles; the walker's visited set must cope.
type FakeNode struct {
	Info      NodeInfo // ChildCount, LabeledBy and LabelFor are derived, not read
	Children  []*FakeNode
	LabeledBy *FakeNode
	LabelFor  *FakeNode

	// FailInfo makes Info() fail, simulating a handle that went stale.
	FailInfo bool
	// FailChildren lists child indexes whose Child() call fails.
	FailChildren map[int]bool
}

// FakeWindow is a scriptable in-memory window.
type FakeWindow struct {
	Info WindowInfo
	Root *FakeNode

	// NoRoot simulates a window whose root is unobtainable (nil, nil).
	NoRoot bool
	// FailRoot makes Root() return an error.
	FailRoot bool
}

// FakeProvider implements Provider over scripted windows and tracks
// handle obtain/release pairing so tests can assert the walker's
// resource discipline.
type FakeProvider struct {
	WindowList []*FakeWindow

	mu         sync.Mutex
	identities map[*FakeNode]uint64
	nextIdent  uint64
	obtained   int
	released   int

	events chan Event
}

// NewFakeProvider creates a provider over the given windows.
func NewFakeProvider(windows ...*FakeWindow) *FakeProvider {
	return &FakeProvider{
		WindowList: windows,
		identities: make(map[*FakeNode]uint64),
		events:     make(chan Event, 16),
	}
}

func (p *FakeProvider) Windows() ([]WindowHandle, error) {
	handles := make([]WindowHandle, 0, len(p.WindowList))
	for _, w := range p.WindowList {
		handles = append(handles, &fakeWindowHandle{provider: p, window: w})
	}
	return handles, nil
}

func (p *FakeProvider) Events() <-chan Event {
	return p.events
}

// Emit delivers a UI event to Events() consumers.
func (p *FakeProvider) Emit(ev Event) {
	p.events <- ev
}

// CloseEvents closes the event channel.
func (p *FakeProvider) CloseEvents() {
	close(p.events)
}

// Unreleased returns the number of node handles obtained but not yet
// released. Zero after a capture means the walker balanced every handle.
func (p *FakeProvider) Unreleased() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.obtained - p.released
}

func (p *FakeProvider) identity(n *FakeNode) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.identities[n]; ok {
		return id
	}
	p.nextIdent++
	p.identities[n] = p.nextIdent
	return p.nextIdent
}

func (p *FakeProvider) obtain(n *FakeNode) *fakeNodeHandle {
	p.mu.Lock()
	p.obtained++
	p.mu.Unlock()
	return &fakeNodeHandle{provider: p, node: n}
}

type fakeWindowHandle struct {
	provider *FakeProvider
	window   *FakeWindow
}

func (h *fakeWindowHandle) Info() WindowInfo {
	return h.window.Info
}

func (h *fakeWindowHandle) Root() (NodeHandle, error) {
	if h.window.FailRoot {
		return nil, fmt.Errorf("window %d: root unobtainable", h.window.Info.ID)
	}
	if h.window.NoRoot || h.window.Root == nil {
		return nil, nil
	}
	return h.provider.obtain(h.window.Root), nil
}

type fakeNodeHandle struct {
	provider *FakeProvider
	node     *FakeNode

	mu       sync.Mutex
	released bool
}

func (h *fakeNodeHandle) Identity() uint64 {
	return h.provider.identity(h.node)
}

func (h *fakeNodeHandle) Info() (NodeInfo, error) {
	if h.node.FailInfo {
		return NodeInfo{}, fmt.Errorf("node handle went stale")
	}
	info := h.node.Info
	info.ChildCount = len(h.node.Children)
	if h.node.LabeledBy != nil {
		id := h.provider.identity(h.node.LabeledBy)
		info.LabeledBy = &id
	}
	if h.node.LabelFor != nil {
		id := h.provider.identity(h.node.LabelFor)
		info.LabelFor = &id
	}
	return info, nil
}

func (h *fakeNodeHandle) Child(i int) (NodeHandle, error) {
	if h.node.FailChildren[i] {
		return nil, fmt.Errorf("child %d: handle went stale", i)
	}
	if i < 0 || i >= len(h.node.Children) {
		return nil, nil
	}
	return h.provider.obtain(h.node.Children[i]), nil
}

func (h *fakeNodeHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		panic("fake node handle released twice")
	}
	h.released = true
	h.provider.mu.Lock()
	h.provider.released++
	h.provider.mu.Unlock()
}

// DemoProvider returns a fake provider with a small settings-screen UI,
// used by the --fake flag on the capture and run commands.
func DemoProvider() *FakeProvider {
	label := &FakeNode{Info: NodeInfo{
		ClassName:     "android.widget.TextView",
		Text:          "Wi-Fi",
		Bounds:        model.Rect{32, 120, 232, 184},
		VisibleToUser: true,
		Enabled:       true,
	}}
	toggle := &FakeNode{Info: NodeInfo{
		ClassName:     "android.widget.Switch",
		Checkable:     true,
		Checked:       true,
		Clickable:     true,
		Enabled:       true,
		Focusable:     true,
		VisibleToUser: true,
		Bounds:        model.Rect{640, 120, 704, 184},
		Actions:       []model.NodeAction{{ID: 16, Label: "toggle"}},
	}}
	label.LabelFor = toggle
	toggle.LabeledBy = label
	root := &FakeNode{
		Info: NodeInfo{
			ClassName:     "android.widget.FrameLayout",
			PackageName:   "com.example.settings",
			Bounds:        model.Rect{0, 0, 720, 1280},
			VisibleToUser: true,
			Enabled:       true,
		},
		Children: []*FakeNode{label, toggle},
	}
	return NewFakeProvider(&FakeWindow{
		Info: WindowInfo{
			Bounds: model.Rect{0, 0, 720, 1280},
			ID:     1,
			Title:  "Settings",
			Type:   model.WindowTypeApplication,
			Active: true,
		},
		Root: root,
	})
}
