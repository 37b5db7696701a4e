package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/tobyv/a11yrelay/internal/model"
)

func TestCodec_StreamFraming(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.Encode(Hello{Method: MethodBidi}); err != nil {
		t.Fatalf("encode hello: %v", err)
	}
	if err := enc.Encode(ClientToServer{Event: &EventPayload{Event: map[string]string{"event_type": "TYPE_WINDOW_STATE_CHANGED"}}}); err != nil {
		t.Fatalf("encode event: %v", err)
	}
	forest := &model.Forest{Windows: []model.Window{{ID: 1, Title: "Settings"}}}
	if err := enc.Encode(ClientToServer{Forest: forest}); err != nil {
		t.Fatalf("encode forest: %v", err)
	}

	dec := NewDecoder(&buf)
	var hello Hello
	if err := dec.Decode(&hello); err != nil || hello.Method != MethodBidi {
		t.Fatalf("decode hello: %v %+v", err, hello)
	}
	var first, second ClientToServer
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if first.Event == nil || first.Forest != nil {
		t.Errorf("first frame must carry only the event, got %+v", first)
	}
	if first.Event.Event["event_type"] != "TYPE_WINDOW_STATE_CHANGED" {
		t.Errorf("event payload lost: %v", first.Event.Event)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second frame: %v", err)
	}
	if second.Forest == nil || second.Event != nil {
		t.Errorf("second frame must carry only the forest, got %+v", second)
	}
	if second.Forest.Windows[0].Title != "Settings" {
		t.Errorf("forest window lost: %+v", second.Forest)
	}

	var extra ClientToServer
	if err := dec.Decode(&extra); err != io.EOF {
		t.Errorf("expected EOF after last frame, got %v", err)
	}
}

func TestCodec_ForestRoundTrip(t *testing.T) {
	labelFor := 2
	in := model.Forest{Windows: []model.Window{{
		Bounds: model.Rect{0, 0, 720, 1280},
		ID:     7,
		Type:   model.WindowTypeApplication,
		Tree: model.Tree{Nodes: []model.Node{
			{UniqueID: 0, ClassName: "android.widget.FrameLayout", ChildIDs: []int{1, 2}},
			{UniqueID: 1, Text: "Wi-Fi", Depth: 1, LabelForID: &labelFor},
			{UniqueID: 2, Checkable: true, Checked: true, Depth: 1, Actions: []model.NodeAction{{ID: 16, Label: "toggle"}}},
		}},
	}}}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out model.Forest
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(out.Windows) != 1 || len(out.Windows[0].Tree.Nodes) != 3 {
		t.Fatalf("forest shape lost: %+v", out)
	}
	n := out.Windows[0].Tree.Nodes[1]
	if n.LabelForID == nil || *n.LabelForID != 2 {
		t.Errorf("label_for_id lost: %v", n.LabelForID)
	}
	toggle := out.Windows[0].Tree.Nodes[2]
	if !toggle.Checkable || !toggle.Checked || len(toggle.Actions) != 1 {
		t.Errorf("node flags or actions lost: %+v", toggle)
	}
}

func TestCodec_DeterministicEncoding(t *testing.T) {
	msg := ClientToServer{Event: &EventPayload{Event: map[string]string{
		"b": "2", "a": "1", "c": "3",
	}}}
	first, err := Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, _ := Marshal(msg)
	if !bytes.Equal(first, second) {
		t.Error("same message must encode to identical bytes")
	}
}
