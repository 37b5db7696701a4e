package capture

import (
	"github.com/tobyv/a11yrelay/internal/model"
	"github.com/tobyv/a11yrelay/internal/source"
)

// CaptureForest is the single "capture now" primitive: it walks every
// given window handle and returns a Forest with exactly one Window per
// input handle, in input order. A window whose root is unobtainable
// contributes an empty tree instead of failing the capture.
func CaptureForest(windows []source.WindowHandle) model.Forest {
	forest := model.Forest{Windows: make([]model.Window, 0, len(windows))}
	for _, wh := range windows {
		forest.Windows = append(forest.Windows, captureWindow(wh))
	}
	return forest
}

func captureWindow(wh source.WindowHandle) model.Window {
	info := wh.Info()
	win := model.Window{
		Bounds:               info.Bounds,
		DisplayID:            info.DisplayID,
		ID:                   info.ID,
		Layer:                info.Layer,
		Title:                info.Title,
		Type:                 info.Type,
		AccessibilityFocused: info.AccessibilityFocused,
		Active:               info.Active,
		Focused:              info.Focused,
		PictureInPicture:     info.PictureInPicture,
	}
	root, err := wh.Root()
	if err != nil {
		return win
	}
	win.Tree = WalkTree(root)
	return win
}
