package xyzhost

import (
	"strings"

	"cogentcore.org/core/core"
	"cogentcore.org/core/events"
	"cogentcore.org/core/icons"
	"cogentcore.org/core/tree"

	"github.com/askiada/go-ifcview/pkg/viewer"
)

// Picker shows a file dialog over a widget of the window.
type Picker struct {
	ctx core.Widget
	dir string
}

var _ viewer.Picker = (*Picker)(nil)

// NewPicker returns a picker opening in dir.
func NewPicker(ctx core.Widget, dir string) *Picker {
	return &Picker{ctx: ctx, dir: dir}
}

// Pick runs the dialog. onSelect only runs when the user confirms a file.
func (p *Picker) Pick(accept []string, onSelect func(path string)) {
	d := core.NewBody(viewer.LabelOpenFile)
	fp := core.NewFilePicker(d).SetFilename(p.dir).SetExtensions(strings.Join(accept, ","))
	d.AddTopBar(func(bar *core.Frame) {
		core.NewToolbar(bar).Maker(fp.MakeToolbar)
	})
	d.AddBottomBar(func(bar *core.Frame) {
		d.AddCancel(bar)
		d.AddOK(bar).OnClick(func(events.Event) {
			if path := fp.SelectedFile(); path != "" {
				onSelect(path)
			}
		})
	})
	d.RunFullDialog(p.ctx)
}

var actionIcons = map[string]icons.Icon{
	viewer.LabelOpenFile: icons.FileOpen,
	viewer.LabelFitView:  icons.CenterFocusStrong,
}

// Toolbar adds one button per panel action to the top bar of b.
func Toolbar(b *core.Body, actions []viewer.Action) {
	b.AddTopBar(func(bar *core.Frame) {
		core.NewToolbar(bar).Maker(func(p *tree.Plan) {
			for _, action := range actions {
				tree.AddAt(p, action.Label, func(w *core.Button) {
					w.SetText(action.Label).SetIcon(actionIcons[action.Label])
					w.OnClick(func(events.Event) {
						action.Run()
					})
				})
			}
		})
	})
}
