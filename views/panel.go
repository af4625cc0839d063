package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/dustin/go-humanize"

	"github.com/deevus/instructor-tui/panel"
	"github.com/deevus/instructor-tui/widgets"
)

const footerHint = "↑/↓ move  enter edit/run  ←/→ choose  [/] scroll  c clear  r reload  q quit"

// PanelViewParams holds configuration for creating a PanelView.
type PanelViewParams struct {
	Panel     *panel.Panel
	Busy      *widgets.Busy
	PostEvent func(vaxis.Event)
	StaleTTL  time.Duration
}

type controlKind int

const (
	fieldControl controlKind = iota
	actionControl
)

type control struct {
	kind  controlKind
	field panel.FieldState
	act   *panel.Action
}

// PanelView renders one action panel: its fields and actions as a list of
// controls, a busy line, and the errors or results region.
type PanelView struct {
	panel     *panel.Panel
	busy      *widgets.Busy
	postEvent func(vaxis.Event)
	staleTTL  time.Duration

	mu       sync.Mutex
	loaded   bool
	loadedAt time.Time

	cursor int
	input  *widgets.TextInput
	edited string
	scroll int
}

// NewPanelView creates a PanelView backed by the given params.
func NewPanelView(p PanelViewParams) *PanelView {
	busy := p.Busy
	if busy == nil {
		busy = &widgets.Busy{}
	}
	return &PanelView{
		panel:     p.Panel,
		busy:      busy,
		postEvent: p.PostEvent,
		staleTTL:  p.StaleTTL,
	}
}

// Panel returns the controller behind the view.
func (pv *PanelView) Panel() *panel.Panel {
	return pv.panel
}

// Load fetches the options of every select field.
func (pv *PanelView) Load(ctx context.Context) error {
	if err := pv.panel.LoadOptions(ctx); err != nil {
		return err
	}
	pv.mu.Lock()
	pv.loaded = true
	pv.loadedAt = time.Now()
	pv.mu.Unlock()
	return nil
}

// LoadAsync runs Load on a goroutine and posts OptionsLoaded when done.
func (pv *PanelView) LoadAsync(ctx context.Context) {
	go func() {
		err := pv.Load(ctx)
		pv.post(OptionsLoaded{Section: pv.panel.Name(), Err: err})
	}()
}

// Loaded reports whether options have been fetched without error.
func (pv *PanelView) Loaded() bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.loaded
}

// Stale reports whether the options are older than the configured TTL.
func (pv *PanelView) Stale() bool {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if !pv.loaded {
		return true
	}
	return time.Since(pv.loadedAt) > pv.staleTTL
}

// Show is called when the view's tab becomes active. Both regions are
// cleared and stale options are reloaded.
func (pv *PanelView) Show(ctx context.Context) {
	pv.panel.Clear()
	pv.scroll = 0
	if pv.Stale() {
		pv.LoadAsync(ctx)
	}
}

// Hide is called when the view's tab is left.
func (pv *PanelView) Hide() {
	pv.finishEditing()
	pv.panel.Hide()
}

// Editing reports whether a text field is being edited.
func (pv *PanelView) Editing() bool {
	return pv.input != nil
}

// Cursor returns the index of the selected control.
func (pv *PanelView) Cursor() int {
	return pv.cursor
}

// Trigger invokes the named action on a goroutine and posts
// ActionCompleted when the outcome has been rendered.
func (pv *PanelView) Trigger(ctx context.Context, action string) {
	go func() {
		o, err := pv.panel.Invoke(ctx, action)
		pv.post(ActionCompleted{Section: pv.panel.Name(), Action: action, Outcome: o, Err: err})
	}()
}

func (pv *PanelView) post(ev vaxis.Event) {
	if pv.postEvent != nil {
		pv.postEvent(ev)
	}
}

func (pv *PanelView) controls() []control {
	var out []control
	for _, f := range pv.panel.Fields() {
		out = append(out, control{kind: fieldControl, field: f})
	}
	for _, a := range pv.panel.Actions() {
		out = append(out, control{kind: actionControl, act: a})
	}
	return out
}

func (pv *PanelView) finishEditing() {
	if pv.input == nil {
		return
	}
	_ = pv.panel.SetValue(pv.edited, pv.input.Value)
	pv.input = nil
	pv.edited = ""
}

// HandleEvent moves the cursor, edits fields and triggers actions.
func (pv *PanelView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}

	if pv.input != nil {
		if !pv.input.HandleKey(key) {
			return nil, nil
		}
		if !pv.input.Editing {
			pv.finishEditing()
		}
		return vxfw.ConsumeAndRedraw(), nil
	}

	ctrls := pv.controls()
	if len(ctrls) == 0 {
		return nil, nil
	}
	pv.cursor = min(pv.cursor, len(ctrls)-1)
	cur := ctrls[pv.cursor]

	switch {
	case key.Matches(vaxis.KeyDown), key.Matches('j'):
		pv.cursor = (pv.cursor + 1) % len(ctrls)
	case key.Matches(vaxis.KeyUp), key.Matches('k'):
		pv.cursor = (pv.cursor - 1 + len(ctrls)) % len(ctrls)
	case key.Matches(vaxis.KeyRight), key.Matches('l'):
		if cur.kind != fieldControl || cur.field.Kind != panel.SelectField {
			return nil, nil
		}
		_ = pv.panel.CycleOption(cur.field.Name, 1)
	case key.Matches(vaxis.KeyLeft), key.Matches('h'):
		if cur.kind != fieldControl || cur.field.Kind != panel.SelectField {
			return nil, nil
		}
		_ = pv.panel.CycleOption(cur.field.Name, -1)
	case key.Matches(vaxis.KeyEnter):
		switch {
		case cur.kind == actionControl:
			pv.scroll = 0
			pv.Trigger(context.Background(), cur.act.Name())
		case cur.field.Kind == panel.SelectField:
			_ = pv.panel.CycleOption(cur.field.Name, 1)
		default:
			pv.input = &widgets.TextInput{Label: cur.field.Label, Value: cur.field.Value, Editing: true}
			pv.edited = cur.field.Name
		}
	case key.Matches(']'):
		pv.scroll++
	case key.Matches('['):
		pv.scroll = max(pv.scroll-1, 0)
	case key.Matches('c'):
		pv.panel.Clear()
		pv.scroll = 0
	default:
		return nil, nil
	}
	return vxfw.ConsumeAndRedraw(), nil
}

// Draw renders the header, controls, region and footer.
func (pv *PanelView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, pv)
	width := ctx.Max.Width
	height := int(ctx.Max.Height)
	line := ctx.WithMax(vxfw.Size{Width: width, Height: 1})
	row := 0

	add := func(w vxfw.Widget) error {
		if row >= height {
			return nil
		}
		surf, err := w.Draw(line)
		if err != nil {
			return err
		}
		s.AddChild(0, row, surf)
		row++
		return nil
	}

	// === Header ===
	header := []vaxis.Segment{{Text: " " + pv.panel.Title(), Style: vaxis.Style{Attribute: vaxis.AttrBold}}}
	if o, at := pv.panel.LastOutcome(); !at.IsZero() {
		header = append(header, vaxis.Segment{
			Text:  fmt.Sprintf("  last run %s: %s", humanize.Time(at), o.Kind),
			Style: vaxis.Style{Attribute: vaxis.AttrDim},
		})
	}
	if err := add(richtext.New(header)); err != nil {
		return vxfw.Surface{}, err
	}
	if row < height {
		busySurf, err := pv.busy.Draw(line)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(1, row, busySurf)
		row++
	}

	// === Controls ===
	ctrls := pv.controls()
	for i, c := range ctrls {
		selected := i == pv.cursor
		var w vxfw.Widget
		if c.kind == fieldControl && pv.input != nil && c.field.Name == pv.edited {
			w = &prefixed{prefix: " ▸ ", child: pv.input}
		} else {
			w = richtext.New(controlSegments(c, selected))
		}
		if err := add(w); err != nil {
			return vxfw.Surface{}, err
		}
	}
	row++

	// === Errors / results ===
	footerRow := height - 1
	regionHeight := footerRow - row
	if regionHeight > 0 {
		regionCtx := ctx.WithMax(vxfw.Size{Width: width, Height: uint16(regionHeight)})
		regionSurf, err := pv.drawRegion(regionCtx)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, regionSurf)
	}

	// === Footer ===
	if footerRow > 0 {
		footer := richtext.New([]vaxis.Segment{{Text: " " + footerHint, Style: vaxis.Style{Attribute: vaxis.AttrDim}}})
		footerSurf, err := footer.Draw(line)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, footerRow, footerSurf)
	}

	return s, nil
}

func controlSegments(c control, selected bool) []vaxis.Segment {
	marker := "   "
	base := vaxis.Style{}
	if selected {
		marker = " ▸ "
		base.Attribute |= vaxis.AttrBold
	}
	segs := []vaxis.Segment{{Text: marker, Style: base}}

	if c.kind == actionControl {
		style := base
		if selected {
			style.Attribute |= vaxis.AttrReverse
		}
		segs = append(segs, vaxis.Segment{Text: "[ " + c.act.Label() + " ]", Style: style})
		if c.act.Destructive() {
			segs = append(segs, vaxis.Segment{Text: " !", Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}})
		}
		return segs
	}

	f := c.field
	segs = append(segs, vaxis.Segment{Text: f.Label + ": ", Style: vaxis.Style{Attribute: vaxis.AttrDim}})
	value := f.Value
	if f.Kind == panel.SelectField {
		if label := optionLabel(f); label != "" {
			value = label
		}
		value = "‹ " + value + " ›"
	}
	segs = append(segs, vaxis.Segment{Text: value, Style: base})

	switch {
	case f.Loading:
		segs = append(segs, vaxis.Segment{Text: "  loading...", Style: vaxis.Style{Attribute: vaxis.AttrDim}})
	case f.Err != "":
		segs = append(segs, vaxis.Segment{Text: "  " + f.Err, Style: vaxis.Style{Foreground: vaxis.IndexColor(1)}})
	}
	return segs
}

func optionLabel(f panel.FieldState) string {
	for _, o := range f.Options {
		if o.Value == f.Value {
			return o.Label
		}
	}
	return ""
}

// drawRegion renders the errors region when it has content, otherwise the
// results region. Only one of them is ever non-empty.
func (pv *PanelView) drawRegion(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	if errs := pv.panel.Errors(); len(errs) > 0 {
		return DrawError(ctx, pv, prefixLines(" ✗ ", errs)...)
	}

	res := pv.panel.Results()
	if res.Empty() {
		if pv.busy.Active() {
			return DrawLoadingState(ctx, pv)
		}
		return vxfw.NewSurface(ctx.Max.Width, 0, pv), nil
	}
	if res.Notice {
		return DrawMessage(ctx, pv, " "+res.Text)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, pv)
	row := 0
	title := res.Title
	if res.Table != nil && res.Table.Title != "" {
		title = res.Table.Title
	}

	if res.Table == nil {
		lines := strings.Split(res.Text, "\n")
		if title != "" && len(lines) == 1 {
			lines[0] = title + ": " + lines[0]
		} else if title != "" {
			lines = append([]string{title + ":"}, lines...)
		}
		start := min(pv.scroll, max(len(lines)-1, 0))
		for _, l := range lines[start:] {
			if row >= int(ctx.Max.Height) {
				break
			}
			t := richtext.New([]vaxis.Segment{{Text: " " + l}})
			surf, err := t.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
			if err != nil {
				return vxfw.Surface{}, err
			}
			s.AddChild(0, row, surf)
			row++
		}
		return s, nil
	}

	if title != "" {
		t := richtext.New([]vaxis.Segment{{Text: " " + title, Style: vaxis.Style{Attribute: vaxis.AttrBold}}})
		surf, err := t.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, surf)
		row++
	}
	remaining := int(ctx.Max.Height) - row
	if remaining <= 0 || ctx.Max.Width < 2 {
		return s, nil
	}
	tbl := widgets.NewTable(res.Table.Header, res.Table.Rows, int(ctx.Max.Width)-1)
	tbl.Offset = min(pv.scroll, max(len(res.Table.Rows)-1, 0))
	tblSurf, err := tbl.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width - 1, Height: uint16(remaining)}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(1, row, tblSurf)
	return s, nil
}

func prefixLines(prefix string, lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = prefix + l
	}
	return out
}

// prefixed draws a fixed text prefix before a child widget on one row.
type prefixed struct {
	prefix string
	child  vxfw.Widget
}

func (p *prefixed) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, p)
	col := 0
	for _, ch := range ctx.Characters(p.prefix) {
		if col+ch.Width > int(ctx.Max.Width) {
			return s, nil
		}
		s.WriteCell(uint16(col), 0, vaxis.Cell{Character: ch, Style: vaxis.Style{Attribute: vaxis.AttrBold}})
		col += ch.Width
	}
	if col >= int(ctx.Max.Width) {
		return s, nil
	}
	child, err := p.child.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width - uint16(col), Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(col, 0, child)
	return s, nil
}
