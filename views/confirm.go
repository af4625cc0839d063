package views

import (
	"context"
	"strings"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"

	"github.com/deevus/instructor-tui/panel"
)

// ModalConfirm returns a ConfirmFunc that posts ConfirmRequested and blocks
// until the UI replies or ctx is done.
func ModalConfirm(post func(vaxis.Event)) panel.ConfirmFunc {
	return func(ctx context.Context, impact panel.Impact) (bool, error) {
		reply := make(chan bool, 1)
		post(ConfirmRequested{Impact: impact, Reply: reply})
		select {
		case ok := <-reply:
			return ok, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// ConfirmDialog is a modal yes/no prompt for a destructive action. It
// consumes every key until answered.
type ConfirmDialog struct {
	impact   panel.Impact
	reply    chan<- bool
	answered bool
}

// NewConfirmDialog creates a dialog answering req.
func NewConfirmDialog(req ConfirmRequested) *ConfirmDialog {
	return &ConfirmDialog{impact: req.Impact, reply: req.Reply}
}

// Done reports whether the dialog has been answered.
func (d *ConfirmDialog) Done() bool {
	return d.answered
}

// Answer replies once; later calls are ignored.
func (d *ConfirmDialog) Answer(ok bool) {
	if d.answered {
		return
	}
	d.answered = true
	select {
	case d.reply <- ok:
	default:
	}
}

// HandleEvent answers on y/n/Esc and swallows everything else.
func (d *ConfirmDialog) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	switch {
	case key.Matches('y'):
		d.Answer(true)
	case key.Matches('n'), key.Matches(vaxis.KeyEsc):
		d.Answer(false)
	}
	return vxfw.ConsumeAndRedraw(), nil
}

// Draw renders a bordered box with the impact message.
func (d *ConfirmDialog) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	lines := strings.Split(d.impact.Message(), "\n")
	lines = append(lines, "", "[y] proceed   [n] cancel")

	inner := 0
	for _, l := range lines {
		w := 0
		for _, ch := range ctx.Characters(l) {
			w += ch.Width
		}
		inner = max(inner, w)
	}
	width := min(inner+4, int(ctx.Max.Width))
	height := min(len(lines)+2, int(ctx.Max.Height))
	if width < 4 || height < 2 {
		return vxfw.NewSurface(uint16(max(width, 0)), uint16(max(height, 0)), d), nil
	}

	s := vxfw.NewSurface(uint16(width), uint16(height), d)
	border := vaxis.Style{Foreground: vaxis.IndexColor(1)}
	put := func(col, row int, text string, style vaxis.Style) {
		for _, ch := range ctx.Characters(text) {
			if col+ch.Width > width-2 && row > 0 && row < height-1 {
				return
			}
			if col+ch.Width > width {
				return
			}
			s.WriteCell(uint16(col), uint16(row), vaxis.Cell{Character: ch, Style: style})
			col += ch.Width
		}
	}

	put(0, 0, "┌"+strings.Repeat("─", width-2)+"┐", border)
	put(0, height-1, "└"+strings.Repeat("─", width-2)+"┘", border)
	for r := 1; r < height-1; r++ {
		s.WriteCell(0, uint16(r), vaxis.Cell{Character: vaxis.Character{Grapheme: "│", Width: 1}, Style: border})
		s.WriteCell(uint16(width-1), uint16(r), vaxis.Cell{Character: vaxis.Character{Grapheme: "│", Width: 1}, Style: border})
		// opaque interior
		for c := 1; c < width-1; c++ {
			s.WriteCell(uint16(c), uint16(r), vaxis.Cell{Character: vaxis.Character{Grapheme: " ", Width: 1}})
		}
	}
	for i, l := range lines {
		r := i + 1
		if r >= height-1 {
			break
		}
		style := vaxis.Style{}
		if i == 0 {
			style = vaxis.Style{Foreground: vaxis.IndexColor(1), Attribute: vaxis.AttrBold}
		}
		put(2, r, l, style)
	}
	return s, nil
}
