package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TextInput is a single-line text field. Keys are only consumed while
// Editing; Enter and Esc end editing.
type TextInput struct {
	Label   string
	Value   string
	Editing bool
}

// HandleKey applies k to the input and reports whether it was consumed.
func (ti *TextInput) HandleKey(k vaxis.Key) bool {
	if !ti.Editing {
		return false
	}
	switch {
	case k.Matches(vaxis.KeyEnter), k.Matches(vaxis.KeyEsc):
		ti.Editing = false
	case k.Matches(vaxis.KeyBackspace):
		if r := []rune(ti.Value); len(r) > 0 {
			ti.Value = string(r[:len(r)-1])
		}
	case k.Text != "":
		ti.Value += k.Text
	default:
		return false
	}
	return true
}

// Draw renders "Label: value", bold with a block cursor while editing.
func (ti *TextInput) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, ti)
	col := uint16(0)
	write := func(text string, style vaxis.Style) {
		for _, ch := range ctx.Characters(text) {
			if col+uint16(ch.Width) > ctx.Max.Width {
				return
			}
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
			col += uint16(ch.Width)
		}
	}

	if ti.Label != "" {
		write(ti.Label+": ", vaxis.Style{Attribute: vaxis.AttrDim})
	}
	valueStyle := vaxis.Style{}
	if ti.Editing {
		valueStyle.Attribute |= vaxis.AttrBold
	}
	write(ti.Value, valueStyle)
	if ti.Editing {
		write(" ", vaxis.Style{Attribute: vaxis.AttrReverse})
	}
	return s, nil
}
