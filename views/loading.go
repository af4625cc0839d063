package views

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
)

// drawMessage renders one styled line per entry at the top of the view.
func drawMessage(ctx vxfw.DrawContext, owner vxfw.Widget, style vaxis.Style, lines ...string) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, owner)
	for i, line := range lines {
		if i >= int(ctx.Max.Height) {
			break
		}
		label := richtext.New([]vaxis.Segment{{Text: line, Style: style}})
		surf, err := label.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, i, surf)
	}
	return s, nil
}

// DrawLoadingState renders a dim "Loading..." line.
func DrawLoadingState(ctx vxfw.DrawContext, owner vxfw.Widget) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, vaxis.Style{Attribute: vaxis.AttrDim}, "Loading...")
}

// DrawMessage renders plain dim lines; used by the app for connection state.
func DrawMessage(ctx vxfw.DrawContext, owner vxfw.Widget, lines ...string) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, vaxis.Style{Attribute: vaxis.AttrDim}, lines...)
}

// DrawError renders lines in red.
func DrawError(ctx vxfw.DrawContext, owner vxfw.Widget, lines ...string) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, vaxis.Style{Foreground: vaxis.IndexColor(1)}, lines...)
}
