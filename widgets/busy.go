package widgets

import (
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Busy is a busy indicator. Show and Hide may be called from any
// goroutine; each Show must be paired with one Hide. OnChange, when set, is
// called after every change so the owner can request a redraw.
type Busy struct {
	Label    string
	OnChange func()

	mu    sync.Mutex
	count int
	since time.Time
}

// Show marks one more request in flight.
func (b *Busy) Show() {
	b.mu.Lock()
	b.count++
	if b.count == 1 {
		b.since = time.Now()
	}
	b.mu.Unlock()
	b.notify()
}

// Hide marks one request finished.
func (b *Busy) Hide() {
	b.mu.Lock()
	if b.count > 0 {
		b.count--
	}
	b.mu.Unlock()
	b.notify()
}

// Active reports whether any request is in flight.
func (b *Busy) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count > 0
}

// InFlight returns the number of requests in flight.
func (b *Busy) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Busy) notify() {
	if b.OnChange != nil {
		b.OnChange()
	}
}

// Draw renders the label while active and an empty row otherwise.
func (b *Busy) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, b)
	if !b.Active() {
		return s, nil
	}
	label := b.Label
	if label == "" {
		label = "Working..."
	}
	style := vaxis.Style{Foreground: vaxis.IndexColor(3), Attribute: vaxis.AttrBold}
	col := uint16(0)
	for _, ch := range ctx.Characters(label) {
		if col+uint16(ch.Width) > ctx.Max.Width {
			break
		}
		s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
		col += uint16(ch.Width)
	}
	return s, nil
}
