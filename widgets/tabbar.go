package widgets

import (
	"strconv"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TabBar is a horizontal tab navigation widget. Each tab carries an
// optional badge drawn after its label, e.g. a busy marker.
type TabBar struct {
	labels []string
	badges []string
	active int
}

// NewTabBar creates a TabBar with the given labels. Active defaults to 0.
func NewTabBar(labels []string) *TabBar {
	return &TabBar{labels: labels, badges: make([]string, len(labels))}
}

// Len returns the number of tabs.
func (tb *TabBar) Len() int {
	return len(tb.labels)
}

// Active returns the currently active tab index.
func (tb *TabBar) Active() int {
	return tb.active
}

// SetActive sets the active tab index. Out-of-range values are ignored.
func (tb *TabBar) SetActive(i int) {
	if i >= 0 && i < len(tb.labels) {
		tb.active = i
	}
}

// Next advances to the next tab, wrapping around.
func (tb *TabBar) Next() {
	if len(tb.labels) == 0 {
		return
	}
	tb.active = (tb.active + 1) % len(tb.labels)
}

// Prev moves to the previous tab, wrapping around.
func (tb *TabBar) Prev() {
	if len(tb.labels) == 0 {
		return
	}
	tb.active = (tb.active - 1 + len(tb.labels)) % len(tb.labels)
}

// SetBadge sets the badge of tab i. An empty badge clears it.
func (tb *TabBar) SetBadge(i int, badge string) {
	if i >= 0 && i < len(tb.badges) {
		tb.badges[i] = badge
	}
}

// Badge returns the badge of tab i.
func (tb *TabBar) Badge(i int) string {
	if i < 0 || i >= len(tb.badges) {
		return ""
	}
	return tb.badges[i]
}

// Draw renders the tab bar as a single row: " 1 Grades | 2 Canvas* ".
// The active tab is rendered with reverse video, badges in yellow.
func (tb *TabBar) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, tb)

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

	for i, label := range tb.labels {
		if i > 0 {
			write(" | ", vaxis.Style{Attribute: vaxis.AttrDim})
		}

		style := vaxis.Style{}
		if i == tb.active {
			style.Attribute |= vaxis.AttrReverse
		}
		prefix := ""
		if i < 9 {
			prefix = strconv.Itoa(i+1) + " "
		}
		write(" "+prefix+label, style)
		if b := tb.badges[i]; b != "" {
			badgeStyle := style
			badgeStyle.Foreground = vaxis.IndexColor(3)
			write(b, badgeStyle)
		}
		write(" ", style)
	}

	return s, nil
}
