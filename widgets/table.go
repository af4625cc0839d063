package widgets

import (
	"strconv"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

const (
	maxColumnWidth = 40
	minColumnWidth = 4
)

// TableColumn defines a column in a Table.
type TableColumn struct {
	Width      int         // character width
	AlignRight bool        // right-align text within the column
	Style      vaxis.Style // applied to all data cells in this column
}

// Table renders rows of text in columns using WriteCell. Cells that do not
// fit their column are cut with an ellipsis.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
	Header  []string // optional header row rendered bold
	Gap     int      // spaces between columns (default 1)
	Offset  int      // index of the first data row drawn
}

// NewTable builds a table whose columns are sized to fit header and rows
// within maxWidth.
func NewTable(header []string, rows [][]string, maxWidth int) *Table {
	return &Table{
		Columns: FitColumns(header, rows, maxWidth, 2),
		Header:  header,
		Rows:    rows,
		Gap:     2,
	}
}

// FitColumns sizes one column per header entry from the widest cell, capped
// at maxColumnWidth, then narrows the widest columns until the table fits
// maxWidth. Columns whose cells are all numbers are right-aligned.
func FitColumns(header []string, rows [][]string, maxWidth, gap int) []TableColumn {
	cols := make([]TableColumn, len(header))
	for i, h := range header {
		w := textWidth(h)
		numeric := len(rows) > 0
		for _, r := range rows {
			if i >= len(r) {
				continue
			}
			if cw := textWidth(r[i]); cw > w {
				w = cw
			}
			if _, err := strconv.ParseFloat(r[i], 64); err != nil && r[i] != "" {
				numeric = false
			}
		}
		cols[i] = TableColumn{Width: min(max(w, 1), maxColumnWidth), AlignRight: numeric}
	}

	total := func() int {
		t := gap * max(len(cols)-1, 0)
		for _, c := range cols {
			t += c.Width
		}
		return t
	}
	for total() > maxWidth {
		widest := -1
		for i, c := range cols {
			if c.Width > minColumnWidth && (widest < 0 || c.Width > cols[widest].Width) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		cols[widest].Width--
	}
	return cols
}

func textWidth(s string) int {
	w := 0
	for _, ch := range vaxis.Characters(s) {
		w += ch.Width
	}
	return w
}

// writeText writes s into surf at (col, row) within maxWidth. Text wider
// than maxWidth ends in an ellipsis; right-aligned text is padded on the left.
func writeText(surf *vxfw.Surface, col, row uint16, maxWidth int, s string, style vaxis.Style, alignRight bool) {
	if maxWidth <= 0 {
		return
	}
	chars := vaxis.Characters(s)
	width := textWidth(s)

	limit := maxWidth
	truncated := width > maxWidth
	if truncated {
		limit = maxWidth - 1
	}

	pos := 0
	if alignRight && width < maxWidth {
		pos = maxWidth - width
	}
	for _, ch := range chars {
		if pos+ch.Width > limit {
			break
		}
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{Character: ch, Style: style})
		pos += ch.Width
	}
	if truncated {
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{
			Character: vaxis.Character{Grapheme: "…", Width: 1},
			Style:     style,
		})
	}
}

func (t *Table) drawRow(s *vxfw.Surface, row uint16, cells []string, maxWidth uint16, header bool) {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}
	col := 0
	for i, c := range t.Columns {
		if col >= int(maxWidth) {
			break
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		style := c.Style
		if header {
			style = vaxis.Style{Attribute: vaxis.AttrBold}
		}
		writeText(s, uint16(col), row, min(c.Width, int(maxWidth)-col), text, style, c.AlignRight && !header)
		col += c.Width + gap
	}
}

// Draw renders the header (if set) and the rows from Offset on.
func (t *Table) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	offset := min(max(t.Offset, 0), len(t.Rows))
	rows := t.Rows[offset:]

	total := len(rows)
	if t.Header != nil {
		total++
	}
	height := uint16(min(total, int(ctx.Max.Height)))

	s := vxfw.NewSurface(ctx.Max.Width, height, t)
	row := uint16(0)
	if t.Header != nil && row < height {
		t.drawRow(&s, row, t.Header, ctx.Max.Width, true)
		row++
	}
	for _, cells := range rows {
		if row >= height {
			break
		}
		t.drawRow(&s, row, cells, ctx.Max.Width, false)
		row++
	}
	return s, nil
}
