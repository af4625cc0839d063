package panel

// tableFromDatatable accepts the three datatable shapes the LMS sends:
// an array of records, {header, data: [[...]]}, and {title, data: [records]}.
func tableFromDatatable(v any) (*Table, bool) {
	switch t := v.(type) {
	case []any:
		return tableFromRecords(t), true
	case *object:
		title := cellText(t.get("title"))
		data, _ := t.get("data").([]any)
		if header, ok := t.get("header").([]any); ok {
			tbl := &Table{Title: title, Header: make([]string, len(header))}
			for i, h := range header {
				tbl.Header[i] = cellText(h)
			}
			for _, row := range data {
				tbl.Rows = append(tbl.Rows, rowCells(row, len(header)))
			}
			return tbl, true
		}
		if t.has("data") {
			tbl := tableFromRecords(data)
			tbl.Title = title
			return tbl, true
		}
	}
	return nil, false
}

// tableFromRecords builds a table whose columns are the keys of the first
// record, in document order. Records missing a column render it blank.
func tableFromRecords(records []any) *Table {
	tbl := &Table{}
	if len(records) == 0 {
		return tbl
	}
	first, ok := records[0].(*object)
	if !ok {
		tbl.Header = []string{"value"}
		for _, r := range records {
			tbl.Rows = append(tbl.Rows, []string{cellText(r)})
		}
		return tbl
	}
	tbl.Header = append([]string(nil), first.keys...)
	for _, r := range records {
		row := make([]string, len(tbl.Header))
		if rec, ok := r.(*object); ok {
			for i, col := range tbl.Header {
				row[i] = cellText(rec.get(col))
			}
		} else if len(row) > 0 {
			row[0] = cellText(r)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl
}

func rowCells(row any, width int) []string {
	cells := make([]string, width)
	arr, ok := row.([]any)
	if !ok {
		if width > 0 {
			cells[0] = cellText(row)
		}
		return cells
	}
	for i := 0; i < width && i < len(arr); i++ {
		cells[i] = cellText(arr[i])
	}
	return cells
}
