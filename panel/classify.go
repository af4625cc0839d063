package panel

import (
	"bytes"

	"github.com/deevus/instructor-tui/lms"
)

// classify turns a response that reached the server into an Outcome.
//
// A non-2xx response carrying a JSON "error" or "errors" body is an
// application error; any other non-2xx, or a 2xx body that is not JSON, is a
// transport error with the action's failure message.
func classify(spec ActionSpec, resp *lms.Response) Outcome {
	if !resp.OK() {
		if msgs := errorBody(resp.Body); len(msgs) > 0 {
			return failure(ApplicationError, msgs...)
		}
		return failure(TransportError, spec.failureMessage())
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return emptyOutcome()
	}
	doc, err := decodeOrdered(resp.Body)
	if err != nil {
		return failure(TransportError, spec.failureMessage())
	}
	if isEmptyValue(doc) {
		return emptyOutcome()
	}

	obj, _ := doc.(*object)
	if msgs := messages(obj.get("errors")); len(msgs) > 0 {
		return failure(ApplicationError, msgs...)
	}
	if obj.has("datatable") {
		dt := obj.get("datatable")
		tbl, ok := tableFromDatatable(dt)
		if ok && len(tbl.Rows) > 0 {
			return tableOutcome(spec.Title, tbl)
		}
		// An empty table shows the message, if any.
		if ok || isEmptyValue(dt) {
			if msg, _ := obj.get("message").(string); msg != "" {
				return successOutcome(spec.Title, msg)
			}
			return emptyOutcome()
		}
	}

	switch spec.Result {
	case ResultStatus:
		if obj.has("status") {
			return successOutcome(spec.Title, cellText(obj.get("status")))
		}
	case ResultFiles:
		if files, ok := obj.get("files").([]any); ok {
			return tableOutcome(spec.Title, tableFromRecords(files))
		}
	case ResultRecords:
		if records, ok := doc.([]any); ok {
			return tableOutcome(spec.Title, tableFromRecords(records))
		}
	case ResultRaw:
		return successOutcome(spec.Title, prettyJSON(resp.Body))
	}

	if msg, ok := obj.get("message").(string); ok {
		if msg == "" {
			return emptyOutcome()
		}
		return successOutcome(spec.Title, msg)
	}
	return successOutcome(spec.Title, prettyJSON(resp.Body))
}

func tableOutcome(title string, tbl *Table) Outcome {
	if len(tbl.Rows) == 0 {
		return emptyOutcome()
	}
	if tbl.Title == "" {
		tbl.Title = title
	}
	return Outcome{Kind: Success, Title: title, Table: tbl}
}

// errorBody extracts error messages from a JSON error document.
func errorBody(body []byte) []string {
	doc, err := decodeOrdered(body)
	if err != nil {
		return nil
	}
	obj, ok := doc.(*object)
	if !ok {
		return nil
	}
	if msgs := messages(obj.get("errors")); len(msgs) > 0 {
		return msgs
	}
	return messages(obj.get("error"))
}
