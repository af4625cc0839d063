package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/deevus/instructor-tui/panel"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func validFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
}

// writeOutcome prints o in the requested format.
func writeOutcome(w io.Writer, format string, o panel.Outcome) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(o, "", "    ")
		if err != nil {
			return fmt.Errorf("encoding outcome: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(o)
		if err != nil {
			return fmt.Errorf("encoding outcome: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return writeOutcomeText(w, o)
}

func writeOutcomeText(w io.Writer, o panel.Outcome) error {
	var b strings.Builder
	switch {
	case o.Kind == panel.Declined:
		b.WriteString(noticeStyle.Render("Cancelled."))
		b.WriteString("\n")
	case o.Failed():
		for _, msg := range o.Errors {
			b.WriteString(errorStyle.Render("✗ " + msg))
			b.WriteString("\n")
		}
	case o.Kind == panel.EmptySuccess:
		b.WriteString(noticeStyle.Render(o.Text))
		b.WriteString("\n")
	case o.Table != nil:
		title := o.Table.Title
		if title == "" {
			title = o.Title
		}
		if title != "" {
			b.WriteString(titleStyle.Render(title))
			b.WriteString("\n")
		}
		b.WriteString(renderTable(o.Table.Header, o.Table.Rows))
		b.WriteString("\n")
	default:
		if o.Title != "" {
			b.WriteString(titleStyle.Render(o.Title + ":"))
			b.WriteString(" ")
		}
		b.WriteString(o.Text)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderTable(header []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
