package panel

import "fmt"

// Kind discriminates an Outcome.
type Kind int

const (
	Success Kind = iota
	EmptySuccess
	ApplicationError
	ValidationError
	TransportError
	// Declined means a confirmation gate was refused; nothing is rendered.
	Declined
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case EmptySuccess:
		return "empty"
	case ApplicationError:
		return "application_error"
	case ValidationError:
		return "validation_error"
	case TransportError:
		return "transport_error"
	case Declined:
		return "declined"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText makes Kind readable in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the single result of one action invocation.
type Outcome struct {
	Kind   Kind     `json:"kind" yaml:"kind"`
	Title  string   `json:"title,omitempty" yaml:"title,omitempty"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	Table  *Table   `json:"table,omitempty" yaml:"table,omitempty"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Failed reports whether the outcome belongs in the errors region.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case ApplicationError, ValidationError, TransportError:
		return true
	}
	return false
}

// Table is a rendered datatable.
type Table struct {
	Title  string     `json:"title,omitempty" yaml:"title,omitempty"`
	Header []string   `json:"header" yaml:"header"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// Results is the content of a panel's results region.
type Results struct {
	Title string
	Text  string
	Table *Table
	// Notice marks informational text such as "No results.".
	Notice bool
}

// Empty reports whether the region shows nothing.
func (r Results) Empty() bool {
	return r.Text == "" && r.Table == nil
}

func successOutcome(title, text string) Outcome {
	return Outcome{Kind: Success, Title: title, Text: text}
}

func emptyOutcome() Outcome {
	return Outcome{Kind: EmptySuccess, Text: noResultsMessage}
}

func failure(kind Kind, msgs ...string) Outcome {
	return Outcome{Kind: kind, Errors: msgs}
}
