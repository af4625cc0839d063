package panel

import (
	"github.com/deevus/instructor-tui/lms"
)

// FieldKind distinguishes free-text inputs from option selectors.
type FieldKind int

const (
	TextField FieldKind = iota
	SelectField
)

// ResultMode tells the classifier which success payload an action expects.
// Errors, empty bodies and datatables are recognised in every mode.
type ResultMode int

const (
	// ResultDatatable renders a datatable, a message, or the raw payload.
	ResultDatatable ResultMode = iota
	// ResultRecords renders a bare array of records as a table.
	ResultRecords
	// ResultRaw always pretty-prints the payload.
	ResultRaw
	// ResultStatus renders the "status" field as text.
	ResultStatus
	// ResultFiles renders the "files" array as a table.
	ResultFiles
	// ResultDownload saves the body to the download directory.
	ResultDownload
)

// Values holds field values by field name.
type Values map[string]string

// Descriptor declares a dashboard section: its fields and the actions bound
// to them. Endpoint names are resolved when the panel is built.
type Descriptor struct {
	Name    string
	Title   string
	Fields  []FieldSpec
	Actions []ActionSpec
}

// FieldSpec declares one input.
type FieldSpec struct {
	Name  string
	Label string
	Kind  FieldKind
	// OptionsEndpoint names the endpoint that lists this field's options.
	OptionsEndpoint string
}

// ActionSpec declares one trigger and the request it sends.
type ActionSpec struct {
	Name     string
	Label    string
	Endpoint string
	Method   string
	Encoding lms.Encoding

	// Fields are copied into the payload under their own names.
	Fields []string
	// Params are static payload entries.
	Params map[string]string
	// Build replaces the default payload builder when set.
	Build func(Values) map[string]string

	Required        []string
	RequiredMessage string

	Result         ResultMode
	Title          string
	FailureMessage string
	// ClearFirst empties both regions before the request is sent.
	ClearFirst bool

	Preflight *PreflightSpec
}

// PreflightSpec declares a read-only impact query that must be confirmed
// before the action's mutating request is sent.
type PreflightSpec struct {
	Endpoint string
	Warning  string
}

const (
	defaultFailureMessage  = "Request failed."
	defaultRequiredMessage = "Required data missing. Please fill the fields and try again."
	defaultPreflightWarn   = "WARNING: This will unenroll non-staff users from the course."
	noResultsMessage       = "No results."
)

func (a ActionSpec) failureMessage() string {
	if a.FailureMessage != "" {
		return a.FailureMessage
	}
	return defaultFailureMessage
}

func (a ActionSpec) requiredMessage() string {
	if a.RequiredMessage != "" {
		return a.RequiredMessage
	}
	return defaultRequiredMessage
}

func (a ActionSpec) payload(values Values) map[string]string {
	if a.Build != nil {
		return a.Build(values)
	}
	out := make(map[string]string, len(a.Params)+len(a.Fields))
	for k, v := range a.Params {
		out[k] = v
	}
	for _, f := range a.Fields {
		out[f] = values[f]
	}
	return out
}
