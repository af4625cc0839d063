// Package panel implements the action panel controller shared by every
// dashboard section: gather field values, send one request, render exactly
// one outcome into either the results or the errors region, and keep the
// busy indicator balanced on every path.
package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/lms"
)

var (
	// ErrUnknownAction is returned by Invoke for a name the descriptor lacks.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownField is returned for field names the descriptor lacks.
	ErrUnknownField = errors.New("unknown field")
)

// EndpointResolver maps a section's endpoint name to an absolute URL.
type EndpointResolver interface {
	URL(section, name string) (string, error)
}

// Indicator is the busy indicator. Show and Hide are called once each per
// request sent.
type Indicator interface {
	Show()
	Hide()
}

// Options holds the collaborators a panel needs.
type Options struct {
	Client    lms.API
	Endpoints EndpointResolver
	// Confirm gates destructive actions. A nil Confirm declines.
	Confirm     ConfirmFunc
	Indicator   Indicator
	DownloadDir string
	Logger      *zap.Logger
}

// Action is a resolved action handle.
type Action struct {
	spec         ActionSpec
	url          string
	preflightURL string
}

// Name returns the action's identifier.
func (a *Action) Name() string { return a.spec.Name }

// Label returns the button text.
func (a *Action) Label() string { return a.spec.Label }

// Fields returns the names of the fields sent with the action.
func (a *Action) Fields() []string { return a.spec.Fields }

// Destructive reports whether the action is gated by a confirmation.
func (a *Action) Destructive() bool { return a.preflightURL != "" }

type field struct {
	spec       FieldSpec
	optionsURL string
	value      string
	options    []Option
	loading    bool
	disabled   bool
	err        string
}

// FieldState is a snapshot of one field.
type FieldState struct {
	Name     string
	Label    string
	Kind     FieldKind
	Value    string
	Options  []Option
	Loading  bool
	Disabled bool
	Err      string
}

// Panel is the controller for one dashboard section.
type Panel struct {
	desc      Descriptor
	client    lms.API
	confirm   ConfirmFunc
	indicator Indicator
	dir       string
	logger    *zap.Logger

	actions []*Action
	byName  map[string]*Action

	mu          sync.Mutex
	fields      []*field
	fieldByName map[string]*field
	results     Results
	errs        []string
	busy        int
	last        Outcome
	lastAt      time.Time
	cancelLoad  context.CancelFunc
}

// New resolves desc against the configured endpoints.
func New(desc Descriptor, opts Options) (*Panel, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("section %s: no client", desc.Name)
	}
	if opts.Endpoints == nil {
		return nil, fmt.Errorf("section %s: no endpoint resolver", desc.Name)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Panel{
		desc:        desc,
		client:      opts.Client,
		confirm:     opts.Confirm,
		indicator:   opts.Indicator,
		dir:         opts.DownloadDir,
		logger:      logger.Named("panel").With(zap.String("section", desc.Name)),
		byName:      make(map[string]*Action, len(desc.Actions)),
		fieldByName: make(map[string]*field, len(desc.Fields)),
	}

	for _, fs := range desc.Fields {
		if _, dup := p.fieldByName[fs.Name]; dup {
			return nil, fmt.Errorf("section %s: duplicate field %q", desc.Name, fs.Name)
		}
		f := &field{spec: fs}
		if fs.OptionsEndpoint != "" {
			u, err := opts.Endpoints.URL(desc.Name, fs.OptionsEndpoint)
			if err != nil {
				return nil, fmt.Errorf("section %s: field %s: %w", desc.Name, fs.Name, err)
			}
			f.optionsURL = u
			f.disabled = true
		}
		p.fields = append(p.fields, f)
		p.fieldByName[fs.Name] = f
	}

	for _, as := range desc.Actions {
		if _, dup := p.byName[as.Name]; dup {
			return nil, fmt.Errorf("section %s: duplicate action %q", desc.Name, as.Name)
		}
		for _, name := range append(append([]string(nil), as.Fields...), as.Required...) {
			if _, ok := p.fieldByName[name]; !ok {
				return nil, fmt.Errorf("section %s: action %s: %w %q", desc.Name, as.Name, ErrUnknownField, name)
			}
		}
		u, err := opts.Endpoints.URL(desc.Name, as.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("section %s: action %s: %w", desc.Name, as.Name, err)
		}
		a := &Action{spec: as, url: u}
		if as.Method == "" {
			a.spec.Method = http.MethodPost
		}
		if as.Preflight != nil {
			pu, err := opts.Endpoints.URL(desc.Name, as.Preflight.Endpoint)
			if err != nil {
				return nil, fmt.Errorf("section %s: action %s preflight: %w", desc.Name, as.Name, err)
			}
			a.preflightURL = pu
		}
		p.actions = append(p.actions, a)
		p.byName[as.Name] = a
	}
	return p, nil
}

// Name returns the section identifier.
func (p *Panel) Name() string { return p.desc.Name }

// Title returns the section's display title.
func (p *Panel) Title() string { return p.desc.Title }

// Actions returns the panel's actions in declaration order.
func (p *Panel) Actions() []*Action {
	return p.actions
}

// Action returns the named action.
func (p *Panel) Action(name string) (*Action, bool) {
	a, ok := p.byName[name]
	return a, ok
}

// Fields returns a snapshot of all fields.
func (p *Panel) Fields() []FieldState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]FieldState, len(p.fields))
	for i, f := range p.fields {
		out[i] = FieldState{
			Name:     f.spec.Name,
			Label:    f.spec.Label,
			Kind:     f.spec.Kind,
			Value:    f.value,
			Options:  append([]Option(nil), f.options...),
			Loading:  f.loading,
			Disabled: f.disabled,
			Err:      f.err,
		}
	}
	return out
}

// SetValue sets a field's current value.
func (p *Panel) SetValue(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.fieldByName[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	f.value = value
	return nil
}

// CycleOption moves a select field to the next (delta > 0) or previous
// option, wrapping around. It is a no-op for fields without options.
func (p *Panel) CycleOption(name string, delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.fieldByName[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	n := len(f.options)
	if n == 0 || f.disabled {
		return nil
	}
	cur := -1
	for i, o := range f.options {
		if o.Value == f.value {
			cur = i
			break
		}
	}
	var next int
	switch {
	case cur < 0 && delta < 0:
		next = n - 1
	case cur < 0:
		next = 0
	default:
		next = ((cur+delta)%n + n) % n
	}
	f.value = f.options[next].Value
	return nil
}

// Values returns a snapshot of all field values.
func (p *Panel) Values() Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valuesLocked()
}

func (p *Panel) valuesLocked() Values {
	v := make(Values, len(p.fields))
	for _, f := range p.fields {
		v[f.spec.Name] = f.value
	}
	return v
}

// Results returns the results region.
func (p *Panel) Results() Results {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Errors returns the errors region.
func (p *Panel) Errors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.errs...)
}

// Busy reports whether any request is in flight.
func (p *Panel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy > 0
}

// LastOutcome returns the most recently rendered outcome and when it landed.
func (p *Panel) LastOutcome() (Outcome, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.lastAt
}

// Clear empties both regions.
func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = Results{}
	p.errs = nil
}

// Hide cancels any option load still running.
func (p *Panel) Hide() {
	p.mu.Lock()
	cancel := p.cancelLoad
	p.cancelLoad = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Invoke runs the named action and renders its outcome. The returned error
// is non-nil only when the action does not exist.
func (p *Panel) Invoke(ctx context.Context, name string) (Outcome, error) {
	a, ok := p.byName[name]
	if !ok {
		return Outcome{}, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	start := time.Now()
	values := p.Values()

	o := p.run(ctx, a, values)
	p.render(o)

	p.logger.Info("action completed",
		zap.String("action", a.spec.Name),
		zap.Stringer("outcome", o.Kind),
		zap.Duration("elapsed", time.Since(start)),
	)
	return o, nil
}

func (p *Panel) run(ctx context.Context, a *Action, values Values) Outcome {
	for _, name := range a.spec.Required {
		if strings.TrimSpace(values[name]) == "" {
			return failure(ValidationError, a.spec.requiredMessage())
		}
	}

	if a.preflightURL != "" {
		proceed, o := p.preflight(ctx, a)
		if !proceed {
			return o
		}
	}

	if a.spec.ClearFirst {
		p.Clear()
	}
	return p.send(ctx, a, values)
}

func (p *Panel) send(ctx context.Context, a *Action, values Values) Outcome {
	p.showBusy()
	defer p.hideBusy()

	resp, err := p.client.Do(ctx, &lms.Request{
		Method:   a.spec.Method,
		URL:      a.url,
		Encoding: a.spec.Encoding,
		Params:   a.spec.payload(values),
	})
	if err != nil {
		p.logger.Warn("request failed", zap.String("action", a.spec.Name), zap.Error(err))
		return failure(TransportError, a.spec.failureMessage())
	}
	if !resp.OK() {
		p.logger.Warn("request rejected",
			zap.String("action", a.spec.Name),
			zap.Error(&lms.StatusError{StatusCode: resp.StatusCode, URL: a.url}),
		)
	}
	if a.spec.Result == ResultDownload && resp.OK() {
		return p.save(a, values, resp)
	}
	return classify(a.spec, resp)
}

// render writes o into exactly one region. Declined outcomes leave both
// regions untouched.
func (p *Panel) render(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o.Kind == Declined {
		return
	}
	if o.Failed() {
		p.results = Results{}
		p.errs = append([]string(nil), o.Errors...)
	} else {
		p.errs = nil
		p.results = Results{
			Title:  o.Title,
			Text:   o.Text,
			Table:  o.Table,
			Notice: o.Kind == EmptySuccess,
		}
	}
	p.last = o
	p.lastAt = time.Now()
}

func (p *Panel) showBusy() {
	p.mu.Lock()
	p.busy++
	p.mu.Unlock()
	if p.indicator != nil {
		p.indicator.Show()
	}
}

func (p *Panel) hideBusy() {
	p.mu.Lock()
	p.busy--
	p.mu.Unlock()
	if p.indicator != nil {
		p.indicator.Hide()
	}
}
