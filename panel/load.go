package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deevus/instructor-tui/lms"
)

// maxOptionLoads bounds concurrent option requests per panel.
const maxOptionLoads = 4

// LoadOptions fetches the options of every select field concurrently. A
// failing field gets an inline error and stays disabled; the other fields
// and both regions are unaffected. The returned error joins the per-field
// failures for logging.
func (p *Panel) LoadOptions(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	p.cancelLoad = cancel
	var targets []*field
	for _, f := range p.fields {
		if f.optionsURL != "" {
			f.loading = true
			f.err = ""
			targets = append(targets, f)
		}
	}
	p.mu.Unlock()

	errs := make([]error, len(targets))
	var g errgroup.Group
	g.SetLimit(maxOptionLoads)
	for i, f := range targets {
		g.Go(func() error {
			opts, err := p.fetchOptions(ctx, f)
			p.applyOptions(f, opts, err)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.spec.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	cancel()
	return errors.Join(errs...)
}

func (p *Panel) fetchOptions(ctx context.Context, f *field) ([]Option, error) {
	resp, err := p.client.Do(ctx, &lms.Request{Method: http.MethodPost, URL: f.optionsURL})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		if msgs := errorBody(resp.Body); len(msgs) > 0 {
			return nil, serverMessage(msgs[0])
		}
		return nil, &lms.StatusError{StatusCode: resp.StatusCode, URL: f.optionsURL}
	}
	return parseOptions(resp.Body)
}

func (p *Panel) applyOptions(f *field, opts []Option, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.loading = false
	if err != nil {
		f.err = optionError(err)
		p.logger.Warn("loading options failed", zap.String("field", f.spec.Name), zap.Error(err))
		return
	}
	f.options = append(f.options[:0], opts...)
	f.disabled = false
	f.err = ""
}

// optionError is the inline message for a failed option load. Server
// messages are shown as-is; transport details are not.
func optionError(err error) string {
	var msg serverMessage
	if errors.As(err, &msg) {
		return string(msg)
	}
	return defaultFailureMessage
}

// serverMessage is an error text the server produced for display.
type serverMessage string

func (m serverMessage) Error() string { return string(m) }
