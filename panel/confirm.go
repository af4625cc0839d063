package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/lms"
)

// Impact summarises who a destructive action will affect.
type Impact struct {
	Section string
	Action  string
	Count   int
	Users   []string
	Warning string
}

// Message is the confirmation prompt shown to the user.
func (i Impact) Message() string {
	var b strings.Builder
	b.WriteString(i.Warning)
	fmt.Fprintf(&b, "\n\nUsers (%d):\n", i.Count)
	b.WriteString(strings.Join(i.Users, ", "))
	if i.Count > len(i.Users) {
		b.WriteString(", ...")
	}
	return b.String()
}

// ConfirmFunc asks the user to accept an Impact. An error counts as a
// refusal.
type ConfirmFunc func(ctx context.Context, impact Impact) (bool, error)

type preflightResult struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// preflight queries the action's impact and asks for confirmation when
// anyone would be affected. It reports whether the mutating request may be
// sent; when it may not, o is the outcome to render.
func (p *Panel) preflight(ctx context.Context, a *Action) (proceed bool, o Outcome) {
	resp, err := p.client.Do(ctx, &lms.Request{Method: http.MethodPost, URL: a.preflightURL})
	if err != nil {
		p.logger.Warn("preflight failed", zap.String("action", a.spec.Name), zap.Error(err))
		return false, failure(TransportError, a.spec.failureMessage())
	}
	if !resp.OK() {
		if msgs := errorBody(resp.Body); len(msgs) > 0 {
			return false, failure(ApplicationError, msgs...)
		}
		return false, failure(TransportError, a.spec.failureMessage())
	}

	var pf preflightResult
	if err := json.Unmarshal(resp.Body, &pf); err != nil {
		p.logger.Warn("preflight response unreadable", zap.String("action", a.spec.Name), zap.Error(err))
		return false, failure(TransportError, a.spec.failureMessage())
	}
	if pf.Count <= 0 {
		return true, Outcome{}
	}

	warning := a.spec.Preflight.Warning
	if warning == "" {
		warning = defaultPreflightWarn
	}
	impact := Impact{
		Section: p.desc.Name,
		Action:  a.spec.Name,
		Count:   pf.Count,
		Users:   pf.Users,
		Warning: warning,
	}
	if p.confirm == nil {
		return false, Outcome{Kind: Declined}
	}
	ok, err := p.confirm(ctx, impact)
	if err != nil {
		p.logger.Warn("confirmation failed", zap.String("action", a.spec.Name), zap.Error(err))
		return false, Outcome{Kind: Declined}
	}
	if !ok {
		p.logger.Info("action declined", zap.String("action", a.spec.Name), zap.Int("affected", pf.Count))
		return false, Outcome{Kind: Declined}
	}
	return true, Outcome{}
}
