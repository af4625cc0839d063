package panel_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deevus/instructor-tui/lms"
	"github.com/deevus/instructor-tui/panel"
)

const base = "https://lms.test/c1/"

// endpoints resolves every name to base+name.
type endpoints map[string]bool

func (e endpoints) URL(section, name string) (string, error) {
	if e != nil && !e[name] {
		return "", fmt.Errorf("no endpoint %s.%s configured", section, name)
	}
	return base + name, nil
}

type countingIndicator struct {
	shows atomic.Int32
	hides atomic.Int32
}

func (c *countingIndicator) Show() { c.shows.Add(1) }
func (c *countingIndicator) Hide() { c.hides.Add(1) }

func testDescriptor() panel.Descriptor {
	return panel.Descriptor{
		Name:  "grades",
		Title: "Grades",
		Fields: []panel.FieldSpec{
			{Name: "assignment_name", Label: "Assignment"},
			{Name: "section_name", Label: "Section", Kind: panel.SelectField, OptionsEndpoint: "get_sections"},
		},
		Actions: []panel.ActionSpec{
			{Name: "list", Endpoint: "list"},
			{
				Name:            "display",
				Endpoint:        "display",
				Fields:          []string{"assignment_name"},
				Required:        []string{"assignment_name"},
				RequiredMessage: "Assignment name must be specified.",
			},
			{
				Name:     "overload",
				Endpoint: "overload",
				Fields:   []string{"section_name"},
				Params:   map[string]string{"unenroll_current": "true"},
				Preflight: &panel.PreflightSpec{
					Endpoint: "preflight",
				},
			},
			{
				Name:           "export",
				Endpoint:       "export",
				Method:         http.MethodGet,
				Encoding:       lms.EncodeQuery,
				Fields:         []string{"assignment_name"},
				Result:         panel.ResultStatus,
				Title:          "Status",
				FailureMessage: "Error posting grades to remote grade book. Please try again.",
				ClearFirst:     true,
			},
		},
	}
}

func newPanel(t *testing.T, client lms.API, opts panel.Options) *panel.Panel {
	t.Helper()
	opts.Client = client
	if opts.Endpoints == nil {
		opts.Endpoints = endpoints(nil)
	}
	p, err := panel.New(testDescriptor(), opts)
	require.NoError(t, err)
	return p
}

func respond(status int, body string) func(context.Context, *lms.Request) (*lms.Response, error) {
	return func(context.Context, *lms.Request) (*lms.Response, error) {
		return lms.JSONResponse(status, body), nil
	}
}

func TestNew_Accessors(t *testing.T) {
	desc := testDescriptor()
	desc.Actions[1].Label = "Display"
	p, err := panel.New(desc, panel.Options{Client: &lms.MockClient{}, Endpoints: endpoints(nil)})
	require.NoError(t, err)

	assert.Equal(t, "grades", p.Name())
	assert.Equal(t, "Grades", p.Title())

	a, ok := p.Action("display")
	require.True(t, ok)
	assert.Equal(t, "display", a.Name())
	assert.Equal(t, "Display", a.Label())
	assert.Equal(t, []string{"assignment_name"}, a.Fields())
	assert.False(t, a.Destructive())
}

func TestNew_RejectsUnknownField(t *testing.T) {
	desc := testDescriptor()
	desc.Actions[0].Fields = []string{"nope"}

	_, err := panel.New(desc, panel.Options{Client: &lms.MockClient{}, Endpoints: endpoints(nil)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, panel.ErrUnknownField))
}

func TestNew_RejectsUnresolvedEndpoint(t *testing.T) {
	_, err := panel.New(testDescriptor(), panel.Options{
		Client:    &lms.MockClient{},
		Endpoints: endpoints{"list": true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint grades.")
}

func TestInvoke_UnknownAction(t *testing.T) {
	p := newPanel(t, &lms.MockClient{}, panel.Options{})
	_, err := p.Invoke(context.Background(), "missing")
	assert.True(t, errors.Is(err, panel.ErrUnknownAction))
}

func TestInvoke_ValidationSendsNothing(t *testing.T) {
	client := &lms.MockClient{}
	ind := &countingIndicator{}
	p := newPanel(t, client, panel.Options{Indicator: ind})

	for _, v := range []string{"", "   "} {
		require.NoError(t, p.SetValue("assignment_name", v))
		o, err := p.Invoke(context.Background(), "display")
		require.NoError(t, err)

		assert.Equal(t, panel.ValidationError, o.Kind)
		assert.Equal(t, []string{"Assignment name must be specified."}, p.Errors())
		assert.True(t, p.Results().Empty())
	}
	assert.Empty(t, client.Calls())
	assert.Zero(t, ind.shows.Load())
	assert.Zero(t, ind.hides.Load())
}

func TestInvoke_SendsFieldValues(t *testing.T) {
	client := &lms.MockClient{DoFunc: respond(http.StatusOK, `{"datatable":[{"student":"alice","grade":0.9}]}`)}
	p := newPanel(t, client, panel.Options{})
	require.NoError(t, p.SetValue("assignment_name", "Hw 01"))

	_, err := p.Invoke(context.Background(), "display")
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, base+"display", calls[0].URL)
	assert.Equal(t, lms.EncodeForm, calls[0].Encoding)
	assert.Equal(t, map[string]string{"assignment_name": "Hw 01"}, calls[0].Params)
}

func TestInvoke_Classification(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		status     int
		body       string
		wantKind   panel.Kind
		wantText   string
		wantErrors []string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "datatable records",
			action:     "list",
			status:     200,
			body:       `{"datatable":[{"a":1,"b":2},{"a":3,"b":4}]}`,
			wantKind:   panel.Success,
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:       "columns keep document order and missing keys are blank",
			action:     "list",
			status:     200,
			body:       `{"datatable":[{"zeta":"z","alpha":null},{"alpha":true,"extra":1},{"zeta":{"n":[1,2]}}]}`,
			wantKind:   panel.Success,
			wantHeader: []string{"zeta", "alpha"},
			wantRows:   [][]string{{"z", ""}, {"", "true"}, {`{"n":[1,2]}`, ""}},
		},
		{
			name:       "header and data",
			action:     "list",
			status:     200,
			body:       `{"datatable":{"header":["assignment","points"],"data":[["Hw 01",10],["Ex 01"]]}}`,
			wantKind:   panel.Success,
			wantHeader: []string{"assignment", "points"},
			wantRows:   [][]string{{"Hw 01", "10"}, {"Ex 01", ""}},
		},
		{
			name:       "errors suppress results",
			action:     "list",
			status:     200,
			body:       `{"errors":["Section name is required."],"datatable":[{"a":1}]}`,
			wantKind:   panel.ApplicationError,
			wantErrors: []string{"Section name is required."},
		},
		{
			name:     "raw payload is pretty printed",
			action:   "list",
			status:   200,
			body:     `{"b":1,"a":[true]}`,
			wantKind: panel.Success,
			wantText: "{\n    \"b\": 1,\n    \"a\": [\n        true\n    ]\n}",
		},
		{
			name:     "message",
			action:   "list",
			status:   200,
			body:     `{"datatable":[],"message":"Nothing to merge."}`,
			wantKind: panel.Success,
			wantText: "Nothing to merge.",
		},
		{name: "empty datatable", action: "list", status: 200, body: `{"datatable":[]}`, wantKind: panel.EmptySuccess, wantText: "No results."},
		{name: "empty datatable data", action: "list", status: 200, body: `{"datatable":{"data":[]}}`, wantKind: panel.EmptySuccess, wantText: "No results."},
		{name: "null datatable", action: "list", status: 200, body: `{"datatable":null,"message":""}`, wantKind: panel.EmptySuccess, wantText: "No results."},
		{
			name:     "empty header table with message",
			action:   "list",
			status:   200,
			body:     `{"datatable":{"header":["a"],"data":[]},"message":"No matching students."}`,
			wantKind: panel.Success,
			wantText: "No matching students.",
		},
		{name: "empty body", action: "list", status: 200, body: ``, wantKind: panel.EmptySuccess, wantText: "No results."},
		{name: "null", action: "list", status: 200, body: `null`, wantKind: panel.EmptySuccess, wantText: "No results."},
		{name: "empty object", action: "list", status: 200, body: `{}`, wantKind: panel.EmptySuccess, wantText: "No results."},
		{name: "empty array", action: "list", status: 200, body: ` [] `, wantKind: panel.EmptySuccess, wantText: "No results."},
		{
			name:       "server error without json",
			action:     "list",
			status:     500,
			body:       `<html>Traceback</html>`,
			wantKind:   panel.TransportError,
			wantErrors: []string{"Request failed."},
		},
		{
			name:       "server error with json error",
			action:     "list",
			status:     400,
			body:       `{"error":"filename and url are required"}`,
			wantKind:   panel.ApplicationError,
			wantErrors: []string{"filename and url are required"},
		},
		{
			name:       "unparseable success body",
			action:     "list",
			status:     200,
			body:       `{"datatable":`,
			wantKind:   panel.TransportError,
			wantErrors: []string{"Request failed."},
		},
		{
			name:     "status field",
			action:   "export",
			status:   200,
			body:     `{"status":"Grade export has been submitted."}`,
			wantKind: panel.Success,
			wantText: "Grade export has been submitted.",
		},
		{
			name:       "custom failure message",
			action:     "export",
			status:     502,
			body:       ``,
			wantKind:   panel.TransportError,
			wantErrors: []string{"Error posting grades to remote grade book. Please try again."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPanel(t, &lms.MockClient{DoFunc: respond(tt.status, tt.body)}, panel.Options{})

			o, err := p.Invoke(context.Background(), tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, o.Kind)
			assert.Equal(t, tt.wantErrors, p.Errors())

			res := p.Results()
			if o.Failed() {
				assert.True(t, res.Empty(), "results must be empty when errors are shown")
				return
			}
			assert.Empty(t, p.Errors())
			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, tt.wantKind == panel.EmptySuccess, res.Notice)
			if tt.wantHeader != nil {
				require.NotNil(t, res.Table)
				assert.Equal(t, tt.wantHeader, res.Table.Header)
				assert.Equal(t, tt.wantRows, res.Table.Rows)
			}
		})
	}
}

func TestInvoke_TransportErrorHidesDetails(t *testing.T) {
	client := &lms.MockClient{DoFunc: func(context.Context, *lms.Request) (*lms.Response, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
	}}
	p := newPanel(t, client, panel.Options{})

	o, err := p.Invoke(context.Background(), "list")
	require.NoError(t, err)
	assert.Equal(t, panel.TransportError, o.Kind)
	assert.Equal(t, []string{"Request failed."}, p.Errors())
}

func TestInvoke_RegionsAreMutuallyExclusive(t *testing.T) {
	bodies := []struct {
		status int
		body   string
	}{
		{200, `{"datatable":[{"a":1}]}`},
		{200, `{"errors":["bad"]}`},
		{200, `{"datatable":[{"a":2}]}`},
		{500, ``},
		{200, `{}`},
	}
	var i int
	client := &lms.MockClient{DoFunc: func(context.Context, *lms.Request) (*lms.Response, error) {
		b := bodies[i]
		i++
		return lms.JSONResponse(b.status, b.body), nil
	}}
	p := newPanel(t, client, panel.Options{})

	for range bodies {
		_, err := p.Invoke(context.Background(), "list")
		require.NoError(t, err)
		assert.False(t, !p.Results().Empty() && len(p.Errors()) > 0)
	}
	assert.Equal(t, "No results.", p.Results().Text)
}

func TestInvoke_BusyIndicatorBalanced(t *testing.T) {
	outcomes := []func(context.Context, *lms.Request) (*lms.Response, error){
		respond(200, `{"datatable":[{"a":1}]}`),
		respond(200, `{"errors":["x"]}`),
		respond(500, `oops`),
		func(context.Context, *lms.Request) (*lms.Response, error) { return nil, errors.New("reset") },
	}
	for i, do := range outcomes {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			ind := &countingIndicator{}
			var p *panel.Panel
			client := &lms.MockClient{DoFunc: func(ctx context.Context, r *lms.Request) (*lms.Response, error) {
				assert.True(t, p.Busy())
				assert.Equal(t, int32(1), ind.shows.Load())
				assert.Zero(t, ind.hides.Load())
				return do(ctx, r)
			}}
			p = newPanel(t, client, panel.Options{Indicator: ind})

			_, err := p.Invoke(context.Background(), "list")
			require.NoError(t, err)
			assert.Equal(t, int32(1), ind.shows.Load())
			assert.Equal(t, int32(1), ind.hides.Load())
			assert.False(t, p.Busy())
		})
	}
}

func TestInvoke_ClearFirst(t *testing.T) {
	var p *panel.Panel
	calls := 0
	client := &lms.MockClient{DoFunc: func(context.Context, *lms.Request) (*lms.Response, error) {
		calls++
		if calls == 1 {
			return lms.JSONResponse(200, `{"errors":["stale"]}`), nil
		}
		assert.Empty(t, p.Errors())
		assert.True(t, p.Results().Empty())
		return lms.JSONResponse(200, `{"status":"ok"}`), nil
	}}
	p = newPanel(t, client, panel.Options{})

	_, err := p.Invoke(context.Background(), "list")
	require.NoError(t, err)
	require.NotEmpty(t, p.Errors())

	_, err = p.Invoke(context.Background(), "export")
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Results().Text)
	assert.Equal(t, "Status", p.Results().Title)
}

func TestInvoke_LastResponseWins(t *testing.T) {
	release := make(chan struct{})
	client := &lms.MockClient{DoFunc: func(_ context.Context, r *lms.Request) (*lms.Response, error) {
		if r.URL == base+"list" {
			<-release
			return lms.JSONResponse(200, `{"message":"slow"}`), nil
		}
		return lms.JSONResponse(200, `{"status":"fast"}`), nil
	}}
	p := newPanel(t, client, panel.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Invoke(context.Background(), "list")
	}()

	_, err := p.Invoke(context.Background(), "export")
	require.NoError(t, err)
	assert.Equal(t, "fast", p.Results().Text)

	close(release)
	wg.Wait()
	assert.Equal(t, "slow", p.Results().Text)
	assert.False(t, p.Busy())
}

func preflightClient(count int, users string) *lms.MockClient {
	return &lms.MockClient{DoFunc: func(_ context.Context, r *lms.Request) (*lms.Response, error) {
		if r.URL == base+"preflight" {
			return lms.JSONResponse(200, fmt.Sprintf(`{"count":%d,"users":%s}`, count, users)), nil
		}
		return lms.JSONResponse(200, `{"datatable":[{"email":"alice@example.edu","result":"unenrolled"}]}`), nil
	}}
}

func TestInvoke_PreflightDeclined(t *testing.T) {
	client := preflightClient(2, `["alice","bob"]`)
	ind := &countingIndicator{}
	var asked panel.Impact
	p := newPanel(t, client, panel.Options{
		Indicator: ind,
		Confirm: func(_ context.Context, impact panel.Impact) (bool, error) {
			asked = impact
			return false, nil
		},
	})

	o, err := p.Invoke(context.Background(), "overload")
	require.NoError(t, err)

	assert.Equal(t, panel.Declined, o.Kind)
	assert.Equal(t, 1, client.CallsTo(base+"preflight"))
	assert.Zero(t, client.CallsTo(base+"overload"))
	assert.True(t, p.Results().Empty())
	assert.Empty(t, p.Errors())
	assert.Zero(t, ind.shows.Load())
	assert.Equal(t, 2, asked.Count)
	assert.Equal(t, []string{"alice", "bob"}, asked.Users)
	assert.Equal(t, "overload", asked.Action)
}

func TestInvoke_PreflightAccepted(t *testing.T) {
	client := preflightClient(2, `["alice","bob"]`)
	p := newPanel(t, client, panel.Options{
		Confirm: func(context.Context, panel.Impact) (bool, error) { return true, nil },
	})
	require.NoError(t, p.SetValue("section_name", "Section A"))

	o, err := p.Invoke(context.Background(), "overload")
	require.NoError(t, err)

	assert.Equal(t, panel.Success, o.Kind)
	require.Len(t, client.Calls(), 2)
	last := client.Calls()[1]
	assert.Equal(t, base+"overload", last.URL)
	assert.Equal(t, map[string]string{"section_name": "Section A", "unenroll_current": "true"}, last.Params)
}

func TestInvoke_PreflightNobodyAffected(t *testing.T) {
	client := preflightClient(0, `[]`)
	asked := false
	p := newPanel(t, client, panel.Options{
		Confirm: func(context.Context, panel.Impact) (bool, error) {
			asked = true
			return false, nil
		},
	})

	o, err := p.Invoke(context.Background(), "overload")
	require.NoError(t, err)
	assert.False(t, asked)
	assert.Equal(t, panel.Success, o.Kind)
	assert.Equal(t, 1, client.CallsTo(base+"overload"))
}

func TestInvoke_PreflightWithoutConfirmDeclines(t *testing.T) {
	client := preflightClient(1, `["alice"]`)
	p := newPanel(t, client, panel.Options{})

	o, err := p.Invoke(context.Background(), "overload")
	require.NoError(t, err)
	assert.Equal(t, panel.Declined, o.Kind)
	assert.Zero(t, client.CallsTo(base+"overload"))
}

func TestInvoke_PreflightFailure(t *testing.T) {
	client := &lms.MockClient{DoFunc: respond(500, `boom`)}
	p := newPanel(t, client, panel.Options{
		Confirm: func(context.Context, panel.Impact) (bool, error) { return true, nil },
	})

	o, err := p.Invoke(context.Background(), "overload")
	require.NoError(t, err)
	assert.Equal(t, panel.TransportError, o.Kind)
	assert.Equal(t, []string{"Request failed."}, p.Errors())
	assert.Len(t, client.Calls(), 1)
}

func TestImpact_Message(t *testing.T) {
	i := panel.Impact{
		Count:   3,
		Users:   []string{"alice", "bob"},
		Warning: "WARNING: This will unenroll non-staff users from the course.",
	}
	assert.Equal(t,
		"WARNING: This will unenroll non-staff users from the course.\n\nUsers (3):\nalice, bob, ...",
		i.Message())

	i.Count = 2
	assert.Equal(t,
		"WARNING: This will unenroll non-staff users from the course.\n\nUsers (2):\nalice, bob",
		i.Message())
}

func TestLoadOptions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []panel.Option
	}{
		{
			name: "strings",
			body: `{"data":["Section A","Section B"]}`,
			want: []panel.Option{{Value: "Section A", Label: "Section A"}, {Value: "Section B", Label: "Section B"}},
		},
		{
			name: "value label pairs",
			body: `{"data":[["Hw 01","[Hw 01] Homework 1"]]}`,
			want: []panel.Option{{Value: "Hw 01", Label: "[Hw 01] Homework 1"}},
		},
		{
			name: "id name records",
			body: `{"data":[{"id":7,"name":"Section A"}]}`,
			want: []panel.Option{{Value: "Section A", Label: "Section A"}},
		},
		{
			name: "object map",
			body: `{"data":{"b":"Bee","a":"Ay"}}`,
			want: []panel.Option{{Value: "b", Label: "Bee"}, {Value: "a", Label: "Ay"}},
		},
		{
			name: "bare array",
			body: `["x"]`,
			want: []panel.Option{{Value: "x", Label: "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPanel(t, &lms.MockClient{DoFunc: respond(200, tt.body)}, panel.Options{})

			before := p.Fields()[1]
			assert.True(t, before.Disabled)

			require.NoError(t, p.LoadOptions(context.Background()))
			f := p.Fields()[1]
			assert.Equal(t, tt.want, f.Options)
			assert.False(t, f.Disabled)
			assert.False(t, f.Loading)
			assert.Empty(t, f.Err)
		})
	}
}

func TestLoadOptions_FailureIsInline(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", 500, `oops`, "Request failed."},
		{"error payload", 200, `{"errors":["Remote gradebook is not configured."]}`, "Remote gradebook is not configured."},
		{"garbage", 200, `not json`, "Request failed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &lms.MockClient{DoFunc: respond(tt.status, tt.body)}
			p := newPanel(t, client, panel.Options{})

			err := p.LoadOptions(context.Background())
			require.Error(t, err)

			f := p.Fields()[1]
			assert.Equal(t, tt.wantErr, f.Err)
			assert.True(t, f.Disabled)
			assert.Empty(t, f.Options)
			assert.Empty(t, p.Errors())
			assert.True(t, p.Results().Empty())
			assert.Equal(t, 1, client.CallsTo(base+"get_sections"))
		})
	}
}

func TestCycleOption(t *testing.T) {
	p := newPanel(t, &lms.MockClient{DoFunc: respond(200, `{"data":["A","B","C"]}`)}, panel.Options{})

	require.NoError(t, p.CycleOption("section_name", 1))
	assert.Empty(t, p.Values()["section_name"], "disabled until options load")

	require.NoError(t, p.LoadOptions(context.Background()))
	require.NoError(t, p.CycleOption("section_name", 1))
	assert.Equal(t, "A", p.Values()["section_name"])
	require.NoError(t, p.CycleOption("section_name", -1))
	assert.Equal(t, "C", p.Values()["section_name"])
	require.NoError(t, p.CycleOption("section_name", 1))
	assert.Equal(t, "A", p.Values()["section_name"])

	assert.True(t, errors.Is(p.CycleOption("nope", 1), panel.ErrUnknownField))
}

func TestInvoke_Download(t *testing.T) {
	desc := panel.Descriptor{
		Name:   "grade_export",
		Fields: []panel.FieldSpec{{Name: "assignment_name"}},
		Actions: []panel.ActionSpec{{
			Name:     "csv",
			Endpoint: "csv",
			Method:   http.MethodGet,
			Encoding: lms.EncodeQuery,
			Fields:   []string{"assignment_name"},
			Required: []string{"assignment_name"},
			Result:   panel.ResultDownload,
		}},
	}
	tests := []struct {
		name        string
		disposition string
		wantFile    string
	}{
		{"server filename", `attachment; filename="grades.csv"`, "grades.csv"},
		{"fallback name", "", "csv-Hw_01.csv"},
		{"path in filename is stripped", `attachment; filename="../../evil.csv"`, "evil.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			client := &lms.MockClient{DoFunc: func(context.Context, *lms.Request) (*lms.Response, error) {
				h := http.Header{}
				if tt.disposition != "" {
					h.Set("Content-Disposition", tt.disposition)
				}
				return &lms.Response{StatusCode: 200, Header: h, Body: []byte("student,grade\nalice,0.9\n")}, nil
			}}
			p, err := panel.New(desc, panel.Options{Client: client, Endpoints: endpoints(nil), DownloadDir: dir})
			require.NoError(t, err)
			require.NoError(t, p.SetValue("assignment_name", "Hw 01"))

			o, err := p.Invoke(context.Background(), "csv")
			require.NoError(t, err)
			require.Equal(t, panel.Success, o.Kind)

			data, err := os.ReadFile(filepath.Join(dir, tt.wantFile))
			require.NoError(t, err)
			assert.Equal(t, "student,grade\nalice,0.9\n", string(data))
			assert.Contains(t, o.Text, tt.wantFile)
			assert.Contains(t, o.Text, "24 B")
		})
	}
}

func TestInvoke_DownloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="grades.csv"`)
		_, _ = w.Write([]byte(strings.Repeat("alice,0.9\n", 100)))
	}))
	defer srv.Close()

	desc := panel.Descriptor{
		Name: "grade_export",
		Actions: []panel.ActionSpec{{
			Name:           "csv",
			Endpoint:       "csv",
			Method:         http.MethodGet,
			Encoding:       lms.EncodeQuery,
			Result:         panel.ResultDownload,
			FailureMessage: "Could not download grades.",
		}},
	}
	dir := t.TempDir()
	client := lms.NewClient(lms.ClientParams{BaseURL: srv.URL, MaxBodyBytes: 512})
	p, err := panel.New(desc, panel.Options{
		Client:      client,
		Endpoints:   serverEndpoints(srv.URL),
		DownloadDir: dir,
	})
	require.NoError(t, err)

	o, err := p.Invoke(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, panel.TransportError, o.Kind)
	assert.Equal(t, []string{"Could not download grades."}, p.Errors())
	assert.True(t, p.Results().Empty())

	_, err = os.Stat(filepath.Join(dir, "grades.csv"))
	assert.True(t, os.IsNotExist(err), "a truncated download must not be written")
}

// serverEndpoints resolves every name against a test server.
type serverEndpoints string

func (s serverEndpoints) URL(_, name string) (string, error) {
	return string(s) + "/" + name, nil
}

func TestHide_CancelsOptionLoad(t *testing.T) {
	started := make(chan struct{})
	client := &lms.MockClient{DoFunc: func(ctx context.Context, _ *lms.Request) (*lms.Response, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p := newPanel(t, client, panel.Options{})

	done := make(chan error, 1)
	go func() { done <- p.LoadOptions(context.Background()) }()
	<-started
	p.Hide()

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, "Request failed.", p.Fields()[1].Err)
}
