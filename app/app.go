package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/internal"
	"github.com/deevus/instructor-tui/panel"
	"github.com/deevus/instructor-tui/sections"
	"github.com/deevus/instructor-tui/views"
	"github.com/deevus/instructor-tui/widgets"
)

// Connected is posted when the Connect callback succeeds.
type Connected struct {
	Services *internal.Services
}

// ConnectFailed is posted when the Connect callback returns an error.
type ConnectFailed struct {
	Err error
}

// Params holds configuration for creating an App.
type Params struct {
	// Services is used directly when already connected. When nil, Connect
	// is run on vxfw.Init.
	Services   *internal.Services
	ServerName string
	StaleTTL   time.Duration
	Connect    func(ctx context.Context) (*internal.Services, error)
	// Sections defaults to sections.All().
	Sections []panel.Descriptor
}

// App is the root vxfw widget for instructor-tui: one tab per section.
type App struct {
	serverName string
	staleTTL   time.Duration
	connect    func(ctx context.Context) (*internal.Services, error)
	descs      []panel.Descriptor
	tabBar     *widgets.TabBar

	ctx    context.Context
	cancel context.CancelFunc

	services   *internal.Services
	logger     *zap.Logger
	connectErr error

	views    []*views.PanelView
	busy     []*widgets.Busy
	viewErrs []error

	dialog  *views.ConfirmDialog
	pending []views.ConfirmRequested

	mu        sync.Mutex
	postEvent func(vaxis.Event)
}

// New creates the root App widget.
func New(p Params) *App {
	descs := p.Sections
	if descs == nil {
		descs = sections.All()
	}
	titles := make([]string, len(descs))
	for i, d := range descs {
		titles[i] = d.Title
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		serverName: p.ServerName,
		staleTTL:   p.StaleTTL,
		connect:    p.Connect,
		descs:      descs,
		tabBar:     widgets.NewTabBar(titles),
		ctx:        ctx,
		cancel:     cancel,
		views:      make([]*views.PanelView, len(descs)),
		busy:       make([]*widgets.Busy, len(descs)),
		viewErrs:   make([]error, len(descs)),
		logger:     zap.NewNop(),
	}
	if p.Services != nil {
		a.setServices(p.Services)
	}
	return a
}

// SetPostEvent sets the function used to post events to the vaxis event loop.
func (a *App) SetPostEvent(fn func(vaxis.Event)) {
	a.mu.Lock()
	a.postEvent = fn
	a.mu.Unlock()
}

func (a *App) post(ev vaxis.Event) {
	a.mu.Lock()
	fn := a.postEvent
	a.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// IsConnected reports whether services are available.
func (a *App) IsConnected() bool {
	return a.services != nil
}

// ServerName returns the server profile name.
func (a *App) ServerName() string {
	return a.serverName
}

// ActiveTab returns the current tab index.
func (a *App) ActiveTab() int {
	return a.tabBar.Active()
}

// SetTab switches to the given tab index without showing it.
func (a *App) SetTab(i int) {
	a.tabBar.SetActive(i)
}

// View returns the panel view for tab i, creating it on first use. It
// returns nil when not connected or when the panel could not be built.
func (a *App) View(i int) *views.PanelView {
	if a.services == nil || i < 0 || i >= len(a.descs) {
		return nil
	}
	if a.views[i] != nil || a.viewErrs[i] != nil {
		return a.views[i]
	}

	name := a.descs[i].Name
	busy := &widgets.Busy{OnChange: func() { a.post(views.BusyChanged{Section: name}) }}
	p, err := panel.New(a.descs[i], a.services.PanelOptions(views.ModalConfirm(a.post), busy))
	if err != nil {
		a.logger.Error("building section", zap.String("section", name), zap.Error(err))
		a.viewErrs[i] = err
		return nil
	}
	a.busy[i] = busy
	a.views[i] = views.NewPanelView(views.PanelViewParams{
		Panel:     p,
		Busy:      busy,
		PostEvent: a.post,
		StaleTTL:  a.staleTTL,
	})
	return a.views[i]
}

// Dialog returns the open confirmation dialog, if any.
func (a *App) Dialog() *views.ConfirmDialog {
	return a.dialog
}

// Close cancels outstanding work. Blocked confirmations are declined.
func (a *App) Close() {
	a.cancel()
	if a.dialog != nil {
		a.dialog.Answer(false)
		a.dialog = nil
	}
	for _, req := range a.pending {
		views.NewConfirmDialog(req).Answer(false)
	}
	a.pending = nil
}

func (a *App) setServices(svc *internal.Services) {
	a.services = svc
	a.connectErr = nil
	if svc.Logger != nil {
		a.logger = svc.Logger.Named("app")
	}
}

func (a *App) showActive() {
	if pv := a.View(a.tabBar.Active()); pv != nil {
		pv.Show(a.ctx)
	}
}

func (a *App) switchTab(i int) {
	prev := a.tabBar.Active()
	a.tabBar.SetActive(i)
	if a.tabBar.Active() == prev {
		return
	}
	if pv := a.views[prev]; pv != nil {
		pv.Hide()
	}
	a.showActive()
}

func (a *App) openNextDialog() {
	a.dialog = nil
	if len(a.pending) > 0 {
		a.dialog = views.NewConfirmDialog(a.pending[0])
		a.pending = a.pending[1:]
	}
}

func (a *App) sectionIndex(name string) int {
	for i, d := range a.descs {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Draw renders the tab bar and active view, with any confirmation dialog
// centred on top.
func (a *App) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	if !a.IsConnected() {
		if a.connectErr != nil {
			return views.DrawError(ctx, a,
				fmt.Sprintf("Failed to connect to %s: %v", a.serverName, a.connectErr),
				"Press q to quit.")
		}
		return views.DrawMessage(ctx, a, fmt.Sprintf("Connecting to %s...", a.serverName))
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)

	tabSurf, err := a.tabBar.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, tabSurf)

	if ctx.Max.Height > 1 {
		viewCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 1})
		active := a.tabBar.Active()
		var viewSurf vxfw.Surface
		switch pv := a.View(active); {
		case pv != nil:
			viewSurf, err = pv.Draw(viewCtx)
		case active < len(a.viewErrs) && a.viewErrs[active] != nil:
			viewSurf, err = views.DrawError(viewCtx, a, a.viewErrs[active].Error())
		default:
			viewSurf, err = views.DrawMessage(viewCtx, a, "No sections enabled.")
		}
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 1, viewSurf)
	}

	if a.dialog != nil {
		ds, err := a.dialog.Draw(ctx)
		if err != nil {
			return vxfw.Surface{}, err
		}
		col := (int(ctx.Max.Width) - int(ds.Size.Width)) / 2
		row := (int(ctx.Max.Height) - int(ds.Size.Height)) / 2
		s.AddChild(max(col, 0), max(row, 0), ds)
	}

	return s, nil
}

// CaptureEvent handles global keybindings before views process them. An
// open dialog receives every key; a field being edited receives everything
// but is otherwise left alone.
func (a *App) CaptureEvent(ev vaxis.Event) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}

	if a.dialog != nil {
		cmd, err := a.dialog.HandleEvent(key, vxfw.EventPhase(0))
		if a.dialog.Done() {
			a.openNextDialog()
		}
		return cmd, err
	}

	if key.Matches('q') && !a.editing() {
		a.Close()
		return vxfw.QuitCmd{}, nil
	}
	if !a.IsConnected() || a.editing() {
		return nil, nil
	}

	switch {
	case key.Matches('r'):
		if pv := a.View(a.tabBar.Active()); pv != nil {
			pv.LoadAsync(a.ctx)
		}
	case key.Matches(vaxis.KeyTab, vaxis.ModShift):
		a.switchTab((a.tabBar.Active() - 1 + a.tabBar.Len()) % max(a.tabBar.Len(), 1))
	case key.Matches(vaxis.KeyTab):
		a.switchTab((a.tabBar.Active() + 1) % max(a.tabBar.Len(), 1))
	case key.Keycode >= '1' && key.Keycode <= '9' && key.Modifiers == 0:
		i := int(key.Keycode - '1')
		if i >= a.tabBar.Len() {
			return nil, nil
		}
		a.switchTab(i)
	default:
		return nil, nil
	}
	return vxfw.ConsumeAndRedraw(), nil
}

func (a *App) editing() bool {
	if !a.IsConnected() || len(a.views) == 0 {
		return false
	}
	pv := a.views[a.tabBar.Active()]
	return pv != nil && pv.Editing()
}

// HandleEvent handles connection and panel events, and delegates keys to
// the active view.
func (a *App) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case vxfw.Init:
		if a.IsConnected() {
			a.showActive()
			return nil, nil
		}
		if a.connect != nil {
			go func() {
				svc, err := a.connect(a.ctx)
				if err != nil {
					a.post(ConnectFailed{Err: err})
					return
				}
				a.post(Connected{Services: svc})
			}()
		}
		return nil, nil
	case Connected:
		a.setServices(ev.Services)
		a.logger.Info("connected", zap.String("server", a.serverName))
		a.showActive()
		return vxfw.RedrawCmd{}, nil
	case ConnectFailed:
		a.connectErr = ev.Err
		return vxfw.RedrawCmd{}, nil
	case views.ActionCompleted:
		fields := []zap.Field{
			zap.String("section", ev.Section),
			zap.String("action", ev.Action),
			zap.Stringer("outcome", ev.Outcome.Kind),
		}
		if ev.Err != nil {
			a.logger.Error("action failed", append(fields, zap.Error(ev.Err))...)
		} else {
			a.logger.Debug("action rendered", fields...)
		}
		return vxfw.RedrawCmd{}, nil
	case views.OptionsLoaded:
		if ev.Err != nil {
			a.logger.Warn("loading options", zap.String("section", ev.Section), zap.Error(ev.Err))
		}
		return vxfw.RedrawCmd{}, nil
	case views.BusyChanged:
		if i := a.sectionIndex(ev.Section); i >= 0 && a.busy[i] != nil {
			badge := ""
			if a.busy[i].Active() {
				badge = "*"
			}
			a.tabBar.SetBadge(i, badge)
		}
		return vxfw.RedrawCmd{}, nil
	case views.ConfirmRequested:
		if a.dialog == nil {
			a.dialog = views.NewConfirmDialog(ev)
		} else {
			a.pending = append(a.pending, ev)
		}
		return vxfw.RedrawCmd{}, nil
	default:
		if !a.IsConnected() || a.dialog != nil {
			return nil, nil
		}
		if pv := a.View(a.tabBar.Active()); pv != nil {
			return pv.HandleEvent(ev, phase)
		}
	}
	return nil, nil
}
