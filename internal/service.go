package internal

import (
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/lms"
	"github.com/deevus/instructor-tui/panel"
)

// Services holds the collaborators panels need for one server profile.
type Services struct {
	Client      lms.API
	Endpoints   panel.EndpointResolver
	Logger      *zap.Logger
	DownloadDir string
}

// NewServices creates a Services container. A nil logger is replaced with
// a no-op logger.
func NewServices(client lms.API, endpoints panel.EndpointResolver, logger *zap.Logger, downloadDir string) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Client:      client,
		Endpoints:   endpoints,
		Logger:      logger,
		DownloadDir: downloadDir,
	}
}

// PanelOptions returns panel options wired to these services.
func (s *Services) PanelOptions(confirm panel.ConfirmFunc, indicator panel.Indicator) panel.Options {
	return panel.Options{
		Client:      s.Client,
		Endpoints:   s.Endpoints,
		Confirm:     confirm,
		Indicator:   indicator,
		DownloadDir: s.DownloadDir,
		Logger:      s.Logger,
	}
}
