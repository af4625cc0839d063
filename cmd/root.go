package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/app"
	"github.com/deevus/instructor-tui/config"
	"github.com/deevus/instructor-tui/internal"
	"github.com/deevus/instructor-tui/internal/logging"
	"github.com/deevus/instructor-tui/sections"
)

// version is overridden by SetVersion from main.
var version = "dev"

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	version = v
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	serverName string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "instructor-tui",
		Short: "Terminal dashboard for LMS instructor tools",
		Long: `instructor-tui drives the instructor dashboard of an LMS course from the
terminal: remote gradebook enrollments and exports, grade exports, Canvas
enrollments and HLS media linking.

Without a subcommand it opens the interactive dashboard for the selected
server profile.`,
		Version: version,
		Args:    cobra.NoArgs,
		// SilenceUsage keeps usage out of runtime failures such as a bad
		// config or an unreachable server.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}
	cmd.SetVersionTemplate(`{{printf "instructor-tui version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to config file")
	cmd.PersistentFlags().StringVar(&opts.serverName, "server", "", "server profile name from config")

	cmd.AddCommand(newSectionsCmd())
	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

// profile is a loaded config plus the selected server.
type profile struct {
	cfg    *config.Config
	name   string
	server config.ServerConfig
	logger *zap.Logger
}

func loadProfile(opts *rootOptions) (*profile, error) {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return nil, err
	}
	name, server, err := cfg.Resolve(opts.serverName)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &profile{
		cfg:    cfg,
		name:   name,
		server: server,
		logger: logger.With(zap.String("server", name)),
	}, nil
}

func runTUI(opts *rootOptions) error {
	p, err := loadProfile(opts)
	if err != nil {
		return err
	}
	defer func() { _ = p.logger.Sync() }()

	enabled, unknown := sections.Enabled(p.server.Sections)
	if len(unknown) > 0 {
		return fmt.Errorf("server %q: unknown sections %v (available: %v)", p.name, unknown, sections.Names())
	}

	var closer io.Closer
	root := app.New(app.Params{
		ServerName: p.name,
		StaleTTL:   p.cfg.StaleTTL.Duration,
		Sections:   enabled,
		Connect: func(ctx context.Context) (*internal.Services, error) {
			svc, c, err := connectServer(p)
			if err != nil {
				return nil, err
			}
			closer = c
			return svc, nil
		},
	})

	vxApp, err := vxfw.NewApp(vaxis.Options{})
	if err != nil {
		return err
	}
	root.SetPostEvent(vxApp.PostEvent)

	p.logger.Info("starting dashboard", zap.Int("sections", len(enabled)))
	err = vxApp.Run(root)
	root.Close()
	if closer != nil {
		_ = closer.Close()
	}
	return err
}
