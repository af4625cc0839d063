package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deevus/instructor-tui/panel"
	"github.com/deevus/instructor-tui/sections"
)

type runOptions struct {
	set    []string
	yes    bool
	output string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run SECTION ACTION",
		Short: "Run one section action and print its outcome",
		Long: `Run a single dashboard action without the interactive UI.

Field values are passed with --set name=value. Destructive actions show
who they will affect and ask for confirmation on stdin unless --yes is
given. The command exits non-zero when the action fails.`,
		Example: `  instructor-tui run remote_gradebook list-remote-enrolled-students
  instructor-tui run grade_export display-assignment-grades --set assignment_name="Hw 01" -o json
  instructor-tui run remote_gradebook overload-enrolled-students-in-section --set section_name=A --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, root, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "field value as name=value (repeatable)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "confirm destructive actions without prompting")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func runAction(cmd *cobra.Command, root *rootOptions, opts *runOptions, section, action string) error {
	if err := validFormat(opts.output); err != nil {
		return err
	}
	values, err := parseSet(opts.set)
	if err != nil {
		return err
	}

	p, err := loadProfile(root)
	if err != nil {
		return err
	}
	defer func() { _ = p.logger.Sync() }()

	desc, ok := sections.Lookup(section)
	if !ok {
		return fmt.Errorf("unknown section %q (available: %s)", section, strings.Join(sections.Names(), ", "))
	}
	enabled, _ := sections.Enabled(p.server.Sections)
	if !slices.ContainsFunc(enabled, func(d panel.Descriptor) bool { return d.Name == section }) {
		return fmt.Errorf("section %q is not enabled for server %q", section, p.name)
	}

	svc, closer, err := connectServer(p)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	confirm := promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr(), opts.yes)
	pnl, err := panel.New(desc, svc.PanelOptions(confirm, nil))
	if err != nil {
		return err
	}
	if _, ok := pnl.Action(action); !ok {
		names := make([]string, 0, len(pnl.Actions()))
		for _, a := range pnl.Actions() {
			names = append(names, a.Name())
		}
		return fmt.Errorf("unknown action %q for section %s (available: %s)", action, section, strings.Join(names, ", "))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, kv := range values {
		if err := pnl.SetValue(kv[0], kv[1]); err != nil {
			return err
		}
	}
	checkOptions(ctx, cmd.ErrOrStderr(), pnl, values, p.logger)

	o, err := pnl.Invoke(ctx, action)
	if err != nil {
		return err
	}
	if err := writeOutcome(cmd.OutOrStdout(), opts.output, o); err != nil {
		return err
	}
	if o.Failed() {
		// The outcome has already been printed.
		cmd.SilenceErrors = true
		return fmt.Errorf("%s: %s", action, o.Kind)
	}
	return nil
}

// parseSet splits name=value pairs, keeping their order.
func parseSet(set []string) ([][2]string, error) {
	out := make([][2]string, 0, len(set))
	for _, s := range set {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", s)
		}
		out = append(out, [2]string{strings.TrimSpace(name), value})
	}
	return out, nil
}

// checkOptions loads the options of select fields given on the command
// line and warns about values the server does not offer.
func checkOptions(ctx context.Context, w io.Writer, pnl *panel.Panel, values [][2]string, logger *zap.Logger) {
	given := make(map[string]string, len(values))
	for _, kv := range values {
		given[kv[0]] = kv[1]
	}
	needed := false
	for _, f := range pnl.Fields() {
		if _, ok := given[f.Name]; ok && f.Kind == panel.SelectField {
			needed = true
		}
	}
	if !needed {
		return
	}
	if err := pnl.LoadOptions(ctx); err != nil {
		logger.Warn("loading options", zap.Error(err))
	}
	for _, f := range pnl.Fields() {
		v, ok := given[f.Name]
		if !ok || f.Kind != panel.SelectField || f.Err != "" {
			continue
		}
		if !slices.ContainsFunc(f.Options, func(o panel.Option) bool { return o.Value == v }) {
			fmt.Fprintf(w, "warning: %q is not one of the %s options\n", v, f.Label)
		}
	}
}

// promptConfirm asks on in/out before a destructive action. With yes set it
// prints the impact and proceeds.
func promptConfirm(in io.Reader, out io.Writer, yes bool) panel.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, impact panel.Impact) (bool, error) {
		fmt.Fprintln(out, impact.Message())
		if yes {
			fmt.Fprintln(out, "Proceeding (--yes).")
			return true, nil
		}
		fmt.Fprint(out, "Proceed? [y/N] ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
