// Package cli implements the cwmanager command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cwmanager/internal/installer"
	"cwmanager/internal/manager"
)

// buildRootCmd constructs the command tree. runner replaces the exec-based
// installer runner when non-nil.
func buildRootCmd(opts *Options, runner installer.Runner) *cobra.Command {
	root := &cobra.Command{
		Use:           "cwmanager",
		Short:         "Manage a local Codewind backend and its connections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", os.Getenv("CWMANAGER_CONFIG"), "Config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default from config or info)")
	pf.StringVar(&opts.Installer, "installer", "", "Path to the cwctl installer binary")
	pf.StringVar(&opts.Addr, "addr", "", "HTTP listen address for serve")
	pf.StringVar(&opts.CORSOrigins, "cors-origins", "", "Comma-separated CORS origins for serve")
	pf.BoolVar(&opts.JSON, "json", false, "Print JSON output")

	var a *app
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a = newApp(cfg, log, runner)
		return nil
	}

	root.AddCommand(&cobra.Command{
		Use:     "status",
		Short:   "Query the installer for the backend status",
		Example: "  cwmanager status --json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.mgr.InstallStatus(ctx, true).IsStarted() {
				a.mgr.Version(ctx)
			}
			return printStatus(cmd.OutOrStdout(), a.mgr, opts.JSON)
		},
	})

	for _, op := range []struct{ name, short string }{
		{manager.OpStart, "Start the backend and connect to it"},
		{manager.OpStop, "Stop the backend"},
		{manager.OpInstall, "Install the backend images"},
		{manager.OpUninstall, "Remove the backend images"},
	} {
		root.AddCommand(&cobra.Command{
			Use:   op.name,
			Short: op.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				defer a.closeAll()
				if err := a.mgr.RunOperation(ctx, op.name); err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), a.mgr, opts.JSON)
			},
		})
	}

	var conid, filter string
	tmpl := &cobra.Command{
		Use:   "templates",
		Short: "List the enabled project templates of a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.closeAll()
			a.addRemotes(ctx)
			a.mgr.Init(ctx)
			list, err := a.mgr.Templates(ctx, conid, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.JSON {
				return writeJSON(out, list)
			}
			for _, t := range list {
				fmt.Fprintf(out, "%-30s %-12s %s\n", t.Label, t.Language, t.Description)
			}
			return nil
		},
	}
	tmpl.Flags().StringVar(&conid, "conid", "", "Connection id (default local)")
	tmpl.Flags().StringVar(&filter, "filter", "", "Only templates matching this text")
	root.AddCommand(tmpl)

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and status poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	})

	var interval int
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend status and print manager events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval > 0 {
				a.cfg.PollIntervalSec = interval
			}
			return runWatch(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
	watch.Flags().IntVar(&interval, "interval", 0, "Poll interval in seconds (default from config)")
	root.AddCommand(watch)

	return root
}

func printStatus(w io.Writer, m *manager.Manager, asJSON bool) error {
	st := m.Status()
	if asJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "status: %s\n", st.Display)
	if st.URL != "" {
		fmt.Fprintf(w, "url: %s\n", st.URL)
	}
	if st.Version != "" {
		fmt.Fprintf(w, "version: %s\n", st.Version)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MainWithArgs runs the command tree with args and returns an exit code.
func MainWithArgs(args []string) int {
	return mainWith(args, nil, os.Stdout, os.Stderr)
}

func mainWith(args []string, runner installer.Runner, stdout, stderr io.Writer) int {
	root := buildRootCmd(&Options{}, runner)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if len(args) == 0 {
		_ = root.Help()
		return 2
	}
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/cwmanager.
func Main() int { return MainWithArgs(os.Args[1:]) }
