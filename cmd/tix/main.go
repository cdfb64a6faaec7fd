package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/fang"
	serveradapter "github.com/hylla/tix/internal/adapters/server"
	"github.com/hylla/tix/internal/domain"
	"github.com/hylla/tix/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

// program is the slice of tea.Program the TUI flow needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it out.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// executeCommand runs the command tree without fang styling.
func executeCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// newRootCommand builds the tix command tree. The bare command opens the TUI.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	opts := defaultGlobalOptions()

	root := &cobra.Command{
		Use:           "tix",
		Short:         "A small local ticket tracker",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "tui", stderr, func(rt *runtime) error {
				return runTUI(rt)
			})
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.BoolVar(&opts.memory, "memory", false, "keep tickets in memory for this run only")

	root.AddCommand(
		newListCommand(&opts, stdout, stderr),
		newCountsCommand(&opts, stdout, stderr),
		newShowCommand(&opts, stdout, stderr),
		newAddCommand(&opts, stdout, stderr),
		newUpdateCommand(&opts, stdout, stderr),
		newDeleteCommand(&opts, stdout, stderr),
		newExportCommand(&opts, stdout, stderr),
		newImportCommand(&opts, stdout, stderr),
		newServeCommand(&opts, stderr),
		newKeysCommand(&opts, stdout, stderr),
		newIdentityCommand(&opts, stdout),
		newPathsCommand(&opts, stdout),
	)
	return root
}

// withRuntime opens the runtime for one command, runs fn, and closes it.
func withRuntime(cmd *cobra.Command, opts globalOptions, command string, stderr io.Writer, fn func(*runtime) error) (err error) {
	rt, err := openRuntime(cmd.Context(), opts, command, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := fn(rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	if storeErr := rt.store.LastStorageError(); storeErr != nil {
		return fmt.Errorf("tickets not saved: %w", storeErr)
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI starts the interactive program over the loaded store.
func runTUI(rt *runtime) error {
	status, err := domain.ParseStatus(rt.cfg.Defaults.Status)
	if err != nil {
		status = domain.StatusOpen
	}
	priority, err := domain.ParsePriority(rt.cfg.Defaults.Priority)
	if err != nil {
		priority = domain.PriorityMedium
	}
	m := tui.NewModel(
		rt.store,
		tui.WithConfirmDelete(rt.cfg.UI.ConfirmDelete),
		tui.WithMarkdown(rt.cfg.UI.RenderMarkdown),
		tui.WithShowDescription(rt.cfg.UI.ShowDescription),
		tui.WithDefaultReporter(rt.cfg.Identity.DisplayName),
		tui.WithCreateDefaults(status, priority),
		tui.WithClipboardWriter(clipboard.WriteAll),
	)
	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}
