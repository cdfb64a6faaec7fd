package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	serveradapter "github.com/hylla/tix/internal/adapters/server"
	"github.com/hylla/tix/internal/adapters/server/common"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/config"
	"github.com/hylla/tix/internal/domain"
	"github.com/spf13/cobra"
)

func newListCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		req    common.ListTicketsRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "list", stderr, func(rt *runtime) error {
				list, err := common.NewAppServiceAdapter(rt.store).ListTickets(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(stdout, list)
				}
				if len(list.Tickets) == 0 {
					_, err := fmt.Fprintln(stdout, "no tickets match")
					return err
				}
				_, err = fmt.Fprintln(stdout, renderTicketTable(list.Tickets))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&req.Search, "search", "", "case-insensitive title/description substring")
	cmd.Flags().StringVar(&req.Status, "status", "", "status filter (open, in-progress, resolved, closed, all)")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "priority filter (low, medium, high, urgent, all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newCountsCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Show ticket counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "counts", stderr, func(rt *runtime) error {
				counts, err := common.NewAppServiceAdapter(rt.store).StatusCounts(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(stdout, map[string]any{"counts": counts, "total": counts.Total()})
				}
				for _, s := range domain.Statuses() {
					if _, err := fmt.Fprintf(stdout, "%-12s %d\n", s.Label(), counts[s]); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(stdout, "%-12s %d\n", "Total", counts.Total())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newShowCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *opts, "show", stderr, func(rt *runtime) error {
				t, err := common.NewAppServiceAdapter(rt.store).GetTicket(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(stdout, t)
				}
				return writeTicketDetail(stdout, t)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAddCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var req common.CreateTicketRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "add", stderr, func(rt *runtime) error {
				in := req
				if !cmd.Flags().Changed("status") {
					in.Status = rt.cfg.Defaults.Status
				}
				if !cmd.Flags().Changed("priority") {
					in.Priority = rt.cfg.Defaults.Priority
				}
				if !cmd.Flags().Changed("reporter") {
					in.Reporter = rt.cfg.Identity.DisplayName
				}
				t, err := common.NewAppServiceAdapter(rt.store).CreateTicket(cmd.Context(), in)
				if err != nil {
					return err
				}
				rt.logger.Info("ticket created", "id", t.ID, "status", t.Status, "priority", t.Priority)
				_, err = fmt.Fprintln(stdout, t.ID)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "ticket title (required)")
	f.StringVar(&req.Description, "description", "", "ticket description (markdown)")
	f.StringVar(&req.Status, "status", "", "initial status (defaults from config)")
	f.StringVar(&req.Priority, "priority", "", "initial priority (defaults from config)")
	f.StringVar(&req.Assignee, "assignee", "", "assignee name")
	f.StringVar(&req.Reporter, "reporter", "", "reporter name (defaults to identity.display_name)")
	return cmd
}

func newUpdateCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var fields struct {
		title, description, status, priority, assignee, reporter string
	}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a ticket; only given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *opts, "update", stderr, func(rt *runtime) error {
				changed := func(name, value string) *string {
					if !cmd.Flags().Changed(name) {
						return nil
					}
					return &value
				}
				req := common.UpdateTicketRequest{
					ID:          args[0],
					Title:       changed("title", fields.title),
					Description: changed("description", fields.description),
					Status:      changed("status", fields.status),
					Priority:    changed("priority", fields.priority),
					Assignee:    changed("assignee", fields.assignee),
					Reporter:    changed("reporter", fields.reporter),
				}
				t, err := common.NewAppServiceAdapter(rt.store).UpdateTicket(cmd.Context(), req)
				switch {
				case errors.Is(err, common.ErrNotFound):
					rt.logger.Warn("update skipped for unknown ticket", "id", args[0])
					_, err = fmt.Fprintf(stdout, "no ticket %s\n", args[0])
					return err
				case err != nil:
					return err
				}
				rt.logger.Info("ticket updated", "id", t.ID)
				return writeTicketDetail(stdout, t)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&fields.title, "title", "", "new title")
	f.StringVar(&fields.description, "description", "", "new description")
	f.StringVar(&fields.status, "status", "", "new status")
	f.StringVar(&fields.priority, "priority", "", "new priority")
	f.StringVar(&fields.assignee, "assignee", "", "new assignee (empty clears)")
	f.StringVar(&fields.reporter, "reporter", "", "new reporter")
	return cmd
}

func newDeleteCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, *opts, "delete", stderr, func(rt *runtime) error {
				if err := common.NewAppServiceAdapter(rt.store).DeleteTicket(cmd.Context(), args[0]); err != nil {
					return err
				}
				rt.logger.Info("ticket deleted", "id", args[0])
				_, err := fmt.Fprintf(stdout, "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of all tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "export", stderr, func(rt *runtime) error {
				snap := rt.store.ExportSnapshot()
				if outPath == "-" {
					return writeJSON(stdout, snap)
				}
				if err := writeSnapshotFile(outPath, snap); err != nil {
					return err
				}
				rt.logger.Info("snapshot exported", "path", outPath, "tickets", len(snap.Tickets))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		inPath   string
		noBackup bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all tickets with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return withRuntime(cmd, *opts, "import", stderr, func(rt *runtime) error {
				content, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				var snap app.Snapshot
				if err := json.Unmarshal(content, &snap); err != nil {
					return fmt.Errorf("decode snapshot json: %w", err)
				}
				if err := snap.Validate(); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}

				if current := rt.store.ExportSnapshot(); !noBackup && !rt.opts.memory && len(current.Tickets) > 0 {
					backupPath := rt.paths.BackupPath(time.Now())
					if err := writeSnapshotFile(backupPath, current); err != nil {
						return fmt.Errorf("back up current tickets: %w", err)
					}
					rt.logger.Info("current tickets backed up", "path", backupPath, "tickets", len(current.Tickets))
					if _, err := fmt.Fprintf(stdout, "backup: %s\n", backupPath); err != nil {
						return err
					}
				}

				if err := rt.store.ImportSnapshot(cmd.Context(), snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				rt.logger.Info("snapshot imported", "path", inPath, "tickets", len(snap.Tickets))
				_, err = fmt.Fprintf(stdout, "imported %d tickets\n", len(snap.Tickets))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip writing a backup of the current tickets")
	return cmd
}

func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, MCP tools and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "serve", stderr, func(rt *runtime) error {
				cfg := serveradapter.Config{
					HTTPBind:      rt.cfg.Server.HTTP,
					APIEndpoint:   rt.cfg.Server.APIEndpoint,
					MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
					ServerName:    rt.opts.appName,
					ServerVersion: version,
				}
				if cmd.Flags().Changed("http") {
					cfg.HTTPBind = httpBind
				}
				if cmd.Flags().Changed("api-endpoint") {
					cfg.APIEndpoint = apiEndpoint
				}
				if cmd.Flags().Changed("mcp-endpoint") {
					cfg.MCPEndpoint = mcpEndpoint
				}
				return serveCommandRunner(cmd.Context(), cfg, serveradapter.Dependencies{
					Tickets: common.NewAppServiceAdapter(rt.store),
					Logger:  rt.logger.Console(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "127.0.0.1:8080", "HTTP listen address")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP streamable HTTP endpoint")
	return cmd
}

func newKeysCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys with their size and last write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, *opts, "keys", stderr, func(rt *runtime) error {
				entries, err := rt.repo.Keys(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range entries {
					if _, err := fmt.Fprintf(stdout, "%s\t%d\t%s\n", e.Key, e.Size, e.UpdatedAt.Format(time.RFC3339)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newIdentityCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "identity [name]",
		Short: "Show or set the default reporter name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			paths, err := resolvePaths(*opts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := config.UpsertIdentity(paths.configPath, args[0]); err != nil {
					return fmt.Errorf("persist identity: %w", err)
				}
			}
			cfg, err := config.Load(paths.configPath, config.Default(paths.dbPath))
			if err != nil {
				return fmt.Errorf("load config %q: %w", paths.configPath, err)
			}
			_, err = fmt.Fprintf(stdout, "display_name: %s\n", cfg.Identity.DisplayName)
			return err
		},
	}
}

func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(*opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.dbPath)
			_, err = fmt.Fprintf(stdout, "backups: %s\n", paths.BackupDir)
			return err
		},
	}
}

// renderTicketTable lays tickets out one per row.
func renderTicketTable(tickets []domain.Ticket) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "UPDATED")
	for _, tk := range tickets {
		t.Row(tk.ID, tk.Title, tk.Status.Label(), tk.Priority.Label(), tk.Assignee, tk.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return t.String()
}

func writeTicketDetail(w io.Writer, t domain.Ticket) error {
	lines := []string{
		"id: " + t.ID,
		"title: " + t.Title,
		"status: " + t.Status.Label(),
		"priority: " + t.Priority.Label(),
		"assignee: " + t.Assignee,
		"reporter: " + t.Reporter,
		"created: " + t.CreatedAt.Format(time.RFC3339),
		"updated: " + t.UpdatedAt.Format(time.RFC3339),
	}
	if strings.TrimSpace(t.Description) != "" {
		lines = append(lines, "", t.Description)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	encoded = append(encoded, '\n')
	_, err = w.Write(encoded)
	return err
}

func writeSnapshotFile(path string, snap app.Snapshot) error {
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}
