package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	serveradapter "github.com/hylla/tix/internal/adapters/server"
	"github.com/hylla/tix/internal/adapters/server/common"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/config"
	"github.com/hylla/tix/internal/domain"
	"github.com/hylla/tix/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TIX_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram records the model it was built with.
type fakeProgram struct {
	model  tea.Model
	runErr error
}

// Run returns the configured error.
func (f fakeProgram) Run() (tea.Model, error) {
	return f.model, f.runErr
}

// cliEnv holds temp config/db paths for one test.
type cliEnv struct {
	configPath string
	dbPath     string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	return cliEnv{
		configPath: filepath.Join(dir, "config.toml"),
		dbPath:     filepath.Join(dir, "tix.db"),
	}
}

// run executes one CLI invocation against the env and returns stdout.
func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.configPath, "--db", e.dbPath}, args...)
	err := executeCommand(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return out
}

func (e cliEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// TestTicketLifecycleThroughCLI verifies add, list, show, update and delete share one database.
func TestTicketLifecycleThroughCLI(t *testing.T) {
	env := newCLIEnv(t)

	id := strings.TrimSpace(env.mustRun(t, "add", "--title", "Login fails", "--priority", "high", "--assignee", "ana"))
	if id == "" {
		t.Fatal("expected add to print the new id")
	}
	env.mustRun(t, "add", "--title", "Dark mode", "--status", "closed")

	out := env.mustRun(t, "list")
	if !strings.Contains(out, "Login fails") || !strings.Contains(out, "Dark mode") {
		t.Fatalf("list output missing tickets:\n%s", out)
	}
	if strings.Index(out, "Dark mode") > strings.Index(out, "Login fails") {
		t.Fatalf("expected newest ticket first:\n%s", out)
	}

	out = env.mustRun(t, "list", "--status", "open", "--json")
	var list common.TicketList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list json: %v\n%s", err, out)
	}
	if list.Total != 1 || list.Tickets[0].ID != id {
		t.Fatalf("unexpected filtered list %#v", list)
	}
	if list.Counts[domain.StatusOpen] != 1 || list.Counts[domain.StatusClosed] != 1 {
		t.Fatalf("counts must ignore filters, got %#v", list.Counts)
	}

	out = env.mustRun(t, "update", id, "--status", "in-progress", "--assignee", "")
	if !strings.Contains(out, "status: In Progress") || !strings.Contains(out, "assignee: \n") {
		t.Fatalf("unexpected update output:\n%s", out)
	}
	out = env.mustRun(t, "show", id, "--json")
	var got domain.Ticket
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode show json: %v", err)
	}
	if got.Title != "Login fails" || got.Priority != domain.PriorityHigh || got.Assignee != "" {
		t.Fatalf("update must touch only given flags, got %#v", got)
	}

	out = env.mustRun(t, "counts")
	if !strings.Contains(out, fmt.Sprintf("%-12s %d", "In Progress", 1)) || !strings.Contains(out, fmt.Sprintf("%-12s %d", "Total", 2)) {
		t.Fatalf("unexpected counts output:\n%s", out)
	}

	env.mustRun(t, "delete", id)
	out = env.mustRun(t, "list", "--search", "login")
	if !strings.Contains(out, "no tickets match") {
		t.Fatalf("expected deleted ticket to be gone:\n%s", out)
	}
}

// TestAddUsesConfigDefaultsAndIdentity verifies create defaults come from config.
func TestAddUsesConfigDefaultsAndIdentity(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, `
[identity]
display_name = "Ana"

[defaults]
status = "resolved"
priority = "low"
`)
	id := strings.TrimSpace(env.mustRun(t, "add", "--title", "Export CSV"))
	out := env.mustRun(t, "show", id, "--json")
	var got domain.Ticket
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode show json: %v", err)
	}
	if got.Status != domain.StatusResolved || got.Priority != domain.PriorityLow || got.Reporter != "Ana" {
		t.Fatalf("unexpected defaults %#v", got)
	}
}

// TestCLIRejectsInvalidInput verifies validation errors surface as command errors.
func TestCLIRejectsInvalidInput(t *testing.T) {
	env := newCLIEnv(t)
	cases := [][]string{
		{"add"},
		{"add", "--title", "x", "--status", "bogus"},
		{"list", "--priority", "bogus"},
		{"show"},
		{"update", "abc", "--title", ""},
		{"nope"},
		{"list", "--unknown-flag"},
	}
	for _, args := range cases {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
	if _, err := env.run(t, "show", "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("show missing error = %v, want not found", err)
	}
}

// TestUpdateUnknownTicketIsANoOp verifies unknown ids are reported without failing.
func TestUpdateUnknownTicketIsANoOp(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "update", "missing", "--title", "x")
	if !strings.Contains(out, "no ticket missing") {
		t.Fatalf("unexpected output %q", out)
	}
	out = env.mustRun(t, "delete", "missing")
	if !strings.Contains(out, "deleted missing") {
		t.Fatalf("unexpected delete output %q", out)
	}
}

// TestExportImportRoundTrip verifies snapshots move tickets between databases.
func TestExportImportRoundTrip(t *testing.T) {
	src := newCLIEnv(t)
	src.mustRun(t, "add", "--title", "Login fails")
	src.mustRun(t, "add", "--title", "Dark mode")

	snapPath := filepath.Join(t.TempDir(), "out", "snap.json")
	src.mustRun(t, "export", "--out", snapPath)
	stdoutSnap := src.mustRun(t, "export")
	var snap app.Snapshot
	if err := json.Unmarshal([]byte(stdoutSnap), &snap); err != nil {
		t.Fatalf("decode stdout snapshot: %v", err)
	}
	if snap.Version != app.SnapshotVersion || len(snap.Tickets) != 2 || snap.Tickets[0].Title != "Dark mode" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}

	dst := newCLIEnv(t)
	out := dst.mustRun(t, "--memory", "import", "--in", snapPath)
	if !strings.Contains(out, "imported 2 tickets") || strings.Contains(out, "backup:") {
		t.Fatalf("unexpected import output %q", out)
	}
	dst.mustRun(t, "import", "--in", snapPath)
	out = dst.mustRun(t, "list")
	if !strings.Contains(out, "Login fails") || !strings.Contains(out, "Dark mode") {
		t.Fatalf("imported tickets missing:\n%s", out)
	}
}

// TestImportBacksUpExistingTickets verifies a non-empty list is saved before replacement.
func TestImportBacksUpExistingTickets(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	env := newCLIEnv(t)
	env.mustRun(t, "add", "--title", "Keep me")

	snapPath := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(snapPath, []byte(`{"version":"tix.snapshot.v1","tickets":[]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	out := env.mustRun(t, "import", "--in", snapPath)
	var backupPath string
	for _, line := range strings.Split(out, "\n") {
		if after, ok := strings.CutPrefix(line, "backup: "); ok {
			backupPath = after
		}
	}
	if backupPath == "" {
		t.Fatalf("expected backup line in %q", out)
	}
	raw, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(raw), "Keep me") {
		t.Fatalf("backup missing ticket: %s", raw)
	}
	if out := env.mustRun(t, "list"); !strings.Contains(out, "no tickets match") {
		t.Fatalf("expected import to replace the list:\n%s", out)
	}
}

// TestImportErrors verifies missing, malformed, and invalid snapshots fail without writing.
func TestImportErrors(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "--title", "Stay")

	if _, err := env.run(t, "import"); err == nil {
		t.Fatal("expected missing --in to fail")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{`), 0o644)
	if _, err := env.run(t, "import", "--in", bad); err == nil {
		t.Fatal("expected malformed json to fail")
	}
	dup := filepath.Join(dir, "dup.json")
	_ = os.WriteFile(dup, []byte(`{"tickets":[{"id":"a","status":"open","priority":"low","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"},{"id":"a","status":"open","priority":"low","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}]}`), 0o644)
	if _, err := env.run(t, "import", "--in", dup); !errors.Is(err, app.ErrInvalidSnapshot) {
		t.Fatalf("duplicate ids error = %v, want invalid snapshot", err)
	}
	if out := env.mustRun(t, "list"); !strings.Contains(out, "Stay") {
		t.Fatalf("failed import must keep tickets:\n%s", out)
	}
}

// TestServeCommandWiresStoreAndConfig verifies serve flags override config and reach the runner.
func TestServeCommandWiresStoreAndConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, `
[server]
http = "127.0.0.1:9999"
api_endpoint = "/api/v2"
`)
	env.mustRun(t, "add", "--title", "Login fails")

	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })
	var (
		gotCfg   serveradapter.Config
		gotTotal int
	)
	serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg = cfg
		list, err := deps.Tickets.ListTickets(ctx, common.ListTicketsRequest{})
		if err != nil {
			return err
		}
		gotTotal = list.Total
		if deps.Logger == nil {
			return errors.New("expected console logger")
		}
		return nil
	}

	env.mustRun(t, "serve", "--mcp-endpoint", "/tools")
	if gotCfg.HTTPBind != "127.0.0.1:9999" || gotCfg.APIEndpoint != "/api/v2" || gotCfg.MCPEndpoint != "/tools" {
		t.Fatalf("unexpected serve config %#v", gotCfg)
	}
	if gotCfg.ServerName != "tix" || gotCfg.ServerVersion != version {
		t.Fatalf("unexpected server identity %#v", gotCfg)
	}
	if gotTotal != 1 {
		t.Fatalf("serve deps saw %d tickets, want 1", gotTotal)
	}

	serveCommandRunner = func(context.Context, serveradapter.Config, serveradapter.Dependencies) error {
		return errors.New("bind failed")
	}
	if _, err := env.run(t, "serve"); err == nil || !strings.Contains(err.Error(), "bind failed") {
		t.Fatalf("serve error = %v", err)
	}
}

// TestRootStartsTUIWithMutedConsole verifies the bare command runs the program quietly.
func TestRootStartsTUIWithMutedConsole(t *testing.T) {
	env := newCLIEnv(t)
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })

	var built tea.Model
	programFactory = func(m tea.Model) program {
		built = m
		return fakeProgram{model: m}
	}
	var stdout, stderr bytes.Buffer
	args := []string{"--config", env.configPath, "--db", env.dbPath}
	if err := executeCommand(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("executeCommand() error = %v", err)
	}
	if _, ok := built.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", built)
	}
	if stderr.Len() != 0 {
		t.Fatalf("tui mode must not log to console, got %q", stderr.String())
	}

	programFactory = func(m tea.Model) program {
		return fakeProgram{model: m, runErr: errors.New("boom")}
	}
	if err := executeCommand(context.Background(), args, &stdout, &stderr); err == nil || !strings.Contains(err.Error(), "run tui program") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestIdentityCommandPersistsDisplayName verifies identity is written to and read from config.
func TestIdentityCommandPersistsDisplayName(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, "[ui]\nconfirm_delete = false\n")

	out := env.mustRun(t, "identity", "Bo")
	if !strings.Contains(out, "display_name: Bo") {
		t.Fatalf("unexpected identity output %q", out)
	}
	cfg, err := config.Load(env.configPath, config.Default(env.dbPath))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.Identity.DisplayName != "Bo" || cfg.UI.ConfirmDelete {
		t.Fatalf("identity upsert must keep other keys, got %#v", cfg)
	}
	if out := env.mustRun(t, "identity"); !strings.Contains(out, "display_name: Bo") {
		t.Fatalf("unexpected identity read %q", out)
	}
}

// TestKeysCommandListsStoredKey verifies the storage key appears after a write.
func TestKeysCommandListsStoredKey(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, "[storage]\nkey = \"board\"\n")
	env.mustRun(t, "add", "--title", "Login fails")
	out := env.mustRun(t, "keys")
	if !strings.HasPrefix(out, "board\t") {
		t.Fatalf("unexpected keys output %q", out)
	}
}

// TestPathsCommandAndEnvOverrides verifies TIX_* env vars feed path resolution.
func TestPathsCommandAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "env.toml")
	dbPath := filepath.Join(dir, "env.db")
	t.Setenv("TIX_CONFIG", cfgPath)
	t.Setenv("TIX_DB_PATH", dbPath)
	t.Setenv("TIX_APP_NAME", "tix-test")

	var stdout bytes.Buffer
	if err := executeCommand(context.Background(), []string{"paths"}, &stdout, nil); err != nil {
		t.Fatalf("paths error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"app: tix-test", "dev_mode: false", "config: " + cfgPath, "db: " + dbPath, "backups: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("paths output missing %q:\n%s", want, out)
		}
	}
}

// TestRejectsInvalidLoggingLevel verifies config validation stops startup.
func TestRejectsInvalidLoggingLevel(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, "[logging]\nlevel = \"loud\"\n")
	if _, err := env.run(t, "list"); err == nil {
		t.Fatal("expected invalid logging level to fail")
	}
}

// TestParseBoolEnv verifies malformed and unset values are ignored.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TIX_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("TIX_TEST_BOOL"); !ok || !v {
		t.Fatalf("parseBoolEnv(true) = %v %v", v, ok)
	}
	t.Setenv("TIX_TEST_BOOL", "nah")
	if _, ok := parseBoolEnv("TIX_TEST_BOOL"); ok {
		t.Fatal("expected malformed value to be ignored")
	}
	if _, ok := parseBoolEnv("TIX_TEST_UNSET"); ok {
		t.Fatal("expected unset value to be ignored")
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies muted console output and the storage hook.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var stderr bytes.Buffer
	logger, err := newRuntimeLogger(&stderr, "tix", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.StorageErrorHook("tickets")("persist", errors.New("disk full"))
	if out := stderr.String(); !strings.Contains(out, "ticket storage failed") || !strings.Contains(out, "disk full") {
		t.Fatalf("expected storage warning, got %q", out)
	}

	stderr.Reset()
	logger.SetConsoleEnabled(false)
	logger.Warn("hidden")
	if stderr.Len() != 0 {
		t.Fatalf("expected muted console, got %q", stderr.String())
	}
	if _, err := newRuntimeLogger(&stderr, "tix", false, config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected invalid level to fail")
	}
}

// TestDevModeWritesLogFile verifies the dev sink lands under the configured dir.
func TestDevModeWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	logger, err := newRuntimeLogger(nil, "tix", true, config.LoggingConfig{
		Level:   "info",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("hello file", "k", "v")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	want := filepath.Join(dir, "tix-20260304.log")
	if logger.DevLogPath() != want {
		t.Fatalf("DevLogPath() = %q, want %q", logger.DevLogPath(), want)
	}
	raw, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read dev log: %v", err)
	}
	if !strings.Contains(string(raw), "hello file") {
		t.Fatalf("dev log missing event: %s", raw)
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies marker lookup walks up parents.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
}

// TestSanitizeLogFileStem verifies unsafe characters are replaced.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"tix":      "tix",
		" my app ": "my-app",
		"a/b:c":    "a-b-c",
		"":         "tix",
		"///":      "tix",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}
