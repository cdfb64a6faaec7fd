// Package platform resolves where tix keeps its config, database and backups.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// defaultAppName names the config/data folders when no app name is given.
const defaultAppName = "tix"

// Paths holds the resolved on-disk locations for one app name.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	BackupDir  string
}

// BackupPath returns a timestamped snapshot file path under BackupDir.
func (p Paths) BackupPath(now time.Time) string {
	return filepath.Join(p.BackupDir, "tickets-"+now.UTC().Format("20060102-150405")+".json")
}

// Options selects the app folder name. DevMode appends "-dev" so dev runs
// never touch real tickets.
type Options struct {
	AppName string
	DevMode bool
}

// baseOverride names the env vars that relocate the config and data bases on one OS.
type baseOverride struct {
	configEnv string
	dataEnv   string
}

// overrides lists the OSes whose env vars win over the user dirs. Others keep the user dirs.
var overrides = map[string]baseOverride{
	"linux":   {configEnv: "XDG_CONFIG_HOME", dataEnv: "XDG_DATA_HOME"},
	"windows": {configEnv: "APPDATA", dataEnv: "LOCALAPPDATA"},
}

// DefaultPaths resolves paths for the "tix" folder on this machine.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: defaultAppName})
}

// DefaultPathsWithOptions resolves paths for opts on this machine, reading
// the user dirs and override env vars of the running OS.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir, err := defaultDataBase(runtime.GOOS, configDir)
	if err != nil {
		return Paths{}, err
	}

	env := map[string]string{}
	for _, o := range overrides {
		env[o.configEnv] = os.Getenv(o.configEnv)
		env[o.dataEnv] = os.Getenv(o.dataEnv)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// defaultDataBase picks the data base before env overrides: ~/.local/share on
// linux, the config dir elsewhere.
func defaultDataBase(goos, configDir string) (string, error) {
	if goos != "linux" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// PathsFor is the pure core of DefaultPathsWithOptions: goos, env and the
// base dirs are passed in, so every platform can be checked from any host.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	appName = strings.TrimSpace(appName)
	switch {
	case userConfigDir == "" || userDataDir == "":
		return Paths{}, errors.New("config and data base dirs are required")
	case appName == "":
		return Paths{}, errors.New("app name is required")
	}

	configBase, dataBase := userConfigDir, userDataDir
	if o, ok := overrides[goos]; ok {
		if v := strings.TrimSpace(env[o.configEnv]); v != "" {
			configBase = v
		}
		if v := strings.TrimSpace(env[o.dataEnv]); v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		BackupDir:  filepath.Join(dataDir, "backups"),
	}, nil
}
