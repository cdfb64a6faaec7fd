package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Identity IdentityConfig `toml:"identity"`
	Defaults DefaultsConfig `toml:"defaults"`
	UI       UIConfig       `toml:"ui"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type StorageConfig struct {
	Key string `toml:"key"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type IdentityConfig struct {
	DisplayName string `toml:"display_name"`
}

// DefaultsConfig holds the preselected values of the create form.
type DefaultsConfig struct {
	Status   string `toml:"status"`
	Priority string `toml:"priority"`
}

type UIConfig struct {
	ConfirmDelete   bool `toml:"confirm_delete"`
	RenderMarkdown  bool `toml:"render_markdown"`
	ShowDescription bool `toml:"show_description"`
}

type ServerConfig struct {
	HTTP        string `toml:"http"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validStatuses   = []string{"open", "in-progress", "resolved", "closed"}
	validPriorities = []string{"low", "medium", "high", "urgent"}
)

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Storage: StorageConfig{
			Key: "tickets",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tix/log",
			},
		},
		Defaults: DefaultsConfig{
			Status:   "open",
			Priority: "medium",
		},
		UI: UIConfig{
			ConfirmDelete:   true,
			RenderMarkdown:  true,
			ShowDescription: true,
		},
		Server: ServerConfig{
			HTTP:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Storage.Key = strings.TrimSpace(c.Storage.Key)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Identity.DisplayName = strings.TrimSpace(c.Identity.DisplayName)
	c.Defaults.Status = strings.ToLower(strings.TrimSpace(c.Defaults.Status))
	c.Defaults.Priority = strings.ToLower(strings.TrimSpace(c.Defaults.Priority))
	c.Server.HTTP = strings.TrimSpace(c.Server.HTTP)
	c.Server.APIEndpoint = strings.TrimSpace(c.Server.APIEndpoint)
	c.Server.MCPEndpoint = strings.TrimSpace(c.Server.MCPEndpoint)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if !slices.Contains(validStatuses, c.Defaults.Status) {
		return fmt.Errorf("invalid defaults.status: %q", c.Defaults.Status)
	}
	if !slices.Contains(validPriorities, c.Defaults.Priority) {
		return fmt.Errorf("invalid defaults.priority: %q", c.Defaults.Priority)
	}
	if c.Server.APIEndpoint != "" && c.Server.APIEndpoint == c.Server.MCPEndpoint {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", c.Server.APIEndpoint)
	}
	return nil
}

// UpsertIdentity writes identity.display_name into the TOML file at path,
// keeping every other key already present.
func UpsertIdentity(path, displayName string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("config path is required")
	}
	doc := map[string]any{}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read config: %w", err)
	case len(content) > 0:
		if err := toml.Unmarshal(content, &doc); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	}

	identity, _ := doc["identity"].(map[string]any)
	if identity == nil {
		identity = map[string]any{}
	}
	identity["display_name"] = strings.TrimSpace(displayName)
	doc["identity"] = identity

	encoded, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
