package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// LogLevel names one runtime log threshold.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// columnIDs lists the fixed board column ids in display order.
var columnIDs = []string{"backlog", "doing", "review", "done"}

type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Persistence PersistenceConfig `toml:"persistence"`
	Cache       CacheConfig       `toml:"cache"`
	Board       BoardConfig       `toml:"board"`
	Server      ServerConfig      `toml:"server"`
	Logging     LoggingConfig     `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// PersistenceConfig toggles the sqlite collaborator; disabled keeps the board in memory only.
type PersistenceConfig struct {
	Enabled bool `toml:"enabled"`
}

type CacheConfig struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	DB        int    `toml:"db"`
	TTL       string `toml:"ttl"`
	Namespace string `toml:"namespace"`
}

// BoardConfig holds seeding and column display titles keyed by column id.
type BoardConfig struct {
	Seed   bool              `toml:"seed"`
	Titles map[string]string `toml:"titles"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   LogLevel `toml:"level"`
	DevFile string   `toml:"dev_file"`
}

func defaultTitles() map[string]string {
	return map[string]string{
		"backlog": "Backlog",
		"doing":   "Doing",
		"review":  "Review",
		"done":    "Done",
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Persistence: PersistenceConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Addr:      "127.0.0.1:6379",
			TTL:       "30s",
			Namespace: "default",
		},
		Board: BoardConfig{
			Seed:   true,
			Titles: defaultTitles(),
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Persistence.Enabled && strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Addr) == "" {
			return errors.New("cache.addr is required when cache is enabled")
		}
		if c.Cache.DB < 0 {
			return fmt.Errorf("cache.db must be >= 0")
		}
		if _, err := c.CacheTTL(); err != nil {
			return err
		}
	}

	for id, title := range c.Board.Titles {
		if !slices.Contains(columnIDs, strings.TrimSpace(strings.ToLower(id))) {
			return fmt.Errorf("board.titles.%s must be one of %s", id, strings.Join(columnIDs, ", "))
		}
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("board.titles.%s is required", id)
		}
	}

	switch LogLevel(strings.TrimSpace(strings.ToLower(string(c.Logging.Level)))) {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// CacheTTL parses cache.ttl; an empty value disables caching of loads.
func (c Config) CacheTTL() (time.Duration, error) {
	raw := strings.TrimSpace(c.Cache.TTL)
	if raw == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("cache.ttl must be >= 0")
	}
	return ttl, nil
}

// ColumnTitles returns the configured column titles keyed by column id.
func (c Config) ColumnTitles() map[string]string {
	out := make(map[string]string, len(c.Board.Titles))
	for id, title := range c.Board.Titles {
		id = strings.TrimSpace(strings.ToLower(id))
		title = strings.TrimSpace(title)
		if id == "" || title == "" {
			continue
		}
		out[id] = title
	}
	return out
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
