package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// MigrationConfig holds the full TOML-driven migration configuration.
type MigrationConfig struct {
	Source            SourceConfig `toml:"source"`
	Target            TargetConfig `toml:"target"`
	BatchSize         int          `toml:"batch_size"`
	OnValueError      string       `toml:"on_value_error"` // skip_row|abort_table|abort_run
	OnTableExists     string       `toml:"on_table_exists"` // error|recreate
	IncludeTables     []string     `toml:"include_tables"`
	ExcludeTables     []string     `toml:"exclude_tables"`
	CreateIndexes     bool         `toml:"create_indexes"`
	CreateForeignKeys bool         `toml:"create_foreign_keys"`
	ScanValueStats    bool         `toml:"scan_value_stats"`
	Progress          bool         `toml:"progress"`
	Hooks             HooksConfig  `toml:"hooks"`

	// configDir is the directory containing the TOML file, used to resolve relative SQL paths.
	configDir string
}

// SourceConfig identifies the SQLite database file to read.
type SourceConfig struct {
	Path string `toml:"path"`
}

// TargetConfig identifies the MariaDB/MySQL target database.
type TargetConfig struct {
	DSN       string `toml:"dsn"`
	Charset   string `toml:"charset"`
	Collation string `toml:"collation"`
}

type HooksConfig struct {
	BeforeData        []string `toml:"before_data"`
	AfterData         []string `toml:"after_data"`
	BeforeConstraints []string `toml:"before_constraints"`
	AfterAll          []string `toml:"after_all"`
}

const defaultBatchSize = 500

// loadConfig reads a TOML config file and returns a MigrationConfig with defaults applied.
func loadConfig(path string) (*MigrationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := MigrationConfig{
		BatchSize:         defaultBatchSize,
		OnValueError:      "abort_table",
		OnTableExists:     "error",
		CreateIndexes:     true,
		CreateForeignKeys: true,
		ScanValueStats:    true,
		Progress:          true,
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be positive")
	}
	switch cfg.OnValueError {
	case "skip_row", "abort_table", "abort_run":
	default:
		return nil, fmt.Errorf("on_value_error must be one of: skip_row, abort_table, abort_run")
	}
	switch cfg.OnTableExists {
	case "error", "recreate":
	default:
		return nil, fmt.Errorf("on_table_exists must be one of: error, recreate")
	}

	cfg.Source.Path = strings.TrimSpace(cfg.Source.Path)
	if cfg.Source.Path == "" {
		return nil, fmt.Errorf("source.path is required")
	}
	if cfg.Target.DSN == "" {
		return nil, fmt.Errorf("target.dsn is required")
	}
	if cfg.Target.Charset == "" {
		cfg.Target.Charset = "utf8mb4"
	}
	if cfg.Target.Collation == "" {
		cfg.Target.Collation = "utf8mb4_unicode_ci"
	}

	return &cfg, nil
}

// resolvePath resolves a path relative to the config file directory.
func (c *MigrationConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// tableIncluded applies the include/exclude filters to a table name.
// An empty include list admits everything; exclude always wins.
func (c *MigrationConfig) tableIncluded(name string) bool {
	for _, x := range c.ExcludeTables {
		if x == name {
			return false
		}
	}
	if len(c.IncludeTables) == 0 {
		return true
	}
	for _, x := range c.IncludeTables {
		if x == name {
			return true
		}
	}
	return false
}
