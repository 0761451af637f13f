// Package config loads the wallet configuration from a YAML file and
// validates it against an embedded CUE schema before anything else runs.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Config is the full wallet configuration. Zero-value fields are filled
// from defaults before validation, so a missing or empty file is valid.
type Config struct {
	DataDir               string `yaml:"data_dir"`
	Network               string `yaml:"network"`
	LogLevel              string `yaml:"log_level"`
	OnchainReceiveEnabled bool   `yaml:"onchain_receive_enabled"`
	TorEnabled            bool   `yaml:"tor_enabled"`
}

// Default returns the configuration used when no file is present.
// The data dir lands under the user's home so a bare `harbor` works
// out of the box.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:  filepath.Join(home, ".harbor"),
		Network:  "mainnet",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path, applies defaults for absent fields,
// and validates the result. A missing file yields the defaults; any
// other read error is returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate unifies the configuration with the embedded schema and
// requires every field to be concrete and in range.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema has no #Config definition")
	}

	val := ctx.Encode(map[string]any{
		"data_dir":                c.DataDir,
		"network":                 c.Network,
		"log_level":               c.LogLevel,
		"onchain_receive_enabled": c.OnchainReceiveEnabled,
		"tor_enabled":             c.TorEnabled,
	})
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// DBPath is the location of the sqlite database inside the data dir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "harbor.sqlite")
}

// SlogLevel maps the configured log level onto slog's levels.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
