package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/tailscale/hujson"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/engine"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/pager"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Config holds the settings read from the config file. Flags override them.
type Config struct {
	PageSize       int           `mapstructure:"page_size"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	LogLevel       string        `mapstructure:"log_level"`
	Password       string        `mapstructure:"password"`
	ReadOnly       bool          `mapstructure:"read_only"`
	// HistoryFile keeps REPL history between runs. Empty disables it.
	HistoryFile string `mapstructure:"history_file"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		PageSize:       pager.DefaultPageSize,
		LockTimeout:    engine.DefaultLockTimeout,
		SearchDebounce: 300 * time.Millisecond,
		LogLevel:       "warn",
	}
}

// LoadConfig reads a JSON config file, comments and trailing commas allowed,
// over the defaults. An empty path returns the defaults.
func LoadConfig(st domain.Storage, path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	r, err := st.ReadFileStream(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	defer r.Close()

	text, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := DecodeConfig(text, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes text into cfg. Durations are written as strings
// ("500ms") and unknown keys are refused.
func DecodeConfig(text []byte, cfg *Config) error {
	std, err := hujson.Standardize(text)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(std, &raw); err != nil {
		return err
	}
	return decodeMap(raw, cfg)
}

func decodeMap(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must not be negative, got %s", c.LockTimeout)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative, got %s", c.SearchDebounce)
	}
	return nil
}
