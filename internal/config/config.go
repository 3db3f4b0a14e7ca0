// Package config loads the core's small configuration surface — cost
// rates and worker-pool sizing — layering defaults, a project config
// file, and environment variables, in that increasing order of
// precedence. Command-line flag parsing is an external-collaborator
// concern; callers apply CLI overrides last via ApplyOverrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/jkindrix/claude-snatch/internal/costrate"
)

// Config holds the core's runtime tunables.
type Config struct {
	DataDir        string
	WorkerPoolSize int
	CostRates      costrate.Table

	workerPoolSource source
}

type source int

const (
	sourceDefault source = iota
	sourceEnv
)

const envPrefix = "SNATCH_"

// Default returns a Config with built-in defaults: one worker per CPU
// and the built-in cost-rate table.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve home: %w", err)
	}
	return Config{
		DataDir:        filepath.Join(home, ".config", "snatch"),
		WorkerPoolSize: runtime.NumCPU(),
		CostRates:      costrate.DefaultTable(),
	}, nil
}

// Load layers defaults, the project config file
// (<data-dir>/config.json), and environment variables
// (SNATCH_DATA_DIR, SNATCH_WORKER_POOL_SIZE), in that order.
func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	cfg.loadEnv()
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("config: loading file: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(envPrefix + "WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WorkerPoolSize = n
			c.workerPoolSource = sourceEnv
		}
	}
}

type fileConfig struct {
	WorkerPoolSize int                      `json:"worker_pool_size"`
	CostRates      map[string]costrate.Rate `json:"cost_rates"`
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if fc.WorkerPoolSize > 0 && c.workerPoolSource != sourceEnv {
		c.WorkerPoolSize = fc.WorkerPoolSize
	}
	if len(fc.CostRates) > 0 {
		c.CostRates = c.CostRates.Merge(costrate.Table(fc.CostRates))
	}
	return nil
}

// ApplyOverrides copies any non-zero explicit override onto cfg,
// representing the highest-precedence layer (command line).
func (c *Config) ApplyOverrides(workerPoolSize int, rateOverrides costrate.Table) {
	if workerPoolSize > 0 {
		c.WorkerPoolSize = workerPoolSize
	}
	if len(rateOverrides) > 0 {
		c.CostRates = c.CostRates.Merge(rateOverrides)
	}
}

// SaveCostRateOverride persists a single model's rate override to the
// project config file, merging with whatever is already there.
func (c *Config) SaveCostRateOverride(model string, rate costrate.Rate) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("config: creating data dir: %w", err)
	}
	existing := map[string]any{}
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config: reading file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("config: existing file invalid: %w", err)
		}
	}
	rates, _ := existing["cost_rates"].(map[string]any)
	if rates == nil {
		rates = map[string]any{}
	}
	rates[model] = rate
	existing["cost_rates"] = rates

	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("config: writing: %w", err)
	}
	return nil
}
