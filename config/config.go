// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (allocation.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv("allocation.yaml")
//	opts, err := cfg.Allocation.Options()
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/openallocation/core"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "allocation.yaml"

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Allocation    AllocationConfig    `yaml:"allocation"`
	Columns       core.ColumnAliases  `yaml:"columns"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds allocation service settings
type ServerConfig struct {
	Network     string        `yaml:"network"` // "tcp" or "vsock"
	Listen      string        `yaml:"listen"`  // tcp address
	VsockPort   uint32        `yaml:"vsock_port"`
	MaxWorkers  int           `yaml:"max_workers"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// AllocationConfig holds engine settings
type AllocationConfig struct {
	Workers          int      `yaml:"workers"`
	TieBreak         string   `yaml:"tie_break"`
	StatusPolicy     string   `yaml:"status_policy"`
	AcceptedStatuses []string `yaml:"accepted_statuses"`
}

// OutputConfig holds labels for the exported tables
type OutputConfig struct {
	DetailedSheet string       `yaml:"detailed_sheet"`
	SummarySheet  string       `yaml:"summary_sheet"`
	Labels        OutputLabels `yaml:"labels"`
}

// OutputLabels names the derived columns
type OutputLabels struct {
	RemainingStock string `yaml:"remaining_stock"`
	ChosenBuyers   string `yaml:"chosen_buyers"`
	TotalSale      string `yaml:"total_sale"`
	Rank           string `yaml:"rank"`
	Buyer          string `yaml:"buyer"`
	TotalPayable   string `yaml:"total_payable"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Network:     "tcp",
			Listen:      "127.0.0.1:5000",
			VsockPort:   5000,
			MaxWorkers:  8,
			ReadTimeout: 30 * time.Second,
		},
		Allocation: AllocationConfig{
			Workers:      1,
			TieBreak:     string(core.TieBreakDiscovery),
			StatusPolicy: string(core.StatusPolicySellable),
		},
		Output: OutputConfig{
			DetailedSheet: "Detaylı Dağıtım Sonucu",
			SummarySheet:  "Bayi Özet Tablosu",
			Labels: OutputLabels{
				RemainingStock: "Kalan Stok",
				ChosenBuyers:   "Seçilen Bayiler",
				TotalSale:      "Toplam Satış Tutarı",
				Rank:           "Sıra",
				Buyer:          "Bayi Adı",
				TotalPayable:   "Toplam Ödenecek Tutar",
			},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ALLOC_LISTEN})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()
	cfg.Server.Network = getEnv("ALLOC_NETWORK", cfg.Server.Network)
	cfg.Server.Listen = getEnv("ALLOC_LISTEN", cfg.Server.Listen)
	cfg.Server.VsockPort = uint32(getEnvInt("ALLOC_VSOCK_PORT", int(cfg.Server.VsockPort)))
	cfg.Server.MaxWorkers = getEnvInt("ALLOC_MAX_WORKERS", cfg.Server.MaxWorkers)
	cfg.Allocation.Workers = getEnvInt("ALLOC_WORKERS", cfg.Allocation.Workers)
	cfg.Observability.Logging.Level = getEnv("ALLOC_LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("ALLOC_LOG_FORMAT", cfg.Observability.Logging.Format)
	return cfg
}

// LoadOrEnv tries to load from path (DefaultPath when empty), falls back to
// environment variables
func LoadOrEnv(path string) *Config {
	if path == "" {
		path = DefaultPath
	}
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate rejects settings the engine or service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Network {
	case "tcp", "vsock":
	default:
		errs = append(errs, fmt.Errorf("server.network: unknown network %q", c.Server.Network))
	}
	if c.Server.MaxWorkers <= 0 {
		errs = append(errs, fmt.Errorf("server.max_workers must be positive, got %d", c.Server.MaxWorkers))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout))
	}
	if c.Allocation.Workers <= 0 {
		errs = append(errs, fmt.Errorf("allocation.workers must be positive, got %d", c.Allocation.Workers))
	}
	if _, err := core.ParseTieBreak(c.Allocation.TieBreak); err != nil {
		errs = append(errs, fmt.Errorf("allocation.tie_break: %w", err))
	}
	if _, err := core.ParseStatusPolicy(c.Allocation.StatusPolicy); err != nil {
		errs = append(errs, fmt.Errorf("allocation.status_policy: %w", err))
	}

	return errors.Join(errs...)
}

// Options converts the allocation settings to engine options.
func (a AllocationConfig) Options() (core.Options, error) {
	tieBreak, err := core.ParseTieBreak(a.TieBreak)
	if err != nil {
		return core.Options{}, err
	}
	policy, err := core.ParseStatusPolicy(a.StatusPolicy)
	if err != nil {
		return core.Options{}, err
	}
	return core.Options{
		Eligibility: core.NewEligibilityPolicy(policy, a.AcceptedStatuses),
		TieBreak:    tieBreak,
		Workers:     a.Workers,
	}, nil
}

// ColumnAliases returns the built-in alias tables extended with the
// configured columns section.
func (c *Config) ColumnAliases() core.ColumnAliases {
	return core.DefaultColumnAliases().Merge(c.Columns)
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
