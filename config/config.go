package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so it can be written as "5s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Telemetry configures the OpenTelemetry exporters.
type Telemetry struct {
	Endpoint string            `toml:"Endpoint"`
	Insecure bool              `toml:"Insecure"`
	Headers  map[string]string `toml:"Headers"`
	Traces   bool              `toml:"Traces"`
	Metrics  bool              `toml:"Metrics"`
}

type Config struct {
	ListenAddress            string    `toml:"ListenAddress"`
	DataDir                  string    `toml:"DataDir"`
	StoreBackend             string    `toml:"StoreBackend"`
	LedgerContractID         string    `toml:"LedgerContractID"`
	Environment              string    `toml:"Environment"`
	LogFile                  string    `toml:"LogFile"`
	RedactSenders            bool      `toml:"RedactSenders"`
	DeferredDeliveryInterval Duration  `toml:"DeferredDeliveryInterval"`
	DeferredBatchLimit       int       `toml:"DeferredBatchLimit"`
	InvocationsPerSecond     float64   `toml:"InvocationsPerSecond"`
	InvocationBurst          int       `toml:"InvocationBurst"`
	PausedContracts          []string  `toml:"PausedContracts"`
	DeploymentsFile          string    `toml:"DeploymentsFile"`
	Telemetry                Telemetry `toml:"Telemetry"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	return &Config{
		ListenAddress:            "127.0.0.1:8547",
		DataDir:                  "./contractkit-data",
		StoreBackend:             "leveldb",
		LedgerContractID:         "ledger",
		Environment:              "local",
		DeferredDeliveryInterval: Duration{time.Second},
		DeferredBatchLimit:       64,
		PausedContracts:          []string{},
	}
}

// Load loads the configuration from path, creating it with defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.LedgerContractID = strings.TrimSpace(c.LedgerContractID)
	if c.PausedContracts == nil {
		c.PausedContracts = []string{}
	}
	c.DeploymentsFile = strings.TrimSpace(c.DeploymentsFile)
}

// StorePath is where file-backed stores keep their data.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "contracts."+c.StoreBackend)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
