package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/genfin-dev/genfin/internal/ledger"
)

// Config represents the top-level genfin.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Policy   PolicyConfig   `yaml:"policy"`
	Storage  StorageConfig  `yaml:"storage"`
	Events   EventsConfig   `yaml:"events"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// PolicyConfig holds the ledger policy knobs.
type PolicyConfig struct {
	AllowPartialBillPayments bool  `yaml:"allow_partial_bill_payments"`
	Scale                    int32 `yaml:"scale"`
	OpeningEquityAccountID   int   `yaml:"opening_equity_account_id"`
}

// StorageConfig locates the ledger database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig controls event publishing.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers,omitempty"`
}

// Load reads a genfin.yaml file from disk. Environment variables override
// the file: GENFIN_DB_PATH for storage.path, GENFIN_KAFKA_BROKERS for a
// single broker address.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if dbPath := os.Getenv("GENFIN_DB_PATH"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if broker := os.Getenv("GENFIN_KAFKA_BROKERS"); broker != "" {
		cfg.Events.Enabled = true
		cfg.Events.Brokers = []string{broker}
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new set of books.
func Default(businessName, entityType string) *Config {
	policy := ledger.DefaultPolicy()
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Policy: PolicyConfig{
			AllowPartialBillPayments: policy.AllowPartialBillPayments,
			Scale:                    policy.Scale,
			OpeningEquityAccountID:   policy.OpeningEquityAccountID,
		},
		Storage: StorageConfig{
			Path: "genfin.db",
		},
	}
}

// LedgerPolicy converts the config's policy section into the ledger's
// construction-time Policy.
func (c *Config) LedgerPolicy() ledger.Policy {
	return ledger.Policy{
		AllowPartialBillPayments: c.Policy.AllowPartialBillPayments,
		Scale:                    c.Policy.Scale,
		OpeningEquityAccountID:   c.Policy.OpeningEquityAccountID,
	}
}
