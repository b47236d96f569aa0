package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable business-rule thresholds. Values omitted from
// a rules file keep their compiled-in defaults.
type Config struct {
	RequiredFields     []string `yaml:"required_fields"`
	ClaimAmountMax     float64  `yaml:"claim_amount_max"`
	PolicyNumberPrefix string   `yaml:"policy_number_prefix"`
}

func DefaultConfig() Config {
	return Config{
		RequiredFields:     []string{"claimant_name", "policy_number", "claim_amount"},
		ClaimAmountMax:     50000,
		PolicyNumberPrefix: "PN-",
	}
}

// LoadConfig reads a YAML rules file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse rules file: %w", err)
	}
	return cfg.normalize(), nil
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c
	if len(out.RequiredFields) == 0 {
		out.RequiredFields = def.RequiredFields
	}
	if out.ClaimAmountMax <= 0 {
		out.ClaimAmountMax = def.ClaimAmountMax
	}
	if out.PolicyNumberPrefix == "" {
		out.PolicyNumberPrefix = def.PolicyNumberPrefix
	}
	return out
}
