package extension

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/plugin"
)

// Config holds the Bazaar extension configuration.
// Fields can be set programmatically via Option functions, loaded from
// YAML configuration files (under "extensions.bazaar" or "bazaar" keys),
// or overridden by BAZAAR_* environment variables.
type Config struct {
	// DisableMigrate skips store migration on start. State is still loaded.
	DisableMigrate bool `env:"BAZAAR_DISABLE_MIGRATE" json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// SignupFee is the native merchant signup fee in base units
	// (default: 10^18).
	SignupFee string `env:"BAZAAR_SIGNUP_FEE" json:"signup_fee" mapstructure:"signup_fee" yaml:"signup_fee"`

	// ProductFee is the native listing fee in base units (default: 10^16).
	ProductFee string `env:"BAZAAR_PRODUCT_FEE" json:"product_fee" mapstructure:"product_fee" yaml:"product_fee"`

	// ReferenceAsset is the asset TotalFeesPaid is reported in
	// (default: native).
	ReferenceAsset string `env:"BAZAAR_REFERENCE_ASSET" json:"reference_asset" mapstructure:"reference_asset" yaml:"reference_asset"`

	// Account is the engine's escrow and spender account (default: "bazaar").
	Account string `env:"BAZAAR_ACCOUNT" json:"account" mapstructure:"account" yaml:"account"`

	// Owner receives the whole stake supply on a fresh store
	// (default: "owner").
	Owner string `env:"BAZAAR_OWNER" json:"owner" mapstructure:"owner" yaml:"owner"`

	// StrictAccounts requires base58-encoded 32-byte account keys.
	StrictAccounts bool `env:"BAZAAR_STRICT_ACCOUNTS" json:"strict_accounts" mapstructure:"strict_accounts" yaml:"strict_accounts"`

	// SequenceBase offsets every id sequence of a fresh store.
	SequenceBase uint64 `env:"BAZAAR_SEQUENCE_BASE" json:"sequence_base" mapstructure:"sequence_base" yaml:"sequence_base"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `env:"BAZAAR_PLUGIN_TIMEOUT" json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SignupFee:      bazaar.DefaultSignupFee.String(),
		ProductFee:     bazaar.DefaultProductFee.String(),
		ReferenceAsset: string(asset.Native),
		Account:        string(bazaar.DefaultAccount),
		Owner:          string(bazaar.DefaultOwner),
		PluginTimeout:  plugin.DefaultTimeout,
	}
}

// LoadEnv overlays BAZAAR_* environment variables onto cfg. Unset
// variables leave the corresponding fields untouched.
func LoadEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
