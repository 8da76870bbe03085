// Package extension provides the Forge extension adapter for Bazaar.
//
// It implements the forge.Extension interface to integrate the settlement
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions,
// via YAML configuration files under "extensions.bazaar" or "bazaar" keys,
// or via BAZAAR_* environment variables, which take precedence over both.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	hostmemory "github.com/xraph/bazaar/host/memory"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bazaar"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Marketplace settlement engine with stakeholder fee sharing"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bazaar as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bazaar.Engine
	store      store.Store
	host       asset.Host
	engineOpts []bazaar.Option
}

// New creates a new Bazaar Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Engine instance.
// This is nil until Register is called.
func (e *Extension) Engine() *bazaar.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Fall back to in-process backends when none were provided.
	if e.store == nil {
		e.store = memory.New()
	}
	if e.host == nil {
		e.host = hostmemory.New()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = bazaar.New(e.store, e.host, opts...)

	return vessel.Provide(fapp.Container(), func() (*bazaar.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bazaar: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bazaar: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs bazaar.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]bazaar.Option, error) {
	return engineOptions(e.config, e.engineOpts)
}

func engineOptions(cfg Config, extra []bazaar.Option) ([]bazaar.Option, error) {
	opts := make([]bazaar.Option, 0, len(extra)+8)

	if cfg.SignupFee != "" {
		fee, err := types.ParseAmount(cfg.SignupFee)
		if err != nil {
			return nil, fmt.Errorf("bazaar: signup_fee: %w", err)
		}
		opts = append(opts, bazaar.WithSignupFee(fee))
	}
	if cfg.ProductFee != "" {
		fee, err := types.ParseAmount(cfg.ProductFee)
		if err != nil {
			return nil, fmt.Errorf("bazaar: product_fee: %w", err)
		}
		opts = append(opts, bazaar.WithProductFee(fee))
	}
	if cfg.ReferenceAsset != "" {
		opts = append(opts, bazaar.WithReferenceAsset(asset.Ref(cfg.ReferenceAsset)))
	}
	if cfg.Account != "" {
		opts = append(opts, bazaar.WithAccount(types.Account(cfg.Account)))
	}
	if cfg.Owner != "" {
		opts = append(opts, bazaar.WithOwner(types.Account(cfg.Owner)))
	}
	if cfg.StrictAccounts {
		opts = append(opts, bazaar.WithStrictAccounts())
	}
	if cfg.SequenceBase > 0 {
		opts = append(opts, bazaar.WithSequenceBase(cfg.SequenceBase))
	}
	if cfg.PluginTimeout > 0 {
		opts = append(opts, bazaar.WithPluginTimeout(cfg.PluginTimeout))
	}
	if cfg.DisableMigrate {
		opts = append(opts, bazaar.WithoutMigrate())
	}

	// Append any pass-through engine options.
	return append(opts, extra...), nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files, programmatic sources and
// the environment.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bazaar: configuration is required but not found in config files; " +
				"ensure 'extensions.bazaar' or 'bazaar' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := LoadEnv(&e.config); err != nil {
		return fmt.Errorf("bazaar: %w", err)
	}
	e.config = mergeWithDefaults(e.config)

	e.Logger().Debug("bazaar: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("signup_fee", e.config.SignupFee),
		forge.F("product_fee", e.config.ProductFee),
		forge.F("reference_asset", e.config.ReferenceAsset),
		forge.F("account", e.config.Account),
		forge.F("strict_accounts", e.config.StrictAccounts),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.bazaar", "bazaar"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SignupFee == "" {
		cfg.SignupFee = defaults.SignupFee
	}
	if cfg.ProductFee == "" {
		cfg.ProductFee = defaults.ProductFee
	}
	if cfg.ReferenceAsset == "" {
		cfg.ReferenceAsset = defaults.ReferenceAsset
	}
	if cfg.Account == "" {
		cfg.Account = defaults.Account
	}
	if cfg.Owner == "" {
		cfg.Owner = defaults.Owner
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.StrictAccounts {
		yamlConfig.StrictAccounts = true
	}

	if yamlConfig.SignupFee == "" {
		yamlConfig.SignupFee = programmaticConfig.SignupFee
	}
	if yamlConfig.ProductFee == "" {
		yamlConfig.ProductFee = programmaticConfig.ProductFee
	}
	if yamlConfig.ReferenceAsset == "" {
		yamlConfig.ReferenceAsset = programmaticConfig.ReferenceAsset
	}
	if yamlConfig.Account == "" {
		yamlConfig.Account = programmaticConfig.Account
	}
	if yamlConfig.Owner == "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.SequenceBase == 0 {
		yamlConfig.SequenceBase = programmaticConfig.SequenceBase
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return yamlConfig
}
