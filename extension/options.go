package extension

import (
	"time"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/store"
)

// Option configures the Bazaar Forge extension.
type Option func(*Extension)

// WithStore sets the store for the bazaar engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithHost sets the host environment the engine settles against.
func WithHost(h asset.Host) Option {
	return func(e *Extension) {
		e.host = h
	}
}

// WithEngineOption passes a bazaar.Option through to the underlying engine.
// Pass-through options are applied after config-derived ones.
func WithEngineOption(opt bazaar.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a bazaar plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bazaar.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate skips store migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithSignupFee sets the signup fee in native base units.
func WithSignupFee(fee string) Option {
	return func(e *Extension) { e.config.SignupFee = fee }
}

// WithProductFee sets the listing fee in native base units.
func WithProductFee(fee string) Option {
	return func(e *Extension) { e.config.ProductFee = fee }
}

// WithReferenceAsset sets the fee accounting unit.
func WithReferenceAsset(ref string) Option {
	return func(e *Extension) { e.config.ReferenceAsset = ref }
}

// WithOwner sets the account seeded with the stake supply.
func WithOwner(acct string) Option {
	return func(e *Extension) { e.config.Owner = acct }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
