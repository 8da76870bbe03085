package audithook

import (
	"log/slog"
	"time"
)

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to actions. Without it every
// action is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions audits everything except actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool)
			for _, action := range allActions() {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// WithCategories keeps only events in the given categories, e.g.
// CategoryRevenue and CategoryStake for a treasury trail.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		e.categories = make(map[string]bool, len(categories))
		for _, c := range categories {
			e.categories[c] = true
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extension) {
		e.now = now
	}
}

// allActions returns all known audit actions.
func allActions() []string {
	return []string{
		ActionMerchantSignedUp,
		ActionProductListed,
		ActionProductUpdated,
		ActionProductRemoved,
		ActionPaymentRecorded,
		ActionFeeDistributed,
		ActionFeeConversionDegraded,
		ActionStakeOffered,
		ActionStakeTaken,
		ActionStakeOfferRemoved,
		ActionStakeTransferred,
		ActionOperationFailed,
	}
}
