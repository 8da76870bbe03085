package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook interfaces are discovered once at registration and cached per type.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                  []OnInit
	onShutdown              []OnShutdown
	onOperationFailed       []OnOperationFailed
	onMerchantSignedUp      []OnMerchantSignedUp
	onProductListed         []OnProductListed
	onProductUpdated        []OnProductUpdated
	onProductRemoved        []OnProductRemoved
	onPurchaseCompleted     []OnPurchaseCompleted
	onPaymentRecorded       []OnPaymentRecorded
	onFeeDistributed        []OnFeeDistributed
	onFeeConversionDegraded []OnFeeConversionDegraded
	onStakeOffered          []OnStakeOffered
	onStakeTaken            []OnStakeTaken
	onStakeOfferRemoved     []OnStakeOfferRemoved
	onStakeTransferred      []OnStakeTransferred
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook deadline.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.onOperationFailed = append(r.onOperationFailed, v)
	}
	if v, ok := p.(OnMerchantSignedUp); ok {
		r.onMerchantSignedUp = append(r.onMerchantSignedUp, v)
	}
	if v, ok := p.(OnProductListed); ok {
		r.onProductListed = append(r.onProductListed, v)
	}
	if v, ok := p.(OnProductUpdated); ok {
		r.onProductUpdated = append(r.onProductUpdated, v)
	}
	if v, ok := p.(OnProductRemoved); ok {
		r.onProductRemoved = append(r.onProductRemoved, v)
	}
	if v, ok := p.(OnPurchaseCompleted); ok {
		r.onPurchaseCompleted = append(r.onPurchaseCompleted, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnFeeDistributed); ok {
		r.onFeeDistributed = append(r.onFeeDistributed, v)
	}
	if v, ok := p.(OnFeeConversionDegraded); ok {
		r.onFeeConversionDegraded = append(r.onFeeConversionDegraded, v)
	}
	if v, ok := p.(OnStakeOffered); ok {
		r.onStakeOffered = append(r.onStakeOffered, v)
	}
	if v, ok := p.(OnStakeTaken); ok {
		r.onStakeTaken = append(r.onStakeTaken, v)
	}
	if v, ok := p.(OnStakeOfferRemoved); ok {
		r.onStakeOfferRemoved = append(r.onStakeOfferRemoved, v)
	}
	if v, ok := p.(OnStakeTransferred); ok {
		r.onStakeTransferred = append(r.onStakeTransferred, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnOperationFailed", reflect.TypeFor[OnOperationFailed]()},
	{"OnMerchantSignedUp", reflect.TypeFor[OnMerchantSignedUp]()},
	{"OnProductListed", reflect.TypeFor[OnProductListed]()},
	{"OnProductUpdated", reflect.TypeFor[OnProductUpdated]()},
	{"OnProductRemoved", reflect.TypeFor[OnProductRemoved]()},
	{"OnPurchaseCompleted", reflect.TypeFor[OnPurchaseCompleted]()},
	{"OnPaymentRecorded", reflect.TypeFor[OnPaymentRecorded]()},
	{"OnFeeDistributed", reflect.TypeFor[OnFeeDistributed]()},
	{"OnFeeConversionDegraded", reflect.TypeFor[OnFeeConversionDegraded]()},
	{"OnStakeOffered", reflect.TypeFor[OnStakeOffered]()},
	{"OnStakeTaken", reflect.TypeFor[OnStakeTaken]()},
	{"OnStakeOfferRemoved", reflect.TypeFor[OnStakeOfferRemoved]()},
	{"OnStakeTransferred", reflect.TypeFor[OnStakeTransferred]()},
}

// implementedInterfaces returns the hook interfaces p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every plugin in the list captured under the read
// lock. Failures are logged and never propagated.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list *[]T, fn func(T) error) {
	r.mu.RLock()
	plugins := *list
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", &r.onInit, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", &r.onShutdown, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitOperationFailed emits an operation failed event.
func (r *Registry) EmitOperationFailed(ctx context.Context, op string, cause error) {
	emit(ctx, r, "OnOperationFailed", &r.onOperationFailed, func(p OnOperationFailed) error {
		return p.OnOperationFailed(ctx, op, cause)
	})
}

// EmitMerchantSignedUp emits a merchant signed up event.
func (r *Registry) EmitMerchantSignedUp(ctx context.Context, m merchant.Merchant, feePaid types.Amount) {
	emit(ctx, r, "OnMerchantSignedUp", &r.onMerchantSignedUp, func(p OnMerchantSignedUp) error {
		return p.OnMerchantSignedUp(ctx, m, feePaid)
	})
}

// EmitProductListed emits a product listed event.
func (r *Registry) EmitProductListed(ctx context.Context, prod catalog.Product) {
	emit(ctx, r, "OnProductListed", &r.onProductListed, func(p OnProductListed) error {
		return p.OnProductListed(ctx, prod)
	})
}

// EmitProductUpdated emits a product updated event.
func (r *Registry) EmitProductUpdated(ctx context.Context, before, after catalog.Product) {
	emit(ctx, r, "OnProductUpdated", &r.onProductUpdated, func(p OnProductUpdated) error {
		return p.OnProductUpdated(ctx, before, after)
	})
}

// EmitProductRemoved emits a product removed event.
func (r *Registry) EmitProductRemoved(ctx context.Context, prod catalog.Product) {
	emit(ctx, r, "OnProductRemoved", &r.onProductRemoved, func(p OnProductRemoved) error {
		return p.OnProductRemoved(ctx, prod)
	})
}

// EmitPurchaseCompleted emits the purchase-completed notification.
func (r *Registry) EmitPurchaseCompleted(ctx context.Context, productID, quantity uint64, buyer types.Account) {
	emit(ctx, r, "OnPurchaseCompleted", &r.onPurchaseCompleted, func(p OnPurchaseCompleted) error {
		return p.OnPurchaseCompleted(ctx, productID, quantity, buyer)
	})
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, pay payment.Payment) {
	emit(ctx, r, "OnPaymentRecorded", &r.onPaymentRecorded, func(p OnPaymentRecorded) error {
		return p.OnPaymentRecorded(ctx, pay)
	})
}

// EmitFeeDistributed emits a fee distributed event.
func (r *Registry) EmitFeeDistributed(ctx context.Context, d fee.Distribution) {
	emit(ctx, r, "OnFeeDistributed", &r.onFeeDistributed, func(p OnFeeDistributed) error {
		return p.OnFeeDistributed(ctx, d)
	})
}

// EmitFeeConversionDegraded emits a fee conversion degraded event.
func (r *Registry) EmitFeeConversionDegraded(ctx context.Context, ref asset.Ref, total types.Amount, cause error) {
	emit(ctx, r, "OnFeeConversionDegraded", &r.onFeeConversionDegraded, func(p OnFeeConversionDegraded) error {
		return p.OnFeeConversionDegraded(ctx, ref, total, cause)
	})
}

// EmitStakeOffered emits a stake offered event.
func (r *Registry) EmitStakeOffered(ctx context.Context, o stake.Offer) {
	emit(ctx, r, "OnStakeOffered", &r.onStakeOffered, func(p OnStakeOffered) error {
		return p.OnStakeOffered(ctx, o)
	})
}

// EmitStakeTaken emits a stake taken event.
func (r *Registry) EmitStakeTaken(ctx context.Context, o stake.Offer, buyer types.Account) {
	emit(ctx, r, "OnStakeTaken", &r.onStakeTaken, func(p OnStakeTaken) error {
		return p.OnStakeTaken(ctx, o, buyer)
	})
}

// EmitStakeOfferRemoved emits a stake offer removed event.
func (r *Registry) EmitStakeOfferRemoved(ctx context.Context, o stake.Offer) {
	emit(ctx, r, "OnStakeOfferRemoved", &r.onStakeOfferRemoved, func(p OnStakeOfferRemoved) error {
		return p.OnStakeOfferRemoved(ctx, o)
	})
}

// EmitStakeTransferred emits a stake transferred event.
func (r *Registry) EmitStakeTransferred(ctx context.Context, t stake.Transfer) {
	emit(ctx, r, "OnStakeTransferred", &r.onStakeTransferred, func(p OnStakeTransferred) error {
		return p.OnStakeTransferred(ctx, t)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement path.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
