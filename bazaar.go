package bazaar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/guard"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/state"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// Default fee schedule, in native base units (18 decimals).
var (
	DefaultSignupFee  = types.Pow10(18)
	DefaultProductFee = types.Pow10(16)
)

// DefaultAccount is the engine's own account: the escrow for attached
// payments and the spender external assets must approve.
const DefaultAccount types.Account = "bazaar"

// DefaultOwner receives the whole stake supply when no founders are set.
const DefaultOwner types.Account = "owner"

const tracerName = "github.com/xraph/bazaar"

// Engine is the marketplace settlement engine.
type Engine struct {
	store   store.Store
	host    asset.Host
	rates   asset.RateLookup
	guard   *guard.Guard[*state.State]
	plugins *plugin.Registry
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	// Configuration
	account        types.Account
	owner          types.Account
	founders       []stake.Holding
	signupFee      types.Amount
	productFee     types.Amount
	reference      asset.Ref
	strictAccounts bool
	sequenceBase   uint64
	skipMigrate    bool

	started atomic.Bool
}

// New creates a new Engine settling against host. If host also implements
// asset.RateLookup it is used for quotes unless WithRates overrides it; if
// it implements guard.Participant it joins every operation's rollback.
func New(s store.Store, host asset.Host, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		host:       host,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		now:        func() time.Time { return time.Now().UTC() },
		account:    DefaultAccount,
		owner:      DefaultOwner,
		signupFee:  DefaultSignupFee,
		productFee: DefaultProductFee,
		reference:  asset.Native,
	}
	if r, ok := host.(asset.RateLookup); ok {
		e.rates = r
	}
	e.guard = guard.New(state.New(0))
	if p, ok := host.(guard.Participant); ok {
		e.guard.AddParticipant(p)
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithRates sets the rate-lookup collaborator.
func WithRates(r asset.RateLookup) Option {
	return func(e *Engine) {
		e.rates = r
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// WithSignupFee sets the native fee charged by Signup.
func WithSignupFee(fee types.Amount) Option {
	return func(e *Engine) {
		e.signupFee = fee
	}
}

// WithProductFee sets the native fee charged when a product is listed.
func WithProductFee(fee types.Amount) Option {
	return func(e *Engine) {
		e.productFee = fee
	}
}

// WithReferenceAsset sets the unit TotalFeesPaid is reported in.
func WithReferenceAsset(ref asset.Ref) Option {
	return func(e *Engine) {
		e.reference = ref
	}
}

// WithAccount sets the engine's own escrow and spender account.
func WithAccount(acct types.Account) Option {
	return func(e *Engine) {
		e.account = acct
	}
}

// WithOwner sets the account that receives the whole stake supply when no
// founders are configured.
func WithOwner(acct types.Account) Option {
	return func(e *Engine) {
		e.owner = acct
	}
}

// WithFounders sets the initial stake allocation. Weights must sum to
// stake.TotalSupply; Start fails otherwise.
func WithFounders(holdings ...stake.Holding) Option {
	return func(e *Engine) {
		e.founders = append([]stake.Holding(nil), holdings...)
	}
}

// WithStrictAccounts requires callers and recipients to be base58-encoded
// 32-byte keys.
func WithStrictAccounts() Option {
	return func(e *Engine) {
		e.strictAccounts = true
	}
}

// WithSequenceBase offsets every id sequence of a fresh store, so the first
// merchant, product, payment and offer ids are base+1.
func WithSequenceBase(base uint64) Option {
	return func(e *Engine) {
		e.sequenceBase = base
	}
}

// WithParticipant adds a resource that commits or rolls back with every
// operation.
func WithParticipant(p guard.Participant) Option {
	return func(e *Engine) {
		e.guard.AddParticipant(p)
	}
}

// WithoutMigrate makes Start load state without migrating the store.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Account returns the engine's own account.
func (e *Engine) Account() types.Account { return e.account }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and loads state. A store that has never been
// written is seeded with the founder allocation.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	st, err := e.load(ctx)
	if err != nil {
		return err
	}
	if err := e.guard.Reset(st); err != nil {
		return fmt.Errorf("bazaar: start: %w", err)
	}
	e.started.Store(true)

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("bazaar started",
		"merchants", st.MerchantCount(),
		"holders", st.HolderCount(),
		"last_product_id", st.Counters.Products.Last,
		"last_payment_id", st.Counters.Payments.Last,
		"reference_asset", e.reference,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	e.started.Store(false)

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

func (e *Engine) load(ctx context.Context) (*state.State, error) {
	counters, err := e.store.LoadCounters(ctx)
	if errors.Is(err, ErrNotFound) {
		return e.seed(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("bazaar: load counters: %w", err)
	}

	snap := state.Snapshot{Counters: *counters}

	merchants, err := e.store.ListMerchants(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar: load merchants: %w", err)
	}
	for _, m := range merchants {
		snap.Merchants = append(snap.Merchants, *m)
	}

	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar: load products: %w", err)
	}
	for _, p := range products {
		snap.Products = append(snap.Products, *p)
	}

	payments, err := e.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar: load payments: %w", err)
	}
	for _, p := range payments {
		snap.Payments = append(snap.Payments, *p)
	}

	if snap.Holdings, err = e.store.ListHoldings(ctx); err != nil {
		return nil, fmt.Errorf("bazaar: load holdings: %w", err)
	}

	offers, err := e.store.ListOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar: load offers: %w", err)
	}
	for _, o := range offers {
		snap.Offers = append(snap.Offers, *o)
	}

	return state.Restore(snap)
}

func (e *Engine) seed(ctx context.Context) (*state.State, error) {
	founders := e.founders
	if len(founders) == 0 {
		founders = []stake.Holding{{Holder: e.owner, Weight: stake.TotalSupply}}
	}

	var total uint64
	for _, f := range founders {
		if f.Holder.IsZero() {
			return nil, ValidationError{Field: "founders", Message: "holder is empty"}
		}
		total += f.Weight
	}
	if total != stake.TotalSupply {
		return nil, ValidationError{
			Field:   "founders",
			Message: fmt.Sprintf("weights sum to %d, want %d", total, stake.TotalSupply),
		}
	}

	st := state.New(e.sequenceBase)
	for _, f := range founders {
		st.SetWeight(f.Holder, st.Weight(f.Holder)+f.Weight)
	}
	st.Changes().Counters = true

	if err := e.flush(ctx, st); err != nil {
		return nil, fmt.Errorf("bazaar: seed: %w", err)
	}
	return st.Clone(), nil
}

// flush writes the records st touched to the store in one transaction.
func (e *Engine) flush(ctx context.Context, st *state.State) error {
	ch := st.Changes()
	if ch.Empty() {
		return nil
	}
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return writeChanges(ctx, tx, st, ch)
	})
	if err != nil && !errors.Is(err, ErrTransactionFailed) {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return err
}

func writeChanges(ctx context.Context, s store.Store, st *state.State, ch *state.Changes) error {
	for _, mid := range ch.Merchants {
		m, _ := st.Merchant(mid)
		if err := s.CreateMerchant(ctx, &m); err != nil {
			return fmt.Errorf("%w: merchant %d: %w", ErrTransactionFailed, mid, err)
		}
	}

	for _, pid := range sortedKeys(ch.Products) {
		if !ch.Products[pid] {
			if err := s.DeleteProduct(ctx, pid); err != nil {
				return fmt.Errorf("%w: delete product %d: %w", ErrTransactionFailed, pid, err)
			}
			continue
		}
		p, _ := st.Product(pid)
		if err := s.UpsertProduct(ctx, &p); err != nil {
			return fmt.Errorf("%w: product %d: %w", ErrTransactionFailed, pid, err)
		}
	}

	for _, pid := range ch.Payments {
		p, _ := st.Payment(pid)
		if err := s.CreatePayment(ctx, &p); err != nil {
			return fmt.Errorf("%w: payment %d: %w", ErrTransactionFailed, pid, err)
		}
	}

	holders := make([]types.Account, 0, len(ch.Holders))
	for h := range ch.Holders {
		holders = append(holders, h)
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
	for _, h := range holders {
		if err := s.SetHolding(ctx, stake.Holding{Holder: h, Weight: st.Weight(h)}); err != nil {
			return fmt.Errorf("%w: holding %s: %w", ErrTransactionFailed, h, err)
		}
	}

	for _, oid := range sortedKeys(ch.Offers) {
		if !ch.Offers[oid] {
			if err := s.DeleteOffer(ctx, oid); err != nil {
				return fmt.Errorf("%w: delete offer %d: %w", ErrTransactionFailed, oid, err)
			}
			continue
		}
		o, _ := st.Offer(oid)
		if err := s.CreateOffer(ctx, &o); err != nil {
			return fmt.Errorf("%w: offer %d: %w", ErrTransactionFailed, oid, err)
		}
	}

	if ch.Counters {
		if err := s.SaveCounters(ctx, st.Counters); err != nil {
			return fmt.Errorf("%w: counters: %w", ErrTransactionFailed, err)
		}
	}
	return nil
}

func sortedKeys(m map[uint64]bool) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ──────────────────────────────────────────────────
// Read access
// ──────────────────────────────────────────────────

// snapshot returns the committed state for a read-only query.
func (e *Engine) snapshot() (*state.State, error) {
	if !e.started.Load() {
		return nil, ErrNotStarted
	}
	return e.guard.Snapshot(), nil
}
