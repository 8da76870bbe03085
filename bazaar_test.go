package bazaar_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	hostmem "github.com/xraph/bazaar/host/memory"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/store"
	memstore "github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

const (
	signupFee  = 1000
	productFee = 100
)

const (
	owner  bazaar.Account = "owner"
	alice  bazaar.Account = "alice"
	bob    bazaar.Account = "bob"
	carol  bazaar.Account = "carol"
	agent  bazaar.Account = "agent"
	escrow bazaar.Account = bazaar.DefaultAccount
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	host   *hostmem.Host
	store  store.Store
	engine *bazaar.Engine
	events *recorder
}

type fixtureOption func(*fixture)

func withStore(s store.Store) fixtureOption {
	return func(f *fixture) { f.store = s }
}

func withHost(h *hostmem.Host) fixtureOption {
	return func(f *fixture) { f.host = h }
}

func newFixture(t *testing.T, fopts []fixtureOption, opts ...bazaar.Option) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		host:   hostmem.New(),
		store:  memstore.New(),
		events: &recorder{},
	}
	for _, o := range fopts {
		o(f)
	}

	base := []bazaar.Option{
		bazaar.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		bazaar.WithSignupFee(types.NewAmount(signupFee)),
		bazaar.WithProductFee(types.NewAmount(productFee)),
		bazaar.WithPlugin(f.events),
	}
	f.engine = bazaar.New(f.store, f.host, append(base, opts...)...)
	require.NoError(t, f.engine.Start(f.ctx))
	t.Cleanup(func() { _ = f.engine.Stop() })
	return f
}

func (f *fixture) as(caller bazaar.Account, value uint64) context.Context {
	return bazaar.As(f.ctx, caller, types.NewAmount(value))
}

func (f *fixture) fund(acct bazaar.Account, amount uint64) {
	f.host.Mint(acct, types.NewAmount(amount))
}

func (f *fixture) balance(acct bazaar.Account) string {
	return f.host.NativeBalance(acct).String()
}

// signup funds acct with exactly the signup fee and registers it.
func (f *fixture) signup(acct bazaar.Account) uint64 {
	f.t.Helper()
	f.fund(acct, signupFee)
	mid, err := f.engine.Signup(f.as(acct, signupFee))
	require.NoError(f.t, err)
	return mid
}

// list funds acct with the product fee and lists in.
func (f *fixture) list(acct bazaar.Account, in catalog.Input) uint64 {
	f.t.Helper()
	f.fund(acct, productFee)
	pid, err := f.engine.AddProduct(f.as(acct, productFee), in)
	require.NoError(f.t, err)
	return pid
}

func nativeInput(price uint64) catalog.Input {
	return catalog.Input{Asset: asset.Native, Price: types.NewAmount(price)}
}

// recorder captures plugin hooks.
type recorder struct {
	mu        sync.Mutex
	purchases []purchase
	degraded  []asset.Ref
	failures  []string
	merchants []merchant.Merchant
}

type purchase struct {
	product, quantity uint64
	buyer             types.Account
}

func (r *recorder) Name() string { return "test-recorder" }

func (r *recorder) OnPurchaseCompleted(_ context.Context, productID, quantity uint64, buyer types.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases = append(r.purchases, purchase{productID, quantity, buyer})
	return nil
}

func (r *recorder) OnFeeConversionDegraded(_ context.Context, ref asset.Ref, _ types.Amount, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = append(r.degraded, ref)
	return nil
}

func (r *recorder) OnOperationFailed(_ context.Context, op string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, op)
	return nil
}

func (r *recorder) OnMerchantSignedUp(_ context.Context, m merchant.Merchant, _ types.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants = append(r.merchants, m)
	return nil
}

func (r *recorder) purchaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.purchases)
}
