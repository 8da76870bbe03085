// Package memory provides an in-process asset.Host: a native bank, any
// number of fungible tokens and a rate table.
//
// The host takes part in the engine's guarded operations. Begin snapshots
// every balance and allowance, Rollback restores the snapshot and Commit
// drops it, so value moved by a failed operation is returned.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/types"
)

// Errors returned by the in-memory host.
var (
	ErrInsufficientBalance   = errors.New("memory: insufficient balance")
	ErrInsufficientAllowance = errors.New("memory: insufficient allowance")
	ErrNoRate                = errors.New("memory: no rate")
)

type allowanceKey struct {
	owner, spender types.Account
}

type ratePair struct {
	src, dst asset.Ref
}

type ledger struct {
	native     map[types.Account]types.Amount
	balances   map[asset.Ref]map[types.Account]types.Amount
	allowances map[asset.Ref]map[allowanceKey]types.Amount
}

func (l ledger) clone() ledger {
	out := ledger{
		native:     maps.Clone(l.native),
		balances:   make(map[asset.Ref]map[types.Account]types.Amount, len(l.balances)),
		allowances: make(map[asset.Ref]map[allowanceKey]types.Amount, len(l.allowances)),
	}
	for ref, b := range l.balances {
		out.balances[ref] = maps.Clone(b)
	}
	for ref, a := range l.allowances {
		out.allowances[ref] = maps.Clone(a)
	}
	return out
}

// Host is an in-memory asset.Host and asset.RateLookup.
type Host struct {
	mu sync.Mutex

	ledger ledger
	saved  *ledger

	assets map[asset.Ref]asset.Asset
	rates  map[ratePair]types.Amount
}

// New returns an empty Host.
func New() *Host {
	return &Host{
		ledger: ledger{
			native:     make(map[types.Account]types.Amount),
			balances:   make(map[asset.Ref]map[types.Account]types.Amount),
			allowances: make(map[asset.Ref]map[allowanceKey]types.Amount),
		},
		assets: make(map[asset.Ref]asset.Asset),
		rates:  make(map[ratePair]types.Amount),
	}
}

// Native returns the native bank.
func (h *Host) Native() asset.NativeBank { return nativeBank{h} }

// Lookup returns the asset registered at ref.
func (h *Host) Lookup(ref asset.Ref) (asset.Asset, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.assets[ref]
	return a, ok
}

// Register makes a at ref executable. Use it to install assets with custom
// behaviour; AddToken covers the plain case.
func (h *Host) Register(ref asset.Ref, a asset.Asset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assets[ref] = a
}

// Mint credits native value to acct.
func (h *Host) Mint(acct types.Account, amount types.Amount) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.native[acct] = h.ledger.native[acct].Add(amount)
}

// NativeBalance returns acct's native balance.
func (h *Host) NativeBalance(acct types.Account) types.Amount {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.native[acct]
}

// SetRate quotes src in dst units, scaled by asset.RateScale.
func (h *Host) SetRate(src, dst asset.Ref, rate types.Amount) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rates[ratePair{src, dst}] = rate
}

// GetRate implements asset.RateLookup. An asset always converts to itself
// at par.
func (h *Host) GetRate(_ context.Context, src, dst asset.Ref, _ bool) (types.Amount, error) {
	if src == dst {
		return asset.RateScale, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	rate, ok := h.rates[ratePair{src, dst}]
	if !ok {
		return types.Zero(), fmt.Errorf("%w: %s/%s", ErrNoRate, src, dst)
	}
	return rate, nil
}

// Begin implements guard.Participant.
func (h *Host) Begin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	saved := h.ledger.clone()
	h.saved = &saved
}

// Commit implements guard.Participant.
func (h *Host) Commit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = nil
}

// Rollback implements guard.Participant.
func (h *Host) Rollback() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saved != nil {
		h.ledger = *h.saved
		h.saved = nil
	}
}

func (h *Host) move(balances map[types.Account]types.Amount, from, to types.Account, amount types.Amount) error {
	left, err := balances[from].Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, balances[from], amount)
	}
	balances[from] = left
	balances[to] = balances[to].Add(amount)
	return nil
}

type nativeBank struct{ h *Host }

func (b nativeBank) BalanceOf(_ context.Context, owner types.Account) (types.Amount, error) {
	return b.h.NativeBalance(owner), nil
}

func (b nativeBank) Transfer(_ context.Context, from, to types.Account, amount types.Amount) error {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	return b.h.move(b.h.ledger.native, from, to, amount)
}
