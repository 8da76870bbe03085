package memory

import (
	"context"
	"fmt"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/types"
)

// Token is a fungible asset kept in the host ledger.
type Token struct {
	h        *Host
	ref      asset.Ref
	name     string
	symbol   string
	decimals uint8
}

var _ asset.Asset = (*Token)(nil)

// AddToken creates and registers a token at ref.
func (h *Host) AddToken(ref asset.Ref, name, symbol string, decimals uint8) *Token {
	t := &Token{h: h, ref: ref, name: name, symbol: symbol, decimals: decimals}
	h.mu.Lock()
	h.ledger.balances[ref] = make(map[types.Account]types.Amount)
	h.ledger.allowances[ref] = make(map[allowanceKey]types.Amount)
	h.assets[ref] = t
	h.mu.Unlock()
	return t
}

// Ref returns the token's reference.
func (t *Token) Ref() asset.Ref { return t.ref }

// Mint credits amount to acct.
func (t *Token) Mint(acct types.Account, amount types.Amount) {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	b := t.h.ledger.balances[t.ref]
	b[acct] = b[acct].Add(amount)
}

// Approve sets the amount spender may move out of owner's balance.
func (t *Token) Approve(owner, spender types.Account, amount types.Amount) {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	t.h.ledger.allowances[t.ref][allowanceKey{owner, spender}] = amount
}

// Transfer moves amount directly between accounts.
func (t *Token) Transfer(_ context.Context, from, to types.Account, amount types.Amount) error {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	return t.h.move(t.h.ledger.balances[t.ref], from, to, amount)
}

// TransferFrom implements asset.Asset.
func (t *Token) TransferFrom(_ context.Context, spender, payer, recipient types.Account, amount types.Amount) error {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()

	allowances := t.h.ledger.allowances[t.ref]
	key := allowanceKey{payer, spender}
	left, err := allowances[key].Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s approved %s for %s, needs %s",
			ErrInsufficientAllowance, payer, allowances[key], spender, amount)
	}
	if err := t.h.move(t.h.ledger.balances[t.ref], payer, recipient, amount); err != nil {
		return err
	}
	allowances[key] = left
	return nil
}

// Allowance implements asset.Asset.
func (t *Token) Allowance(_ context.Context, owner, spender types.Account) (types.Amount, error) {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	return t.h.ledger.allowances[t.ref][allowanceKey{owner, spender}], nil
}

// BalanceOf implements asset.Asset.
func (t *Token) BalanceOf(_ context.Context, owner types.Account) (types.Amount, error) {
	t.h.mu.Lock()
	defer t.h.mu.Unlock()
	return t.h.ledger.balances[t.ref][owner], nil
}

// Name implements asset.Asset.
func (t *Token) Name(context.Context) (string, error) { return t.name, nil }

// Symbol implements asset.Asset.
func (t *Token) Symbol(context.Context) (string, error) { return t.symbol, nil }

// Decimals implements asset.Asset.
func (t *Token) Decimals(context.Context) (uint8, error) { return t.decimals, nil }
