// Package bazaar provides a marketplace settlement engine for Go applications.
//
// Bazaar is designed as a library, not a service. Merchants list products
// priced in a settlement asset, buyers pay for them, and every purchase is
// split between an optional commission recipient, the merchant and the
// holders of 30 stake units, who trade those units on a built-in market.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/bazaar"
//	    "github.com/xraph/bazaar/host/memory"
//	    storemem "github.com/xraph/bazaar/store/memory"
//	)
//
//	host := memory.New()
//	engine := bazaar.New(storemem.New(), host,
//	    bazaar.WithOwner("treasury"),
//	)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Callers and attached payments
//
// Operations act on behalf of the account stored in the context. Native
// value sent along with an operation is attached the same way, and any
// part of it the operation does not consume is refunded:
//
//	host.Mint("alice", engine.SignupFee())
//	ctx = bazaar.As(ctx, "alice", engine.SignupFee())
//	merchantID, err := engine.Signup(ctx)
//
// # Atomicity
//
// Mutating operations run one at a time. Each works on a private copy of
// the engine state and commits it, together with every host transfer and
// store write, only when it returns without error. A second mutating call
// made while one is in flight, including a call made back into the engine
// by an external asset during a transfer, fails with ErrConcurrency.
// Read-only queries never wait and always see the last committed state.
//
// # Arithmetic
//
// Amounts are exact non-negative integers in the asset's base unit. A
// purchase of total T with commission percentage c pays
// fee = floor(T/1000), commission = floor(T*c/100) and the rest to the
// merchant. Fees are divided as floor(fee*weight/30) per holder; the
// remainder is never reallocated.
package bazaar
