package bazaar

import (
	"context"

	"github.com/xraph/bazaar/types"
)

type contextKey int

const (
	callerKey contextKey = iota
	valueKey
)

// WithCaller returns a context identifying the account performing an
// operation.
func WithCaller(ctx context.Context, caller types.Account) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (types.Account, bool) {
	caller, ok := ctx.Value(callerKey).(types.Account)
	return caller, ok && !caller.IsZero()
}

// WithValue attaches a native payment to an operation. Whatever the
// operation does not consume is refunded to the caller.
func WithValue(ctx context.Context, amount types.Amount) context.Context {
	return context.WithValue(ctx, valueKey, amount)
}

// ValueFrom returns the attached native payment, zero when none.
func ValueFrom(ctx context.Context) types.Amount {
	v, _ := ctx.Value(valueKey).(types.Amount)
	return v
}

// As is shorthand for a caller context carrying an attached payment.
func As(ctx context.Context, caller types.Account, value types.Amount) context.Context {
	return WithValue(WithCaller(ctx, caller), value)
}
