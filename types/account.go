package types

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AccountKeySize is the decoded length of a canonical account key.
const AccountKeySize = 32

// ErrInvalidAccount is returned by ParseAccount for malformed identities.
var ErrInvalidAccount = errors.New("account: invalid")

// Account identifies a caller: a merchant, buyer, stakeholder or
// commission recipient. The engine treats it as an opaque string; hosts
// that use key-based identities encode them as base58.
type Account string

// IsZero reports whether the account is empty.
func (a Account) IsZero() bool { return a == "" }

// String implements fmt.Stringer.
func (a Account) String() string { return string(a) }

// ParseAccount validates s as a base58-encoded 32-byte key.
func ParseAccount(s string) (Account, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccount)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAccount, s, err)
	}
	if len(raw) != AccountKeySize {
		return "", fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAccount, s, len(raw), AccountKeySize)
	}
	return Account(s), nil
}

// AccountFromKey encodes a raw key as an Account.
func AccountFromKey(key [AccountKeySize]byte) Account {
	return Account(base58.Encode(key[:]))
}
