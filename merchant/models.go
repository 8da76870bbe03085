// Package merchant defines merchant identities.
package merchant

import (
	"time"

	"github.com/xraph/bazaar/types"
)

// Merchant is a caller that paid the signup fee. Ids are assigned once,
// in signup order, and never reassigned or revoked.
type Merchant struct {
	ID         uint64        `json:"id"`
	Account    types.Account `json:"account"`
	SignedUpAt time.Time     `json:"signed_up_at"`
}
