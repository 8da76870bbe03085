package state

import "github.com/xraph/bazaar/types"

// Changes records which persistent records a working copy touched, so the
// store can be brought in line with a commit without rewriting everything.
type Changes struct {
	Merchants []uint64
	Payments  []uint64

	// Products and Offers map an id to true for an upsert and false for a
	// delete. The last operation on an id wins.
	Products map[uint64]bool
	Offers   map[uint64]bool

	Holders map[types.Account]struct{}

	Counters bool
}

func newChanges() *Changes {
	return &Changes{
		Products: make(map[uint64]bool),
		Offers:   make(map[uint64]bool),
		Holders:  make(map[types.Account]struct{}),
	}
}

// Empty reports whether nothing was touched.
func (c *Changes) Empty() bool {
	return len(c.Merchants) == 0 &&
		len(c.Payments) == 0 &&
		len(c.Products) == 0 &&
		len(c.Offers) == 0 &&
		len(c.Holders) == 0 &&
		!c.Counters
}
