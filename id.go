package bazaar

import "github.com/xraph/bazaar/id"

// ID is the globally unique reference type used for receipts.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
