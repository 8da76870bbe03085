// Package id defines the identifier types used by bazaar.
//
// Records inside one deployment use dense numeric ids drawn from a
// Sequence. References that must stay unique across deployments, such as
// payment receipts, use a TypeID: a K-sortable (UUIDv7-based), URL-safe
// string in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the kind of reference encoded in a TypeID.
type Prefix string

const (
	PrefixReceipt Prefix = "rcpt" // payment receipt
	PrefixAudit   Prefix = "aud"  // audit event
)

// ErrPrefix is returned when a parsed id carries an unexpected prefix.
var ErrPrefix = errors.New("id: unexpected prefix")

// ID is a prefix-qualified TypeID. The zero value is Nil and encodes as an
// empty string or SQL NULL.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid typeid.TypeID
	ok  bool
}

// Nil is the zero ID.
var Nil ID

// ReceiptID identifies a payment receipt.
type ReceiptID = ID

// New generates an ID under prefix. Prefixes are compile-time constants, so
// an invalid one panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{tid: tid, ok: true}
}

// NewReceiptID generates a payment receipt id.
func NewReceiptID() ReceiptID { return New(PrefixReceipt) }

// NewAuditID generates an audit event id.
func NewAuditID() ID { return New(PrefixAudit) }

// Parse decodes any TypeID string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, errors.New("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, ok: true}, nil
}

// ParseWithPrefix decodes s and requires the given prefix.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	v, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := v.Prefix(); got != want {
		return Nil, fmt.Errorf("%w: want %q, got %q", ErrPrefix, want, got)
	}
	return v, nil
}

// ParseReceiptID decodes a "rcpt_" id.
func ParseReceiptID(s string) (ReceiptID, error) { return ParseWithPrefix(s, PrefixReceipt) }

// ParseAuditID decodes an "aud_" id.
func ParseAuditID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAudit) }

func (i ID) String() string {
	if !i.ok {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the prefix of i, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.ok {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.ok }

func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *ID) UnmarshalText(data []byte) error {
	return i.set(string(data))
}

// Value stores Nil as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.ok {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.tid.String(), nil
}

func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.set(v)
	case []byte:
		return i.set(string(v))
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}

func (i *ID) set(s string) error {
	if s == "" {
		*i = Nil
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*i = v
	return nil
}
