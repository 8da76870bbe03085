package id_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/xraph/bazaar/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ReceiptID", id.NewReceiptID, "rcpt_"},
		{"AuditID", id.NewAuditID, "aud_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"ReceiptID", id.NewReceiptID, id.ParseReceiptID},
		{"AuditID", id.NewAuditID, id.ParseAuditID},
		{"Any", id.NewReceiptID, id.Parse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseReceiptID(id.NewAuditID().String()); !errors.Is(err, id.ErrPrefix) {
		t.Errorf("ParseReceiptID(aud_) = %v, want ErrPrefix", err)
	}
	if _, err := id.ParseAuditID(id.NewReceiptID().String()); err == nil {
		t.Error("ParseAuditID accepted a rcpt_ id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewReceiptID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewReceiptID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewReceiptID()
	b := id.NewReceiptID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewReceiptID() calls returned the same ID: %q", a.String())
	}
}

func TestSequence(t *testing.T) {
	seq := id.NewSequence(1000)
	if seq.Count() != 0 {
		t.Fatalf("fresh sequence should be empty, got %d", seq.Count())
	}

	first := seq.Next()
	second := seq.Next()
	if first != 1001 || second != 1002 {
		t.Errorf("expected 1001, 1002; got %d, %d", first, second)
	}
	if seq.Count() != 2 {
		t.Errorf("expected count 2, got %d", seq.Count())
	}
	if !seq.Contains(1001) || seq.Contains(1000) || seq.Contains(1003) {
		t.Error("Contains reported the wrong range")
	}
	if seq.At(1) != 1002 {
		t.Errorf("At(1) = %d, want 1002", seq.At(1))
	}

	// A copied sequence is a snapshot; advancing it leaves the original alone.
	snap := seq
	snap.Next()
	if seq.Last != 1002 {
		t.Errorf("original advanced to %d", seq.Last)
	}
}
