package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected string
	}{
		{"Add", func() Amount { return NewAmount(100).Add(NewAmount(200)) }, "300"},
		{"MulInt", func() Amount { return NewAmount(250).MulInt(4) }, "1000"},
		{"DivFloor exact", func() Amount { return NewAmount(900).DivFloor(NewAmount(3)) }, "300"},
		{"DivFloor truncates", func() Amount { return NewAmount(999).DivFloor(NewAmount(1000)) }, "0"},
		{"MulDivFloor", func() Amount { return NewAmount(1000).MulDivFloor(10, 100) }, "100"},
		{"MulDivFloor dust", func() Amount { return NewAmount(7).MulDivFloor(1, 30) }, "0"},
		{"Sum", func() Amount { return Sum(NewAmount(1), NewAmount(2), NewAmount(3)) }, "6"},
		{"Pow10", func() Amount { return Pow10(18) }, "1000000000000000000"},
		{"Beyond int64", func() Amount { return Pow10(18).MulInt(100) }, "100000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op().String(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAmountSubUnderflow(t *testing.T) {
	got, err := NewAmount(5).Sub(NewAmount(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "2" {
		t.Errorf("got %s, want 2", got)
	}

	if _, err := NewAmount(3).Sub(NewAmount(5)); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestAmountDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for division by zero")
		}
	}()

	_ = NewAmount(100).DivFloor(Zero())
}

func TestAmountComparison(t *testing.T) {
	a, b := NewAmount(10), NewAmount(20)

	if !a.LessThan(b) || b.LessThan(a) {
		t.Error("LessThan failed")
	}
	if !b.GreaterThan(a) {
		t.Error("GreaterThan failed")
	}
	if a.Cmp(NewAmount(10)) != 0 || !a.Equal(NewAmount(10)) {
		t.Error("Equal failed")
	}
	if !Zero().IsZero() || Zero().IsPositive() {
		t.Error("zero checks failed")
	}
	var unset Amount
	if !unset.IsZero() || unset.String() != "0" {
		t.Errorf("zero value should be 0, got %s", unset)
	}
	if a.Min(b).String() != "10" {
		t.Error("Min failed")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{"123456789012345678901234567890", "123456789012345678901234567890", false},
		{"-1", "", true},
		{"1.5", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountFormat(t *testing.T) {
	a := MustParseAmount("1500000000000000000")
	if got := a.Format(18); got != "1.5" {
		t.Errorf("got %s, want 1.5", got)
	}
	if got := NewAmount(4900).Format(2); got != "49" {
		t.Errorf("got %s, want 49", got)
	}
}

func TestAmountJSON(t *testing.T) {
	type wrapper struct {
		Price Amount `json:"price"`
	}

	data, err := json.Marshal(wrapper{Price: MustParseAmount("100000000000000000000")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"price":"100000000000000000000"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded wrapper
	if err := json.Unmarshal([]byte(`{"price":42}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Price.String() != "42" {
		t.Errorf("got %s, want 42", decoded.Price)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan("77"); err != nil || a.String() != "77" {
		t.Errorf("scan string: %v %s", err, a)
	}
	if err := a.Scan([]byte("78")); err != nil || a.String() != "78" {
		t.Errorf("scan bytes: %v %s", err, a)
	}
	if err := a.Scan(int64(79)); err != nil || a.String() != "79" {
		t.Errorf("scan int64: %v %s", err, a)
	}
	if err := a.Scan(3.5); err == nil {
		t.Error("expected error scanning float")
	}
	v, err := NewAmount(80).Value()
	if err != nil || v != "80" {
		t.Errorf("value: %v %v", err, v)
	}
}
