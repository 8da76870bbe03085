package payment

import (
	"testing"

	"github.com/xraph/bazaar/types"
)

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name                 string
		total                uint64
		percent              uint8
		fee, commission, net string
	}{
		{"commission example", 1000, 10, "1", "100", "899"},
		{"no commission", 1000, 0, "1", "0", "999"},
		{"fee rounds to zero", 999, 0, "0", "0", "999"},
		{"commission floors", 333, 33, "0", "109", "224"},
		{"max commission", 100000, 99, "100", "99000", "900"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeSplit(types.NewAmount(tt.total), tt.percent)
			if s.Fee.String() != tt.fee {
				t.Errorf("fee: got %s, want %s", s.Fee, tt.fee)
			}
			if s.Commission.String() != tt.commission {
				t.Errorf("commission: got %s, want %s", s.Commission, tt.commission)
			}
			if s.MerchantNet.String() != tt.net {
				t.Errorf("net: got %s, want %s", s.MerchantNet, tt.net)
			}
			if sum := types.Sum(s.Fee, s.Commission, s.MerchantNet); !sum.Equal(s.Total) {
				t.Errorf("split does not add up: %s != %s", sum, s.Total)
			}
		})
	}
}

func TestSelectView(t *testing.T) {
	tests := []struct {
		merchant uint64
		buyer    types.Account
		want     View
	}{
		{0, "", ViewAll},
		{7, "", ViewMerchant},
		{0, "bob", ViewBuyer},
		{7, "bob", ViewBuyerMerchant},
	}
	for _, tt := range tests {
		if got := SelectView(tt.merchant, tt.buyer); got != tt.want {
			t.Errorf("SelectView(%d, %q) = %d, want %d", tt.merchant, tt.buyer, got, tt.want)
		}
	}
}
