package bazaar_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/host/memory"
	storemem "github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// In-process host for demo, embed your own in production
		host := memory.New()

		engine := bazaar.New(storemem.New(), host,
			bazaar.WithLogger(slog.Default()),
			bazaar.WithOwner("treasury"),
		)

		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		host.Mint("alice", engine.SignupFee().Add(engine.ProductFee()))
		host.Mint("bob", bazaar.NewAmount(5000))

		// Become a merchant, attaching the signup fee
		merchantID, err := engine.Signup(bazaar.As(ctx, "alice", engine.SignupFee()))
		if err != nil {
			t.Fatal(err)
		}

		// List a product priced in the native asset
		productID, err := engine.AddProduct(bazaar.As(ctx, "alice", engine.ProductFee()), bazaar.ProductInput{
			Asset: bazaar.Native,
			Price: bazaar.NewAmount(1000),
		})
		if err != nil {
			t.Fatal(err)
		}

		// Buy it, overpaying; the excess is refunded
		rec, err := engine.PayProduct(bazaar.As(ctx, "bob", bazaar.NewAmount(1500)), productID, 1)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("merchant %d sold product %d: net %s, fee %s, receipt %s\n",
			merchantID, productID, rec.MerchantNet, rec.Fee, rec.Receipt)

		// Payments are paged newest-first
		res, err := engine.GetPayments(ctx, 1, 10, merchantID, "")
		if err != nil {
			t.Fatal(err)
		}
		if res.Total != 1 {
			t.Fatalf("expected 1 payment, got %d", res.Total)
		}
	})

	t.Run("StakeMarketExample", func(t *testing.T) {
		host := memory.New()
		engine := bazaar.New(storemem.New(), host, bazaar.WithOwner("treasury"))

		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		// The owner offers two of their 30 units
		offers, err := engine.OfferStake(bazaar.As(ctx, "treasury", bazaar.Zero()), 2, bazaar.NewAmount(500))
		if err != nil {
			t.Fatal(err)
		}

		host.Mint("carol", bazaar.NewAmount(500))
		if err := engine.TakeStake(bazaar.As(ctx, "carol", bazaar.NewAmount(500)), offers[0]); err != nil {
			t.Fatal(err)
		}

		weight, err := engine.StakesCount(ctx, "carol")
		if err != nil {
			t.Fatal(err)
		}
		if weight != 1 {
			t.Fatalf("expected weight 1, got %d", weight)
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		// Constructors
		_ = bazaar.NewAmount(1000)
		_ = types.MustParseAmount("1000000000000000000") // 1e18
		_ = bazaar.Zero()

		// Arithmetic
		a1 := bazaar.NewAmount(100)
		a2 := bazaar.NewAmount(200)
		_ = a1.Add(a2)             // 300
		_ = a1.MulInt(3)           // 300
		_ = a1.MulDivFloor(10, 30) // 33
		if _, err := a1.Sub(a2); err == nil {
			t.Fatal("expected underflow")
		}

		// Formatting
		_ = a1.String()  // "100"
		_ = a1.Format(2) // "1"
	})
}
