package money_test

import (
	"testing"

	"flow/internal/shared/money"

	"github.com/shopspring/decimal"
)

func TestFromStringDefaultsCurrency(t *testing.T) {
	amount, err := money.FromString("1500.50", "")
	if err != nil {
		t.Fatalf("FromString returned error: %v", err)
	}
	if amount.Currency != money.DefaultCurrency {
		t.Fatalf("expected default currency, got %s", amount.Currency)
	}
	if amount.StringAmount() != "1500.50" {
		t.Fatalf("unexpected amount %s", amount.StringAmount())
	}
}

func TestFromStringRejectsGarbage(t *testing.T) {
	if _, err := money.FromString("ten naira", "NGN"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	ngn, _ := money.FromString("100", "NGN")
	usd, _ := money.FromString("100", "USD")
	if _, err := ngn.Add(usd); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}

func TestSplitSumsExactly(t *testing.T) {
	total, _ := money.FromString("1000.00", "NGN")
	shares, err := total.Split(3)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	sum := money.Zero("NGN")
	for _, share := range shares {
		var addErr error
		sum, addErr = sum.Add(share)
		if addErr != nil {
			t.Fatalf("Add returned error: %v", addErr)
		}
	}
	if !sum.Equal(total) {
		t.Fatalf("shares sum to %s, want %s", sum.StringAmount(), total.StringAmount())
	}
	if shares[0].StringAmount() != "333.34" {
		t.Fatalf("remainder should land on the first share, got %s", shares[0].StringAmount())
	}
	if shares[2].StringAmount() != "333.33" {
		t.Fatalf("unexpected last share %s", shares[2].StringAmount())
	}
}

func TestSplitEvenDivision(t *testing.T) {
	total, _ := money.FromString("1000.00", "NGN")
	shares, err := total.Split(10)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	for i, share := range shares {
		if share.StringAmount() != "100.00" {
			t.Fatalf("share %d is %s, want 100.00", i, share.StringAmount())
		}
	}
}

func TestSplitRejectsNonPositiveCount(t *testing.T) {
	total, _ := money.FromString("100", "NGN")
	if _, err := total.Split(0); err == nil {
		t.Fatal("expected error for zero count")
	}
}

func TestMinorUnits(t *testing.T) {
	amount := money.Money{Amount: decimal.RequireFromString("250.75"), Currency: "NGN"}
	if got := amount.MinorUnits(); got != 25075 {
		t.Fatalf("MinorUnits = %d, want 25075", got)
	}
}
