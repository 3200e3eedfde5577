package pricing

import (
	"testing"
)

func intPtr(v int) *int { return &v }

func tieredSnapshot() *Snapshot {
	return &Snapshot{
		Currency:          "USD",
		IsDepositRequired: false,
		DepositPercent:    "0",
		Tiers: []Tier{
			{MinGuests: 1, MaxGuests: intPtr(2), PricePerGuest: "150.00"},
			{MinGuests: 3, MaxGuests: intPtr(6), PricePerGuest: "140.00"},
			{MinGuests: 7, MaxGuests: nil, PricePerGuest: "130.00"},
		},
	}
}

func TestSelectPricePerGuestCents_TierMatching(t *testing.T) {
	snapshot := tieredSnapshot()

	tests := []struct {
		name      string
		partySize int
		want      int
	}{
		{"single guest hits first tier", 1, 15000},
		{"top of first tier", 2, 15000},
		{"middle tier", 4, 14000},
		{"open ended tier", 8, 13000},
		{"beyond all bounded tiers", 20, 13000},
		{"party size below one clamps to one", 0, 15000},
		{"negative party size clamps to one", -5, 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectPricePerGuestCents(snapshot, tt.partySize, nil)
			if got == nil {
				t.Fatalf("expected %d cents, got nil", tt.want)
			}
			if *got != tt.want {
				t.Errorf("party size %d: expected %d cents, got %d", tt.partySize, tt.want, *got)
			}
		})
	}
}

func TestSelectPricePerGuestCents_UnsortedTiersNormalized(t *testing.T) {
	snapshot := &Snapshot{
		Tiers: []Tier{
			{MinGuests: 7, MaxGuests: nil, PricePerGuest: "130.00"},
			{MinGuests: 1, MaxGuests: intPtr(2), PricePerGuest: "150.00"},
			{MinGuests: 3, MaxGuests: intPtr(6), PricePerGuest: "140.00"},
		},
	}

	got := SelectPricePerGuestCents(snapshot, 1, nil)
	if got == nil || *got != 15000 {
		t.Errorf("expected 15000 after sorting, got %v", got)
	}

	// Input must not be reordered
	if snapshot.Tiers[0].MinGuests != 7 {
		t.Errorf("input tiers were mutated: first tier min_guests = %d", snapshot.Tiers[0].MinGuests)
	}
}

func TestSelectPricePerGuestCents_GapFallsBackToLastTier(t *testing.T) {
	snapshot := &Snapshot{
		Tiers: []Tier{
			{MinGuests: 1, MaxGuests: intPtr(2), PricePerGuest: "150.00"},
			{MinGuests: 5, MaxGuests: nil, PricePerGuest: "120.00"},
		},
	}

	// Party size 3 falls in the gap between tiers
	got := SelectPricePerGuestCents(snapshot, 3, nil)
	if got == nil || *got != 12000 {
		t.Errorf("expected gap to resolve to last tier (12000), got %v", got)
	}
}

func TestSelectPricePerGuestCents_CentsPreferredOverDecimalString(t *testing.T) {
	snapshot := &Snapshot{
		Tiers: []Tier{
			{MinGuests: 1, MaxGuests: nil, PricePerGuest: "999.99", PricePerGuestCents: intPtr(15000)},
		},
	}

	got := SelectPricePerGuestCents(snapshot, 2, nil)
	if got == nil || *got != 15000 {
		t.Errorf("expected stored cents 15000 to win, got %v", got)
	}
}

func TestSelectPricePerGuestCents_DecimalStringRounding(t *testing.T) {
	snapshot := &Snapshot{
		Tiers: []Tier{
			{MinGuests: 1, MaxGuests: nil, PricePerGuest: "149.995"},
		},
	}

	got := SelectPricePerGuestCents(snapshot, 1, nil)
	if got == nil || *got != 15000 {
		t.Errorf("expected 149.995 to round to 15000, got %v", got)
	}
}

func TestSelectPricePerGuestCents_Fallbacks(t *testing.T) {
	fallback := intPtr(12000)

	if got := SelectPricePerGuestCents(nil, 4, fallback); got == nil || *got != 12000 {
		t.Errorf("nil snapshot: expected fallback 12000, got %v", got)
	}

	if got := SelectPricePerGuestCents(&Snapshot{}, 4, fallback); got == nil || *got != 12000 {
		t.Errorf("empty tiers: expected fallback 12000, got %v", got)
	}

	unparseable := &Snapshot{
		Tiers: []Tier{{MinGuests: 1, PricePerGuest: "not-a-number"}},
	}
	if got := SelectPricePerGuestCents(unparseable, 1, fallback); got == nil || *got != 12000 {
		t.Errorf("unparseable price: expected fallback 12000, got %v", got)
	}

	if got := SelectPricePerGuestCents(nil, 4, nil); got != nil {
		t.Errorf("nil snapshot without fallback: expected nil, got %d", *got)
	}
}

func TestSnapshotBasePriceCents(t *testing.T) {
	snapshot := tieredSnapshot()

	got := SnapshotBasePriceCents(snapshot, nil)
	if got == nil || *got != 15000 {
		t.Errorf("expected base price 15000 (single guest rate), got %v", got)
	}

	if got := SnapshotBasePriceCents(nil, intPtr(9900)); got == nil || *got != 9900 {
		t.Errorf("expected fallback 9900, got %v", got)
	}
}

func TestFormatCurrencyFromCents(t *testing.T) {
	tests := []struct {
		name     string
		cents    *int
		currency string
		want     *string
	}{
		{"nil cents stays nil", nil, "USD", nil},
		{"zero renders as money, not unknown", intPtr(0), "usd", strPtr("$0.00")},
		{"whole dollars", intPtr(15000), "USD", strPtr("$150.00")},
		{"thousands grouping", intPtr(123456789), "USD", strPtr("$1,234,567.89")},
		{"lowercase padded code normalized", intPtr(500), "  eur ", strPtr("€5.00")},
		{"blank code defaults to USD", intPtr(100), "", strPtr("$1.00")},
		{"valid code without symbol", intPtr(2500), "CHF", strPtr("CHF 25.00")},
		{"unknown code falls back to dollar prefix", intPtr(2500), "WAT", strPtr("$25.00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCurrencyFromCents(tt.cents, tt.currency)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %q", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %q, got nil", *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("expected %q, got %q", *tt.want, *got)
			}
		})
	}
}

func TestFormatDepositFromCents(t *testing.T) {
	snapshot := &Snapshot{
		IsDepositRequired: true,
		DepositPercent:    "25",
	}

	got := FormatDepositFromCents(snapshot, intPtr(40000))
	if got == nil || *got != 10000 {
		t.Errorf("expected 25%% of 40000 = 10000, got %v", got)
	}

	noDeposit := &Snapshot{IsDepositRequired: false, DepositPercent: "25"}
	if got := FormatDepositFromCents(noDeposit, intPtr(40000)); got != nil {
		t.Errorf("deposit not required: expected nil, got %d", *got)
	}

	if got := FormatDepositFromCents(snapshot, nil); got != nil {
		t.Errorf("nil total: expected nil, got %d", *got)
	}
}

func TestBuildSingleTierSnapshot(t *testing.T) {
	snapshot := BuildSingleTierSnapshot(22500, SingleTierOptions{})

	if snapshot.Currency != "USD" {
		t.Errorf("expected default currency USD, got %q", snapshot.Currency)
	}
	if len(snapshot.Tiers) != 1 {
		t.Fatalf("expected a single tier, got %d", len(snapshot.Tiers))
	}

	tier := snapshot.Tiers[0]
	if tier.MinGuests != 1 || tier.MaxGuests != nil {
		t.Errorf("expected open ended tier from 1 guest, got min=%d max=%v", tier.MinGuests, tier.MaxGuests)
	}
	if tier.PricePerGuest != "225.00" {
		t.Errorf("expected decimal string 225.00, got %q", tier.PricePerGuest)
	}
	if tier.PricePerGuestCents == nil || *tier.PricePerGuestCents != 22500 {
		t.Errorf("expected 22500 cents, got %v", tier.PricePerGuestCents)
	}

	// Resolver must agree with the wrapped price for any party size
	if got := SelectPricePerGuestCents(snapshot, 12, nil); got == nil || *got != 22500 {
		t.Errorf("expected 22500 for any party size, got %v", got)
	}
}

func strPtr(s string) *string { return &s }
