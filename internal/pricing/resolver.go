package pricing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tier is one guest-count range with a flat per-guest rate. MaxGuests nil
// marks the open-ended top tier. The decimal string is the authoritative
// value in older snapshots; newer ones also carry the cents.
type Tier struct {
	MinGuests          int    `json:"min_guests"`
	MaxGuests          *int   `json:"max_guests"`
	PricePerGuest      string `json:"price_per_guest"`
	PricePerGuestCents *int   `json:"price_per_guest_cents"`
}

// Snapshot is the immutable pricing copy embedded in a trip or template at
// creation time. Later edits to the pricing model never touch it.
type Snapshot struct {
	Currency          string `json:"currency"`
	IsDepositRequired bool   `json:"is_deposit_required"`
	DepositPercent    string `json:"deposit_percent"`
	Tiers             []Tier `json:"tiers"`
}

// SelectPricePerGuestCents resolves the per-guest rate for a party size.
//
// Party sizes below 1 are treated as 1. Tiers are defensively copied,
// min_guests below 1 defaulted to 1 and sorted ascending before matching.
// The first tier containing the party size wins; when no tier contains it
// (gaps in coverage) the last sorted tier is used, so any non-empty tier
// list always yields a price. Cents are preferred over parsing the decimal
// string. Parse failure and empty tier lists degrade to fallback, which may
// be nil. Never panics.
func SelectPricePerGuestCents(snapshot *Snapshot, partySize int, fallback *int) *int {
	if partySize < 1 {
		partySize = 1
	}
	if snapshot == nil || len(snapshot.Tiers) == 0 {
		return fallback
	}

	tiers := make([]Tier, len(snapshot.Tiers))
	copy(tiers, snapshot.Tiers)
	for i := range tiers {
		if tiers[i].MinGuests < 1 {
			tiers[i].MinGuests = 1
		}
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinGuests < tiers[j].MinGuests
	})

	matched := tiers[len(tiers)-1]
	for _, tier := range tiers {
		if partySize >= tier.MinGuests && (tier.MaxGuests == nil || partySize <= *tier.MaxGuests) {
			matched = tier
			break
		}
	}

	if matched.PricePerGuestCents != nil {
		cents := *matched.PricePerGuestCents
		return &cents
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(matched.PricePerGuest), 64)
	if err != nil || math.IsNaN(parsed) {
		return fallback
	}
	cents := int(math.Round(parsed * 100))
	return &cents
}

// SnapshotBasePriceCents returns the single-guest rate.
func SnapshotBasePriceCents(snapshot *Snapshot, fallback *int) *int {
	return SelectPricePerGuestCents(snapshot, 1, fallback)
}

// FormatCurrencyFromCents renders cents for display. Nil in, nil out, so an
// unknown price is distinguishable from a zero price (which renders as
// "$0.00"). The code is trimmed and uppercased, blank defaults to USD.
// Unrecognized codes fall back to a literal dollar sign prefix regardless
// of the requested currency; accepted limitation.
func FormatCurrencyFromCents(cents *int, currencyCode string) *string {
	if cents == nil {
		return nil
	}

	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "" {
		code = "USD"
	}

	amount := float64(*cents) / 100

	unit, err := currency.ParseISO(code)
	if err != nil {
		out := "$" + strconv.FormatFloat(amount, 'f', 2, 64)
		return &out
	}

	printer := message.NewPrinter(language.AmericanEnglish)
	formatted := printer.Sprintf("%v", number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	if symbol, ok := currencySymbols[unit.String()]; ok {
		out := symbol + formatted
		return &out
	}
	out := unit.String() + " " + formatted
	return &out
}

// Narrow symbols for the currencies guide services actually bill in.
// Valid ISO codes outside this set render as "CODE amount".
var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"NZD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"MXN": "$",
}

// FormatDepositFromCents renders the deposit portion of a total given the
// snapshot's deposit percent. Nil when no deposit is required.
func FormatDepositFromCents(snapshot *Snapshot, totalCents *int) *int {
	if snapshot == nil || !snapshot.IsDepositRequired || totalCents == nil {
		return nil
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(snapshot.DepositPercent), 64)
	if err != nil || percent <= 0 {
		return nil
	}
	deposit := int(math.Round(float64(*totalCents) * percent / 100))
	return &deposit
}

// SingleTierOptions customizes BuildSingleTierSnapshot.
type SingleTierOptions struct {
	Currency          string
	IsDepositRequired bool
	DepositPercent    string
}

// BuildSingleTierSnapshot wraps a flat per-guest price in a one-tier
// snapshot, used for trips priced without a pricing model.
func BuildSingleTierSnapshot(priceCents int, opts SingleTierOptions) *Snapshot {
	code := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if code == "" {
		code = "USD"
	}
	depositPercent := opts.DepositPercent
	if depositPercent == "" {
		depositPercent = "0"
	}
	cents := priceCents
	return &Snapshot{
		Currency:          code,
		IsDepositRequired: opts.IsDepositRequired,
		DepositPercent:    depositPercent,
		Tiers: []Tier{
			{
				MinGuests:          1,
				MaxGuests:          nil,
				PricePerGuest:      fmt.Sprintf("%.2f", float64(priceCents)/100),
				PricePerGuestCents: &cents,
			},
		},
	}
}
