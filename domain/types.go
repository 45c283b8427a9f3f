package domain

import (
	"math"
	"sort"
	"time"
)

// Currency a currency code, e.g. "USD"
type Currency string

// Amount a monetary amount in full float64 precision. Rounding is a display concern.
type Amount float64

// Rate an exchange rate relative to a snapshot's base currency
type Rate float64

// Rates maps currency codes to rates
type Rates map[Currency]Rate

// valid reports whether r is usable as a divisor or multiplier
func (r Rate) valid() bool {
	f := float64(r)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Quote is a raw "latest rates" payload as reported by a rate provider.
type Quote struct {
	Base      Currency
	Rates     Rates
	Timestamp time.Time
}

// Snapshot is an immutable point-in-time view of exchange rates.
// Snapshots are replaced wholesale, never mutated.
type Snapshot struct {
	base      Currency
	rates     Rates
	fetchedAt time.Time
}

// NewSnapshot copies rates into a new Snapshot. The base currency is implicitly 1 when absent.
func NewSnapshot(base Currency, rates Rates, fetchedAt time.Time) *Snapshot {
	copied := make(Rates, len(rates)+1)
	for c, r := range rates {
		copied[c] = r
	}
	if _, ok := copied[base]; !ok && base != "" {
		copied[base] = 1
	}
	return &Snapshot{
		base:      base,
		rates:     copied,
		fetchedAt: fetchedAt,
	}
}

func (s *Snapshot) Base() Currency { return s.base }

func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Rate looks up the rate of a currency relative to the base
func (s *Snapshot) Rate(c Currency) (Rate, bool) {
	r, ok := s.rates[c]
	return r, ok
}

// Len number of currencies in the snapshot, base included
func (s *Snapshot) Len() int { return len(s.rates) }

// Currencies returns the sorted currency codes of the snapshot
func (s *Snapshot) Currencies() []Currency {
	out := make([]Currency, 0, len(s.rates))
	for c := range s.rates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Age how old the snapshot is at now
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.fetchedAt)
}

// Validate checks that the snapshot is non-empty and every rate is strictly positive and finite.
func (s *Snapshot) Validate() error {
	if len(s.rates) == 0 {
		return ErrRatesUnavailable
	}
	for c, r := range s.rates {
		if !r.valid() {
			return &RateError{Currency: c, Rate: r}
		}
	}
	return nil
}

// SymbolTable maps currency codes to display names. Display only.
type SymbolTable map[Currency]string

// Method a payout method
type Method struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"name"`
	EstimatedTime string  `json:"estimatedTime"`
	FeeRate       float64 `json:"feeRate"`
}

// Request a single simulation request
type Request struct {
	Amount         Amount   `validate:"gt=0"`
	SourceCurrency Currency `validate:"omitempty,uppercase"`
	TargetCurrency Currency `validate:"required"`
	MethodID       string   `validate:"required"`
}

// Result the outcome of a simulation. Values are never rounded.
type Result struct {
	OriginalAmount  Amount
	Fee             Amount
	ConvertedAmount Amount
	EstimatedTime   string
	Currency        Currency
}
