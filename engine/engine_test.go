package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-payout-simulator/catalog"
	"go-payout-simulator/domain"
)

func method(t *testing.T, id string) domain.Method {
	m, err := catalog.Lookup(id)
	require.NoError(t, err)
	return m
}

func TestSimulate_Scenarios(t *testing.T) {
	type args struct {
		amount domain.Amount
		rates  domain.Rates
		to     domain.Currency
		method string
	}
	tests := []struct {
		name          string
		args          args
		wantFee       float64
		wantConverted float64
		wantTime      string
	}{
		{
			"usd -> eur by bank transfer",
			args{1000, domain.Rates{"USD": 1, "EUR": 0.9}, "EUR", catalog.BankTransfer},
			5, 900, "1-2 hours",
		},
		{
			"usd -> gbp by instant payment",
			args{200, domain.Rates{"USD": 1, "GBP": 0.8}, "GBP", catalog.InstantPayment},
			3, 160, "< 1 minute",
		},
		{
			"eur based snapshot, usd -> gbp by gift card",
			args{100, domain.Rates{"EUR": 1, "USD": 1.25, "GBP": 0.85}, "GBP", catalog.GiftCard},
			2, 68, "Instant",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := domain.NewSnapshot("USD", tt.args.rates, time.Now())
			req := domain.Request{
				Amount:         tt.args.amount,
				SourceCurrency: "USD",
				TargetCurrency: tt.args.to,
				MethodID:       tt.args.method,
			}

			got, err := Simulate(req, snapshot, method(t, tt.args.method))

			require.NoError(t, err)
			assert.Equal(t, tt.args.amount, got.OriginalAmount)
			assert.InDelta(t, tt.wantFee, float64(got.Fee), 1e-9)
			assert.InDelta(t, tt.wantConverted, float64(got.ConvertedAmount), 1e-9)
			assert.Equal(t, tt.wantTime, got.EstimatedTime)
			assert.Equal(t, tt.args.to, got.Currency)
		})
	}
}

func TestSimulate_FeeAndConversionProperties(t *testing.T) {
	rates := domain.Rates{"EUR": 1, "USD": 1.0843, "JPY": 161.37, "GBP": 0.8512}
	snapshot := domain.NewSnapshot("EUR", rates, time.Now())

	for _, amount := range []domain.Amount{0.01, 1, 17.5, 1000, 123456.78} {
		for _, m := range catalog.Methods() {
			for _, to := range []domain.Currency{"USD", "JPY", "GBP", "EUR"} {
				req := domain.Request{Amount: amount, SourceCurrency: "USD", TargetCurrency: to, MethodID: m.ID}
				got, err := Simulate(req, snapshot, m)
				require.NoError(t, err)

				assert.InDelta(t, float64(amount)*m.FeeRate, float64(got.Fee), 1e-9)
				want := float64(amount) / float64(rates["USD"]) * float64(rates[to])
				assert.InDelta(t, want, float64(got.ConvertedAmount), 1e-9*math.Max(1, want))
			}
		}
	}
}

func TestSimulate_SameCurrencyIsNeutral(t *testing.T) {
	snapshot := domain.NewSnapshot("EUR", domain.Rates{"USD": 1.0843}, time.Now())
	req := domain.Request{Amount: 250, SourceCurrency: "USD", TargetCurrency: "USD", MethodID: catalog.DigitalWallet}

	got, err := Simulate(req, snapshot, method(t, catalog.DigitalWallet))

	require.NoError(t, err)
	assert.InDelta(t, 250, float64(got.ConvertedAmount), 1e-9)
	assert.InDelta(t, 2.5, float64(got.Fee), 1e-12)
}

func TestSimulate_DefaultsSourceToBase(t *testing.T) {
	snapshot := domain.NewSnapshot("USD", domain.Rates{"EUR": 0.9}, time.Now())
	req := domain.Request{Amount: 10, TargetCurrency: "EUR", MethodID: catalog.BankTransfer}

	got, err := Simulate(req, snapshot, method(t, catalog.BankTransfer))

	require.NoError(t, err)
	assert.InDelta(t, 9, float64(got.ConvertedAmount), 1e-12)
}

func TestSimulate_Errors(t *testing.T) {
	snapshot := domain.NewSnapshot("USD", domain.Rates{"USD": 1, "EUR": 0.9, "ZZZ": 0}, time.Now())
	bank := method(t, catalog.BankTransfer)

	tests := []struct {
		name    string
		req     domain.Request
		wantErr error
	}{
		{"zero amount", domain.Request{Amount: 0, SourceCurrency: "USD", TargetCurrency: "EUR"}, domain.ErrInvalidAmount},
		{"negative amount", domain.Request{Amount: -5, SourceCurrency: "USD", TargetCurrency: "EUR"}, domain.ErrInvalidAmount},
		{"nan amount", domain.Request{Amount: domain.Amount(math.NaN()), SourceCurrency: "USD", TargetCurrency: "EUR"}, domain.ErrInvalidAmount},
		{"infinite amount", domain.Request{Amount: domain.Amount(math.Inf(1)), SourceCurrency: "USD", TargetCurrency: "EUR"}, domain.ErrInvalidAmount},
		{"unknown target", domain.Request{Amount: 1, SourceCurrency: "USD", TargetCurrency: "XYZ"}, domain.ErrUnknownCurrency},
		{"unknown source", domain.Request{Amount: 1, SourceCurrency: "ABC", TargetCurrency: "EUR"}, domain.ErrUnknownCurrency},
		{"zero target rate", domain.Request{Amount: 1, SourceCurrency: "USD", TargetCurrency: "ZZZ"}, domain.ErrInvalidRate},
		{"zero source rate", domain.Request{Amount: 1, SourceCurrency: "ZZZ", TargetCurrency: "EUR"}, domain.ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simulate(tt.req, snapshot, bank)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.Result{}, got)
		})
	}

	_, err := Simulate(domain.Request{Amount: 1, TargetCurrency: "EUR"}, nil, bank)
	assert.ErrorIs(t, err, domain.ErrRatesUnavailable)
}
