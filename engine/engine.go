package engine

import (
	"fmt"
	"math"

	"go-payout-simulator/domain"
)

// Simulate computes the outcome of a payout against a rate snapshot.
// The amount is converted source -> base -> target using the same snapshot for both legs,
// and the fee is charged on the original source-currency amount.
// Simulate is pure: no I/O, no rounding, no state.
func Simulate(req domain.Request, snapshot *domain.Snapshot, method domain.Method) (domain.Result, error) {
	amount := float64(req.Amount)
	if !(amount > 0) || math.IsInf(amount, 0) {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, req.Amount)
	}
	if snapshot == nil {
		return domain.Result{}, domain.ErrRatesUnavailable
	}

	source := req.SourceCurrency
	if source == "" {
		source = snapshot.Base()
	}

	sourceRate, err := lookup(snapshot, source)
	if err != nil {
		return domain.Result{}, fmt.Errorf("source: %w", err)
	}
	targetRate, err := lookup(snapshot, req.TargetCurrency)
	if err != nil {
		return domain.Result{}, fmt.Errorf("target: %w", err)
	}

	amountInBase := amount / float64(sourceRate)
	converted := amountInBase * float64(targetRate)
	fee := amount * method.FeeRate

	return domain.Result{
		OriginalAmount:  req.Amount,
		Fee:             domain.Amount(fee),
		ConvertedAmount: domain.Amount(converted),
		EstimatedTime:   method.EstimatedTime,
		Currency:        req.TargetCurrency,
	}, nil
}

// lookup finds a rate and rejects values that would divide by zero or produce infinities
func lookup(snapshot *domain.Snapshot, c domain.Currency) (domain.Rate, error) {
	rate, ok := snapshot.Rate(c)
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownCurrency, c)
	}
	f := float64(rate)
	if !(f > 0) || math.IsInf(f, 0) {
		return 0, &domain.RateError{Currency: c, Rate: rate}
	}
	return rate, nil
}
