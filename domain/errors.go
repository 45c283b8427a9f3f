package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidRate      = errors.New("invalid exchange rate")
	ErrUnknownMethod    = errors.New("unknown payout method")
	ErrRatesUnavailable = errors.New("exchange rates not yet available")
	ErrStaleRates       = errors.New("exchange rates are stale")
)

// RateError reports a currency whose rate is zero, negative or not finite
type RateError struct {
	Currency Currency
	Rate     Rate
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%v: %v=%v", ErrInvalidRate, e.Currency, e.Rate)
}

func (e *RateError) Unwrap() error { return ErrInvalidRate }

// RateFetchError a failure talking to the rate provider. The previous data stays usable.
type RateFetchError struct {
	Op  string
	Err error
}

func (e *RateFetchError) Error() string {
	return "fetch " + e.Op + ": " + e.Err.Error()
}

func (e *RateFetchError) Unwrap() error { return e.Err }

// SimulationError wraps any failure surfaced by the simulation controller,
// together with the state the run was in when it failed.
type SimulationError struct {
	State string
	Err   error
}

func (e *SimulationError) Error() string {
	return "simulation failed while " + e.State + ": " + e.Err.Error()
}

func (e *SimulationError) Unwrap() error { return e.Err }

// IsInputError reports whether err is caused by caller input and should not be retried as-is.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownCurrency) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrUnknownMethod)
}
