// Package split divides a bill between the payer and the friends they select.
package split

import (
	"errors"
	"math"

	"go-payout-simulator/domain"
)

var (
	ErrInvalidTotal    = errors.New("total must be a non-negative number")
	ErrNegativeFriends = errors.New("friend count must not be negative")
)

// Preset a quick-pick bill amount
type Preset struct {
	Label  string        `json:"label"`
	Amount domain.Amount `json:"amount"`
}

// Presets quick amount suggestions
var Presets = []Preset{
	{Label: "Coffee", Amount: 15},
	{Label: "Lunch", Amount: 45},
	{Label: "Shopping", Amount: 100},
}

// Share returns each participant's part of total. The payer always takes part,
// so the total is divided by selectedFriends+1. A zero total gives a zero share.
func Share(total domain.Amount, selectedFriends int) (domain.Amount, error) {
	if total < 0 || math.IsNaN(float64(total)) || math.IsInf(float64(total), 0) {
		return 0, ErrInvalidTotal
	}
	if selectedFriends < 0 {
		return 0, ErrNegativeFriends
	}
	return total / domain.Amount(Participants(selectedFriends)), nil
}

// Participants number of people paying, the payer included
func Participants(selectedFriends int) int {
	return selectedFriends + 1
}
