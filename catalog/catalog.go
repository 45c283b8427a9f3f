package catalog

import (
	"fmt"

	"go-payout-simulator/domain"
)

const (
	BankTransfer   = "bank_transfer"
	InstantPayment = "instant_payment"
	DigitalWallet  = "digital_wallet"
	GiftCard       = "gift_card"
)

// methods is fixed at process start and never mutated.
var methods = []domain.Method{
	{ID: BankTransfer, DisplayName: "Bank Transfer", EstimatedTime: "1-2 hours", FeeRate: 0.005},
	{ID: InstantPayment, DisplayName: "Instant Payment", EstimatedTime: "< 1 minute", FeeRate: 0.015},
	{ID: DigitalWallet, DisplayName: "Digital Wallet", EstimatedTime: "< 5 minutes", FeeRate: 0.01},
	{ID: GiftCard, DisplayName: "Gift Card", EstimatedTime: "Instant", FeeRate: 0.02},
}

var byID = func() map[string]domain.Method {
	m := make(map[string]domain.Method, len(methods))
	for _, method := range methods {
		m[method.ID] = method
	}
	return m
}()

// Lookup resolves a payout method by id.
func Lookup(id string) (domain.Method, error) {
	m, ok := byID[id]
	if !ok {
		return domain.Method{}, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, id)
	}
	return m, nil
}

// Methods returns a copy of the registry in display order
func Methods() []domain.Method {
	out := make([]domain.Method, len(methods))
	copy(out, methods)
	return out
}
