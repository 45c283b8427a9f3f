package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-payout-simulator/domain"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		id      string
		name    string
		time    string
		feeRate float64
	}{
		{"bank_transfer", "Bank Transfer", "1-2 hours", 0.005},
		{"instant_payment", "Instant Payment", "< 1 minute", 0.015},
		{"digital_wallet", "Digital Wallet", "< 5 minutes", 0.01},
		{"gift_card", "Gift Card", "Instant", 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			m, err := Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, m.ID)
			assert.Equal(t, tt.name, m.DisplayName)
			assert.Equal(t, tt.time, m.EstimatedTime)
			assert.Equal(t, tt.feeRate, m.FeeRate)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("unknown")
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)

	_, err = Lookup("")
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestMethods_IsACopy(t *testing.T) {
	ms := Methods()
	require.Len(t, ms, 4)
	assert.Equal(t, BankTransfer, ms[0].ID)
	assert.Equal(t, GiftCard, ms[3].ID)

	ms[0].FeeRate = 1
	m, _ := Lookup(BankTransfer)
	assert.Equal(t, 0.005, m.FeeRate)
}
