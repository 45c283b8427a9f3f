package split

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-payout-simulator/domain"
)

func TestShare(t *testing.T) {
	tests := []struct {
		name    string
		total   domain.Amount
		friends int
		want    domain.Amount
	}{
		{"alone", 45, 0, 45},
		{"two friends", 45, 2, 15},
		{"everyone", 100, 4, 20},
		{"nothing to split", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Share(tt.total, tt.friends)
			assert.NoError(t, err)
			assert.InDelta(t, float64(tt.want), float64(got), 1e-12)
		})
	}
}

func TestShare_Errors(t *testing.T) {
	_, err := Share(-1, 1)
	assert.ErrorIs(t, err, ErrInvalidTotal)

	_, err = Share(10, -1)
	assert.ErrorIs(t, err, ErrNegativeFriends)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"Coffee", "Lunch", "Shopping"}, []string{Presets[0].Label, Presets[1].Label, Presets[2].Label})
	assert.Equal(t, domain.Amount(100), Presets[2].Amount)
}
