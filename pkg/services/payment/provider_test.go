package payment

import (
	"context"
	"testing"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdProvider(t *testing.T) {
	props := properties.New(map[string]interface{}{
		properties.KeyLargeWinLimit:       1200,
		properties.KeyBaseUnitMillicents: 1000,
	})
	provider := NewThresholdProvider(props, logging.NewNop())
	ctx := context.Background()

	tests := []struct {
		name       string
		millicents int64
		handpay    bool
	}{
		{name: "below limit", millicents: 1_199_999, handpay: false},
		{name: "at limit", millicents: 1_200_000, handpay: true},
		{name: "above limit", millicents: 5_000_000, handpay: true},
		{name: "nothing won", millicents: 0, handpay: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := provider.GetPaymentResults(ctx, tt.millicents, false)

			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.handpay, RequiresHandpay(results))
			if tt.handpay {
				assert.Equal(t, tt.millicents, results[0].MillicentsToPayUsingLargeWinStrategy)
			}
		})
	}
}

func TestThresholdProviderDisabled(t *testing.T) {
	provider := NewThresholdProvider(properties.New(nil), logging.NewNop())

	results, err := provider.GetPaymentResults(context.Background(), 99_000_000, false)

	require.NoError(t, err)
	assert.False(t, RequiresHandpay(results))

	_, err = provider.GetPaymentResults(context.Background(), -1, false)
	assert.True(t, types.IsGameError(err, types.ErrInvalidArgument))
}
