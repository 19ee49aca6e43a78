package computedeliverydate

import (
	"context"
	"testing"
	"time"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/engagement/dates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	engine, err := dates.New("America/Los_Angeles", dates.WithClock(func() time.Time {
		return time.Date(2024, 10, 31, 10, 0, 0, 0, la)
	}), dates.WithLocalZone(la))
	require.NoError(t, err)
	return NewHandler(LoadConfig(), engine, logger.NewTestLogger(t), nil)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		want  *Output
	}{
		{
			name:  "business days",
			input: &Input{LetterType: "APP", Timeline: "10 bds"},
			want: &Output{
				CurrentDate: "10/31/2024", DeliveryDate: "11/14/2024",
				DurationKind: "business_days", DurationValue: 10,
			},
		},
		{
			name:  "calendar days",
			input: &Input{LetterType: "env", Timeline: "5 days"},
			want: &Output{
				CurrentDate: "10/31/2024", DeliveryDate: "11/5/2024",
				DurationKind: "days", DurationValue: 5,
			},
		},
		{
			name:  "weeks",
			input: &Input{LetterType: "APP", Timeline: "2 weeks"},
			want: &Output{
				CurrentDate: "10/31/2024", DeliveryDate: "11/14/2024",
				DurationKind: "weeks", DurationValue: 2,
			},
		},
		{
			name:  "malformed falls back",
			input: &Input{LetterType: "APP", Timeline: "a few weeks"},
			want: &Output{
				CurrentDate: "10/31/2024", DeliveryDate: "11/7/2024",
				DurationKind: "weeks", DurationValue: 1, Malformed: true,
			},
		},
		{
			name:  "secondary review has no delivery date",
			input: &Input{LetterType: "SEC", Timeline: "10 bds"},
			want:  &Output{CurrentDate: "10/31/2024", DeliveryDate: "N/A"},
		},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := createTestHandler(t).Execute(ctx, &Input{LetterType: "APP"})
	assert.ErrorIs(t, err, context.Canceled)
}
