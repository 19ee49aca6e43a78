package dates

import (
	"errors"
	"testing"
	"time"

	"engagement-letters/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimezone)
	require.NoError(t, err)
	return loc
}

// Thursday, 31 October 2024, 10:00 Pacific.
func fixedEngine(t *testing.T) *Engine {
	t.Helper()
	loc := pacific(t)
	now := time.Date(2024, time.October, 31, 10, 0, 0, 0, loc)
	e, err := New("", WithClock(func() time.Time { return now }), WithLocalZone(loc))
	require.NoError(t, err)
	return e
}

func TestParse(t *testing.T) {
	tests := []struct {
		text      string
		want      Duration
		malformed bool
	}{
		{"10 bds", Duration{BusinessDays, 10}, false},
		{"15 business days", Duration{BusinessDays, 15}, false},
		{"2 weeks", Duration{Weeks, 2}, false},
		{"2 wks", Duration{Weeks, 2}, false},
		{"3 WK", Duration{Weeks, 3}, false},
		{"5 days", Duration{Days, 5}, false},
		{"30", Duration{Days, 30}, false},
		{"2 to 4 days", Duration{Days, 24}, false},
		{"BD", Duration{BusinessDays, 10}, true},
		{"a week", Duration{Weeks, 1}, true},
		{"wks", Duration{Weeks, 1}, true},
		{"", Duration{Days, 7}, true},
		{"soon", Duration{Days, 7}, true},
		{"99999999999999999999 days", Duration{Days, 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			assert.Equal(t, tt.want, got)
			if tt.malformed {
				assert.True(t, errors.Is(err, ErrMalformedDuration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompute_BusinessDays(t *testing.T) {
	e := fixedEngine(t)

	// October/November 2024: 31 Thu, 1 Fri, 2-3 weekend, 4-8 Mon-Fri,
	// 9-10 weekend, 11-15 Mon-Fri.
	tests := []struct {
		n    int
		want string
	}{
		{0, "10/31/2024"},
		{1, "11/1/2024"},
		{2, "11/4/2024"},
		{5, "11/7/2024"},
		{6, "11/8/2024"},
		{7, "11/11/2024"},
		{10, "11/14/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := e.Compute(Duration{Unit: BusinessDays, Count: tt.n})
			assert.Equal(t, "10/31/2024", got.CurrentDate)
			assert.Equal(t, tt.want, got.DeliveryDate)
		})
	}
}

func TestCompute_BusinessDaysFromWeekend(t *testing.T) {
	loc := pacific(t)
	saturday := time.Date(2024, time.November, 2, 9, 0, 0, 0, loc)
	e, err := New("", WithClock(func() time.Time { return saturday }))
	require.NoError(t, err)

	got := e.Compute(Duration{Unit: BusinessDays, Count: 1})
	assert.Equal(t, "11/4/2024", got.DeliveryDate)
}

func TestCompute_DaysExactOffset(t *testing.T) {
	e := fixedEngine(t)
	loc := pacific(t)

	for n := 0; n <= 365; n++ {
		got := e.Compute(Duration{Unit: Days, Count: n})

		cur, err := time.ParseInLocation(Layout, got.CurrentDate, loc)
		require.NoError(t, err)
		del, err := time.ParseInLocation(Layout, got.DeliveryDate, loc)
		require.NoError(t, err)

		curDay := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, time.UTC)
		delDay := time.Date(del.Year(), del.Month(), del.Day(), 0, 0, 0, 0, time.UTC)
		require.Equal(t, n, int(delDay.Sub(curDay).Hours()/24), "n=%d", n)
	}
}

func TestCompute_WeeksAnchorsOnLocalMidnight(t *testing.T) {
	// 23:00 Pacific on 31 Oct is already 1 Nov in UTC.
	loc := pacific(t)
	now := time.Date(2024, time.October, 31, 23, 0, 0, 0, loc)
	e, err := New("", WithClock(func() time.Time { return now }), WithLocalZone(time.UTC))
	require.NoError(t, err)

	got := e.Compute(Duration{Unit: Weeks, Count: 1})
	assert.Equal(t, "10/31/2024", got.CurrentDate)
	assert.Equal(t, "11/8/2024", got.DeliveryDate)
}

func TestCompute_Weeks(t *testing.T) {
	e := fixedEngine(t)
	got := e.Compute(Duration{Unit: Weeks, Count: 2})
	assert.Equal(t, "11/14/2024", got.DeliveryDate)
}

func TestComputeFor(t *testing.T) {
	e := fixedEngine(t)

	t.Run("secondary review has no delivery date", func(t *testing.T) {
		got, d, err := e.ComputeFor(models.LetterType("secondary"), "10 bds")
		require.NoError(t, err)
		assert.Equal(t, models.Dates{CurrentDate: "10/31/2024", DeliveryDate: "N/A"}, got)
		assert.Equal(t, Duration{}, d)
	})

	t.Run("appraisal timeline", func(t *testing.T) {
		got, d, err := e.ComputeFor(models.LetterAppraisal, "10 bds")
		require.NoError(t, err)
		assert.Equal(t, "11/14/2024", got.DeliveryDate)
		assert.Equal(t, BusinessDays, d.Unit)
	})

	t.Run("malformed falls back to seven days", func(t *testing.T) {
		got, d, err := e.ComputeFor(models.LetterEnvironmental, "whenever")
		assert.ErrorIs(t, err, ErrMalformedDuration)
		assert.Equal(t, Duration{Days, 7}, d)
		assert.Equal(t, "11/7/2024", got.DeliveryDate)
	})
}

func TestNew_UnknownZone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons")
	assert.Error(t, err)
}
