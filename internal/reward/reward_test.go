package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	period := 24 * time.Hour
	const amount = int64(10)

	tests := []struct {
		name          string
		lastPaidAt    time.Time
		wantClaimable int64
		wantAvailable bool
		wantMaxed     bool
	}{
		{
			name:          "half a period elapsed",
			lastPaidAt:    now.Add(-period / 2),
			wantClaimable: 0,
		},
		{
			name:          "one and a half periods elapsed",
			lastPaidAt:    now.Add(-period - period/2),
			wantClaimable: amount,
			wantAvailable: true,
		},
		{
			name:          "two and a half periods elapsed",
			lastPaidAt:    now.Add(-2*period - period/2),
			wantClaimable: 2 * amount,
			wantAvailable: true,
			wantMaxed:     true,
		},
		{
			name:          "exactly one period elapsed",
			lastPaidAt:    now.Add(-period),
			wantClaimable: amount,
			wantAvailable: true,
		},
		{
			name:          "exactly two periods elapsed",
			lastPaidAt:    now.Add(-2 * period),
			wantClaimable: 2 * amount,
			wantAvailable: true,
			wantMaxed:     true,
		},
		{
			name:          "a year overdue still caps at two periods",
			lastPaidAt:    now.Add(-365 * 24 * time.Hour),
			wantClaimable: 2 * amount,
			wantAvailable: true,
			wantMaxed:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Compute(tt.lastPaidAt, period, amount, now)

			assert.Equal(t, tt.wantClaimable, acc.Claimable)
			assert.Equal(t, tt.wantAvailable, acc.Available)
			assert.Equal(t, tt.wantMaxed, acc.Maxed)
			assert.Equal(t, tt.lastPaidAt.Add(period), acc.NextEligibleAt)
		})
	}
}

func TestComputeClaimableValues(t *testing.T) {
	// Claimable is always one of {0, amount, 2*amount} no matter how stale
	// the clock is.
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	period := time.Hour
	const amount = int64(7)

	for hours := 0; hours < 200; hours++ {
		acc := Compute(now.Add(-time.Duration(hours)*time.Hour), period, amount, now)
		assert.Contains(t, []int64{0, amount, 2 * amount}, acc.Claimable)
	}
}

func TestClaim(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	period := 24 * time.Hour
	const amount = int64(10)

	t.Run("nothing claimable leaves the clock untouched", func(t *testing.T) {
		last := now.Add(-period / 2)
		acc, newClock := Claim(last, period, amount, now)

		assert.False(t, acc.Available)
		assert.Equal(t, last, newClock)
	})

	t.Run("single period claim resets the clock", func(t *testing.T) {
		last := now.Add(-period - period/2)
		acc, newClock := Claim(last, period, amount, now)

		assert.Equal(t, amount, acc.Claimable)
		assert.Equal(t, now, newClock)
	})

	t.Run("maxed claim resets the clock once", func(t *testing.T) {
		last := now.Add(-10 * period)
		acc, newClock := Claim(last, period, amount, now)

		assert.Equal(t, 2*amount, acc.Claimable)
		assert.True(t, acc.Maxed)
		assert.Equal(t, now, newClock)

		// A repeat claim immediately after pays nothing.
		again, clock := Claim(newClock, period, amount, now)
		assert.Zero(t, again.Claimable)
		assert.Equal(t, newClock, clock)
	})
}
