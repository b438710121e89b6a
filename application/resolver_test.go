package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srishtipnt/Parabot/domain"
)

func TestWhenResolver_RelativeDuration(t *testing.T) {
	r := NewWhenResolver(time.UTC)
	body := "buy milk in 10 minutes"

	res, err := r.Resolve(body, baseTime)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.WithinDuration(t, baseTime.Add(10*time.Minute), res.At, time.Minute)

	task, _, err := parseRequest(r, body, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task)
}

func TestWhenResolver_SplitsTaskFromTime(t *testing.T) {
	r := NewWhenResolver(time.UTC)

	tests := []struct {
		name  string
		body  string
		task  string
		check func(t *testing.T, at time.Time)
	}{
		{
			name: "at a time of day",
			body: "call mom at 5pm",
			task: "call mom",
			check: func(t *testing.T, at time.Time) {
				assert.WithinDuration(t, time.Date(2024, time.March, 1, 17, 0, 0, 0, time.UTC), at, time.Minute)
			},
		},
		{
			name: "passed time of day rolls to tomorrow",
			body: "call mom at 9am",
			task: "call mom",
			check: func(t *testing.T, at time.Time) {
				assert.WithinDuration(t, time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC), at, time.Minute)
			},
		},
		{
			name: "on a weekday at a time",
			body: "meeting on monday at 10am",
			task: "meeting",
			check: func(t *testing.T, at time.Time) {
				assert.Equal(t, time.Monday, at.Weekday())
				assert.Equal(t, 10, at.Hour())
				assert.True(t, at.After(baseTime))
				assert.True(t, at.Before(baseTime.AddDate(0, 0, 7)))
			},
		},
		{
			name: "rightmost expression wins",
			body: "talk at 4pm about plan in 2 hours",
			task: "talk at 4pm about plan",
			check: func(t *testing.T, at time.Time) {
				assert.WithinDuration(t, baseTime.Add(2*time.Hour), at, time.Minute)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, at, err := parseRequest(r, tt.body, baseTime)
			require.NoError(t, err)
			assert.Equal(t, tt.task, task)
			tt.check(t, at)
		})
	}
}

func TestWhenResolver_ConnectiveAloneIsNoTask(t *testing.T) {
	r := NewWhenResolver(time.UTC)
	_, _, err := parseRequest(r, "at 5pm", baseTime)
	assert.ErrorIs(t, err, domain.ErrNoTask)
}

func TestWhenResolver_NoExpression(t *testing.T) {
	r := NewWhenResolver(time.UTC)
	res, err := r.Resolve("??? no time here", baseTime)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestForwardDate(t *testing.T) {
	base := time.Date(2024, time.March, 6, 18, 0, 0, 0, time.UTC) // a Wednesday

	t.Run("future is kept", func(t *testing.T) {
		at := base.Add(time.Hour)
		assert.Equal(t, at, forwardDate(at, base, "at 7pm"))
	})

	t.Run("passed time of day rolls to tomorrow", func(t *testing.T) {
		at := time.Date(2024, time.March, 6, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, at.AddDate(0, 0, 1), forwardDate(at, base, "at 9am"))
	})

	t.Run("passed weekday rolls a week", func(t *testing.T) {
		at := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC) // Monday
		assert.Equal(t, at.AddDate(0, 0, 7), forwardDate(at, base, "monday 9am"))
	})

	t.Run("explicit past is left alone", func(t *testing.T) {
		at := base.Add(-2 * time.Hour)
		assert.Equal(t, at, forwardDate(at, base, "2 hours ago"))
	})
}
