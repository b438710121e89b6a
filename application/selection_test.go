package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srishtipnt/Parabot/domain"
)

func TestParseIndex(t *testing.T) {
	tests := []struct {
		arg  string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"  3 ", 3, true},
		{"2nd", 2, true},
		{"12abc", 12, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		n, ok := parseIndex(tt.arg)
		assert.Equal(t, tt.ok, ok, "arg %q", tt.arg)
		assert.Equal(t, tt.want, n, "arg %q", tt.arg)
	}
}

func TestSelectionCache_RememberCopies(t *testing.T) {
	c := NewSelectionCache[int64, string]()
	items := []string{"a", "b"}
	c.Remember(1, items)
	items[0] = "changed"

	got, ok := c.Recall(1)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	c.Forget(1)
	_, ok = c.Recall(1)
	assert.False(t, ok)
}

func TestPick(t *testing.T) {
	ctx := context.Background()
	empty := errors.New("empty")
	queried := 0
	query := func(context.Context) ([]string, error) {
		queried++
		return []string{"fresh-1", "fresh-2"}, nil
	}

	t.Run("uses cached snapshot", func(t *testing.T) {
		c := NewSelectionCache[int64, string]()
		c.Remember(7, []string{"x", "y", "z"})
		v, n, err := pick(ctx, c, 7, "3", empty, query)
		require.NoError(t, err)
		assert.Equal(t, "z", v)
		assert.Equal(t, 3, n)
		assert.Equal(t, 0, queried)
	})

	t.Run("falls back to query", func(t *testing.T) {
		c := NewSelectionCache[int64, string]()
		v, n, err := pick(ctx, c, 7, "2", empty, query)
		require.NoError(t, err)
		assert.Equal(t, "fresh-2", v)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, queried)
	})

	t.Run("out of range", func(t *testing.T) {
		c := NewSelectionCache[int64, string]()
		c.Remember(7, []string{"x"})
		_, _, err := pick(ctx, c, 7, "5", empty, query)
		var ie *domain.IndexError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, 1, ie.Max)
		assert.Equal(t, "Please provide a valid number from 1 to 1.", err.Error())
	})

	t.Run("empty snapshot", func(t *testing.T) {
		c := NewSelectionCache[int64, string]()
		c.Remember(7, nil)
		_, _, err := pick(ctx, c, 7, "1", empty, query)
		assert.ErrorIs(t, err, empty)
	})
}

func TestParseRequest(t *testing.T) {
	now := baseTime

	t.Run("splits task and time", func(t *testing.T) {
		task, at, err := parseRequest(fixedResolver{after: 10 * time.Minute}, "buy milk in 10 minutes", now)
		require.NoError(t, err)
		assert.Equal(t, "buy milk", task)
		assert.Equal(t, now.Add(10*time.Minute), at)
	})

	tests := []struct {
		name     string
		resolver TimeResolver
		body     string
		want     error
	}{
		{"no time", fixedResolver{after: time.Minute}, "buy milk", domain.ErrTimeNotUnderstood},
		{"resolver error", fixedResolver{err: errors.New("boom")}, "x in 1 minute", domain.ErrTimeNotUnderstood},
		{"no task", fixedResolver{after: time.Minute}, " in 5 minutes", domain.ErrNoTask},
		{"in the past", fixedResolver{after: -time.Minute}, "call in 1 minute", domain.ErrNotInFuture},
		{"exactly now", fixedResolver{after: 0}, "call in 0 minutes", domain.ErrNotInFuture},
		{"too far", fixedResolver{after: domain.MaxDelay + time.Millisecond}, "call in 30 days", domain.ErrTooFarAhead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseRequest(tt.resolver, tt.body, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("max delay is allowed", func(t *testing.T) {
		_, _, err := parseRequest(fixedResolver{after: domain.MaxDelay}, "call in 24 days", now)
		assert.NoError(t, err)
	})
}
