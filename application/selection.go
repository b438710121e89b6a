package application

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/srishtipnt/Parabot/domain"
)

// SelectionCache remembers the last numbered list shown to each requester so
// that a later "cancel <n>" refers to the same snapshot.
type SelectionCache[K comparable, V any] struct {
	mu    sync.Mutex
	lists map[K][]V
}

func NewSelectionCache[K comparable, V any]() *SelectionCache[K, V] {
	return &SelectionCache[K, V]{lists: make(map[K][]V)}
}

func (c *SelectionCache[K, V]) Remember(key K, items []V) {
	snapshot := make([]V, len(items))
	copy(snapshot, items)
	c.mu.Lock()
	c.lists[key] = snapshot
	c.mu.Unlock()
}

func (c *SelectionCache[K, V]) Recall(key K) ([]V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.lists[key]
	return items, ok
}

func (c *SelectionCache[K, V]) Forget(key K) {
	c.mu.Lock()
	delete(c.lists, key)
	c.mu.Unlock()
}

// pick resolves a 1-based selection against the cached snapshot for key,
// running query when nothing is cached (a restart, or no prior list).
func pick[K comparable, V any](
	ctx context.Context,
	cache *SelectionCache[K, V],
	key K,
	arg string,
	empty error,
	query func(context.Context) ([]V, error),
) (V, int, error) {
	var zero V
	items, ok := cache.Recall(key)
	if !ok {
		var err error
		if items, err = query(ctx); err != nil {
			return zero, 0, err
		}
	}
	if len(items) == 0 {
		return zero, 0, empty
	}
	n, ok := parseIndex(arg)
	if !ok || n < 1 || n > len(items) {
		return zero, 0, &domain.IndexError{Max: len(items)}
	}
	return items[n-1], n, nil
}

// parseIndex reads the leading decimal digits of arg.
func parseIndex(arg string) (int, bool) {
	arg = strings.TrimSpace(arg)
	end := 0
	for end < len(arg) && arg[end] >= '0' && arg[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(arg[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
