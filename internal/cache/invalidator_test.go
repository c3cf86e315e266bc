package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu       sync.Mutex
	messages []RetryMessage
}

func (q *recordingQueue) Publish(ctx context.Context, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, payload.(RetryMessage))
	return nil
}

type failingStore struct {
	*MemoryStore
	failKeys map[string]bool
}

func (s *failingStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if s.failKeys[key] {
			return errors.New("connection refused")
		}
	}
	return s.MemoryStore.Del(ctx, keys...)
}

func TestInvalidateDeletesKeysPatternsAndTags(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, KeyCartLine(7, 42), "line"))
	require.NoError(t, store.Set(ctx, KeyCartList(7), "list"))
	require.NoError(t, store.Set(ctx, "products_featured", "page"))
	require.NoError(t, store.Set(ctx, KeyCombo(3), "combo", TagCombo(3)))

	inv := NewInvalidator(store, nil)
	inv.Invalidate(ctx, Invalidation{
		Keys:     []string{KeyCartLine(7, 42), KeyCartList(7)},
		Patterns: []string{PatternProducts},
		Tags:     []string{TagCombo(3)},
	})

	assert.False(t, store.Has(KeyCartLine(7, 42)))
	assert.False(t, store.Has(KeyCartList(7)))
	assert.False(t, store.Has("products_featured"))
	assert.False(t, store.Has(KeyCombo(3)))
}

func TestInvalidateFailureGoesToRetryQueue(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	require.NoError(t, base.Set(ctx, "good_key", 1))
	require.NoError(t, base.Set(ctx, "bad_key", 1))

	store := &failingStore{MemoryStore: base, failKeys: map[string]bool{"bad_key": true}}
	queue := &recordingQueue{}

	inv := NewInvalidator(store, queue)
	inv.Invalidate(ctx, Invalidation{Keys: []string{"good_key", "bad_key"}})

	assert.False(t, base.Has("good_key"))
	require.Len(t, queue.messages, 1)
	assert.Equal(t, "key", queue.messages[0].Kind)
	assert.Equal(t, "bad_key", queue.messages[0].Target)
}

func TestMemoryStoreTagInvalidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, KeyCartLine(1, 2), "a", TagUser(1), TagVariant(2)))
	require.NoError(t, store.Set(ctx, KeyCartList(1), "b", TagUser(1)))

	require.NoError(t, store.InvalidateTag(ctx, TagUser(1)))

	assert.False(t, store.Has(KeyCartLine(1, 2)))
	assert.False(t, store.Has(KeyCartList(1)))
}

func TestCacheKeyScheme(t *testing.T) {
	assert.Equal(t, "cart_user_9_product_33", KeyCartLine(9, 33))
	assert.Equal(t, "cart_products_user_9", KeyCartList(9))
	assert.Equal(t, "product_combo_5", KeyCombo(5))
	assert.Equal(t, "all_product_combos", KeyAllCombos)
}
