package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the key-value cache in front of the cart and combo read
// paths. Correctness never depends on TTL: writes to the source of
// truth invalidate keys explicitly. Set accepts dependency tags so a
// mutation can invalidate every projection it touched by exact key.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, tags ...string) error
	Del(ctx context.Context, keys ...string) error
	// DelPattern removes all keys matching a glob pattern. Kept for
	// interoperating tooling that still relies on prefix wipes
	// (e.g. products_*).
	DelPattern(ctx context.Context, pattern string) error
	// InvalidateTag deletes every key registered under the tag.
	InvalidateTag(ctx context.Context, tag string) error
}

// housekeepingTTL only ages out orphaned keys; it is not a
// consistency mechanism.
const housekeepingTTL = 24 * time.Hour

const tagPrefix = "tag:"

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, housekeepingTTL)
	for _, tag := range tags {
		tagKey := tagPrefix + tag
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, housekeepingTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *redisStore) DelPattern(ctx context.Context, pattern string) error {
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.Del(ctx, keys...)
}

func (s *redisStore) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := tagPrefix + tag
	members, err := s.rdb.SMembers(ctx, tagKey).Result()
	if err != nil {
		return err
	}
	keys := append(members, tagKey)
	return s.rdb.Del(ctx, keys...).Err()
}

// Cache key scheme. The exact formats interoperate with external
// tooling and must not change.
func KeyCartLine(userID, variantID int64) string {
	return fmt.Sprintf("cart_user_%d_product_%d", userID, variantID)
}

func KeyCartList(userID int64) string {
	return fmt.Sprintf("cart_products_user_%d", userID)
}

func KeyCombo(comboID int64) string {
	return fmt.Sprintf("product_combo_%d", comboID)
}

const (
	KeyAllCombos           = "all_product_combos"
	KeyAllCombosManagement = "all_product_combos_management"
	PatternProducts        = "products_*"
)

// Dependency tags.
func TagUser(userID int64) string       { return fmt.Sprintf("user_%d", userID) }
func TagVariant(variantID int64) string { return fmt.Sprintf("variant_%d", variantID) }
func TagCombo(comboID int64) string     { return fmt.Sprintf("combo_%d", comboID) }
