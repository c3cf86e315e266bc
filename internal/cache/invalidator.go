package cache

import (
	"context"
	"log"
	"sync"
)

// RetryQueue receives invalidations that could not be applied so a
// reconciliation worker can replay them. A stale cache entry is a
// degraded read, not a ledger correctness violation, so queueing (or
// at worst logging) is enough.
type RetryQueue interface {
	Publish(ctx context.Context, payload interface{}) error
}

// RetryMessage is the queued payload for one failed deletion.
type RetryMessage struct {
	Kind   string `json:"kind"` // key | pattern | tag
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// Invalidation is the full set of derived state touched by one write.
type Invalidation struct {
	Keys     []string
	Patterns []string
	Tags     []string
}

// Invalidator fans out cache deletions after a write commits. It never
// returns an error: failures are logged and queued for retry, and the
// user-visible mutation has already succeeded.
type Invalidator struct {
	store Store
	queue RetryQueue
}

func NewInvalidator(store Store, queue RetryQueue) *Invalidator {
	return &Invalidator{store: store, queue: queue}
}

// Invalidate must be called only after the ledger write has committed;
// deleting before commit lets a concurrent reader repopulate the cache
// with pre-write data.
func (inv *Invalidator) Invalidate(ctx context.Context, i Invalidation) {
	var wg sync.WaitGroup

	run := func(kind, target string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				inv.report(ctx, kind, target, err)
			}
		}()
	}

	for _, key := range i.Keys {
		key := key
		run("key", key, func() error { return inv.store.Del(ctx, key) })
	}
	for _, pattern := range i.Patterns {
		pattern := pattern
		run("pattern", pattern, func() error { return inv.store.DelPattern(ctx, pattern) })
	}
	for _, tag := range i.Tags {
		tag := tag
		run("tag", tag, func() error { return inv.store.InvalidateTag(ctx, tag) })
	}

	wg.Wait()
}

func (inv *Invalidator) report(ctx context.Context, kind, target string, cause error) {
	log.Printf("CRITICAL: cache invalidation failed (%s %s): %v", kind, target, cause)
	if inv.queue == nil {
		return
	}
	msg := RetryMessage{Kind: kind, Target: target, Reason: cause.Error()}
	if err := inv.queue.Publish(ctx, msg); err != nil {
		log.Printf("CRITICAL: cache invalidation retry enqueue failed (%s %s): %v", kind, target, err)
	}
}
