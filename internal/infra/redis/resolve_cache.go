package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"duet-quiz-service/internal/app"
	"duet-quiz-service/internal/domain"
)

// ResolveCache decorates an InstanceRepository with a Redis cache on the
// resolve-by-code path, the one read that fans out to many responders in
// shared mode. Writes pass straight through; completing an instance drops
// its code entry so a dead code stops resolving immediately.
type ResolveCache struct {
	client *redis.Client
	inner  app.InstanceRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewResolveCache(client *redis.Client, inner app.InstanceRepository, ttl time.Duration) *ResolveCache {
	return &ResolveCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ResolveCache) Create(ctx context.Context, inst *domain.QuizInstance) error {
	return c.inner.Create(ctx, inst)
}

func (c *ResolveCache) Get(ctx context.Context, id string) (domain.QuizInstance, error) {
	return c.inner.Get(ctx, id)
}

func (c *ResolveCache) GetByCode(ctx context.Context, code string) (domain.QuizInstance, error) {
	key := c.codeKey(code)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var inst domain.QuizInstance
		if err := json.Unmarshal(raw, &inst); err == nil {
			return inst, nil
		}
		// Corrupt entry: fall through and rebuild from the store.
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var inst domain.QuizInstance
			if err := json.Unmarshal(raw, &inst); err == nil {
				return inst, nil
			}
		}

		inst, err := c.inner.GetByCode(ctx, code)
		if err != nil {
			return domain.QuizInstance{}, err
		}
		if raw, err := json.Marshal(inst); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return inst, nil
	})
	if err != nil {
		return domain.QuizInstance{}, err
	}
	return result.(domain.QuizInstance), nil
}

func (c *ResolveCache) SealCreator(ctx context.Context, id string, answers domain.AnswerSet, code string) error {
	// No cache entry can exist before the code is first resolved, so there
	// is nothing to invalidate here.
	return c.inner.SealCreator(ctx, id, answers, code)
}

func (c *ResolveCache) AddResponse(ctx context.Context, id, responderID string, answers domain.AnswerSet, complete bool) error {
	if err := c.inner.AddResponse(ctx, id, responderID, answers, complete); err != nil {
		return err
	}
	if complete {
		if inst, err := c.inner.Get(ctx, id); err == nil && inst.ShareCode != "" {
			_ = c.client.Del(ctx, c.codeKey(inst.ShareCode)).Err()
		}
	}
	return nil
}

func (c *ResolveCache) codeKey(code string) string {
	return "quiz:code:" + code
}

// ttlWithJitter adds up to 10% so shared-mode entries do not all expire at
// once.
func (c *ResolveCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
