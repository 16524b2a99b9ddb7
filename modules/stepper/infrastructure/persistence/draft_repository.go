package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/onboarding/modules/stepper/domain/draft"
)

type DraftRepository struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDraftRepository stores drafts as JSON strings that expire after ttl.
// A zero ttl keeps them forever.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{redis: client, prefix: "onboarding:drafts:v1", ttl: ttl}
}

// WithPrefix namespaces the keys; an empty prefix keeps the default.
func (r *DraftRepository) WithPrefix(prefix string) *DraftRepository {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

func (r *DraftRepository) key(k string) string {
	return r.prefix + ":{" + k + "}"
}

func (r *DraftRepository) Get(ctx context.Context, key string) (draft.Draft, bool, error) {
	result, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return draft.Draft{}, false, nil
		}
		return draft.Draft{}, false, errors.Wrap(err, "get draft")
	}
	model, err := decodeDraft([]byte(result))
	if err != nil {
		return draft.Draft{}, false, err
	}
	return model, true, nil
}

func (r *DraftRepository) Save(ctx context.Context, d draft.Draft) error {
	data, err := encodeDraft(d)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key(d.Key), data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "save draft")
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrap(err, "delete draft")
	}
	return nil
}
