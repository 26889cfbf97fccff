package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"car-showroom/internal/cache"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisStore keeps drafts in Redis with a sliding TTL. Updates use
// WATCH/MULTI and are retried when another writer got in first.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func draftKey(id string) string    { return fmt.Sprintf(cache.KeyDraft, id) }
func ownerKey(owner string) string { return fmt.Sprintf(cache.KeyDraftOwner, owner) }

func (r *RedisStore) Create(ctx context.Context, s State) error {
	s.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, draftKey(s.ID), raw, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	if !ok {
		return ErrDraftExists
	}

	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, ownerKey(s.OwnerUID), s.ID)
	pipe.Expire(ctx, ownerKey(s.OwnerUID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index draft: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (State, error) {
	raw, err := r.rdb.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrDraftNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load draft: %w", err)
	}
	return decodeState(raw)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	key := draftKey(id)
	var updated State

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrDraftNotFound
		}
		if err != nil {
			return err
		}

		s, err := decodeState(raw)
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now().UTC()

		next, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode draft: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			pipe.Expire(ctx, ownerKey(s.OwnerUID), r.ttl)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return State{}, err
	}
	return State{}, ErrConcurrentUpdate
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Load(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, draftKey(id))
	pipe.SRem(ctx, ownerKey(s.OwnerUID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (r *RedisStore) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, ownerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return ids, nil
}

func (r *RedisStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	ids, err := r.ListByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, draftKey(id))
	}
	keys = append(keys, ownerKey(owner))

	removed, err := r.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete drafts: %w", err)
	}
	// removed includes the owner index key.
	return int(removed) - 1, nil
}

func decodeState(raw []byte) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	if s.Images == nil {
		s.Images = []Image{}
	}
	return s, nil
}
