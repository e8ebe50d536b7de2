package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"doclib/internal/config"
	"doclib/internal/model"
)

// Redis stores documents as JSON under document:<id> with a fixed TTL, guarded
// by a counter under document:<id>:gen.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ DocumentCache = (*Redis)(nil)

// NewRedis creates a client for cfg. It does not dial; the first command does.
func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, ttl: time.Duration(cfg.TTLSec) * time.Second}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, id string) (*model.Document, uint64, error) {
	vals, err := r.client.MGet(ctx, key(id), genKey(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get %s: %w", id, err)
	}

	gen, err := parseGen(vals[1])
	if err != nil {
		return nil, 0, fmt.Errorf("decode generation %s: %w", id, err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, gen, fmt.Errorf("decode cached document %s: %w", id, err)
	}
	return &doc, gen, nil
}

// Set writes doc under WATCH on its generation key. A generation that moved
// since gen, before or during the transaction, drops the write.
func (r *Redis) Set(ctx context.Context, doc *model.Document, gen uint64) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey(doc.ID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		n, err := parseGen(cur)
		if err != nil {
			return err
		}
		if n != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(doc.ID), data, r.ttl)
			return nil
		})
		return err
	}, genKey(doc.ID))

	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("redis set %s: %w", doc.ID, err)
	}
}

// Invalidate advances the generation and drops the cached document in one transaction.
func (r *Redis) Invalidate(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(id))
		pipe.Expire(ctx, genKey(id), r.genTTL())
		pipe.Del(ctx, key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %s: %w", id, err)
	}
	return nil
}

// genTTL keeps generation keys well past any document entry they guard.
func (r *Redis) genTTL() time.Duration {
	return max(10*r.ttl, time.Hour)
}

var errStale = errors.New("stale cache generation")

func genKey(id string) string {
	return key(id) + ":gen"
}

// parseGen reads a generation as returned by MGET or GET; absent means zero.
func parseGen(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func key(id string) string {
	return "document:" + id
}
