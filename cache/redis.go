// Package cache keeps enrollment embeddings in Redis so restarts skip the engine for known images.
package cache

import (
	"context"
	"errors"
	"time"

	"idcheck/faces"
	"idcheck/utils"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "idcheck:embedding:"

type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *EmbeddingCache {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &EmbeddingCache{client: client, ttl: ttl}
}

func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached embedding; any failure is logged and treated as a miss.
func (c *EmbeddingCache) Get(ctx context.Context, key string) (faces.Embedding, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("Redis GET failed: %v", err)
		}
		return nil, false
	}
	if len(data) == 0 || len(data)%4 != 0 {
		log.Warnf("Ignoring malformed cached embedding for %s (%d bytes)", key, len(data))
		return nil, false
	}
	return faces.Embedding(utils.ByteArrayToFloat32Array(data)), true
}

func (c *EmbeddingCache) Set(ctx context.Context, key string, embedding faces.Embedding) {
	data := utils.Float32ArrayToByteArray(embedding)
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		log.Warnf("Redis SET failed: %v", err)
	}
}

func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}
