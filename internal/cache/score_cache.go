package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pulmoscan/internal/model"
)

// ScoreCache caches raw backend scores keyed by image content, so a
// repeated upload skips the remote round trip. Diagnoses themselves
// are never stored.
type ScoreCache interface {
	Get(ctx context.Context, imageBytes []byte) ([]model.RawScore, error)
	Set(ctx context.Context, imageBytes []byte, scores []model.RawScore) error
}

type scoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache creates a Redis-backed score cache.
func NewScoreCache(client *redis.Client) ScoreCache {
	return &scoreCache{
		client: client,
		ttl:    1 * time.Hour,
	}
}

func (c *scoreCache) key(imageBytes []byte) string {
	sum := sha256.Sum256(imageBytes)
	return fmt.Sprintf("scores:remote:%s", hex.EncodeToString(sum[:]))
}

// Get returns cached scores, or nil on a miss.
func (c *scoreCache) Get(ctx context.Context, imageBytes []byte) ([]model.RawScore, error) {
	data, err := c.client.Get(ctx, c.key(imageBytes)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var scores []model.RawScore
	if err := json.Unmarshal([]byte(data), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *scoreCache) Set(ctx context.Context, imageBytes []byte, scores []model.RawScore) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(imageBytes), data, c.ttl).Err()
}
