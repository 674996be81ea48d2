package cache

import (
	"context"
	"encoding/json"
	"time"

	"tuneshelf/logger"
	"tuneshelf/model"

	"github.com/go-redis/redis/v8"
)

const (
	songListKey = "songs:all"
	songListTTL = 30 * time.Second
)

// SongCache caches the full song listing in Redis. A cache built over a
// nil client is a no-op: every read misses and writes are dropped, so the
// handlers work unchanged when Redis is not configured.
type SongCache struct {
	client *redis.Client
}

// NewSongCache creates a SongCache. client may be nil.
func NewSongCache(client *redis.Client) *SongCache {
	return &SongCache{client: client}
}

// GetSongList returns the cached listing and whether it was present.
func (c *SongCache) GetSongList(ctx context.Context) ([]*model.Song, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, songListKey).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Failed to read song list from cache", logger.ErrorField(err))
		}
		return nil, false
	}

	var songs []*model.Song
	if err := json.Unmarshal([]byte(payload), &songs); err != nil {
		logger.Warn("Failed to unmarshal cached song list", logger.ErrorField(err))
		return nil, false
	}
	return songs, true
}

// SetSongList stores the listing with a short TTL. Cache failures are
// logged and otherwise ignored; the repository stays the source of truth.
func (c *SongCache) SetSongList(ctx context.Context, songs []*model.Song) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(songs)
	if err != nil {
		logger.Warn("Failed to marshal song list for cache", logger.ErrorField(err))
		return
	}

	if err := c.client.Set(ctx, songListKey, payload, songListTTL).Err(); err != nil {
		logger.Warn("Failed to write song list to cache", logger.ErrorField(err))
	}
}

// Invalidate drops the cached listing. Called after every successful ingest.
func (c *SongCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, songListKey).Err(); err != nil {
		logger.Warn("Failed to invalidate song list cache", logger.ErrorField(err))
	}
}
