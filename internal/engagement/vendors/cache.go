package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"engagement-letters/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// CachedSource serves dataset snapshots from redis, loading from Inner and
// storing the result for TTL on a miss. Redis failures degrade to Inner.
type CachedSource struct {
	Inner  Source
	Client redis.Cmdable
	Key    string
	TTL    time.Duration
	Logger logger.Logger
}

type snapshot struct {
	Source string `json:"source"`
	Rows   []Row  `json:"rows"`
}

func (s CachedSource) Load(ctx context.Context) (*Dataset, error) {
	log := s.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "vendors", "cacheKey": s.Key})

	raw, err := s.Client.Get(ctx, s.Key).Bytes()
	switch {
	case err == nil:
		var snap snapshot
		if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil {
			log.Debug("Vendor dataset served from cache", map[string]interface{}{"rows": len(snap.Rows)})
			return NewDataset(snap.Source, snap.Rows), nil
		}
		log.Warn("Discarding unreadable cached vendor dataset", nil)
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("Vendor cache unavailable", map[string]interface{}{"error": err.Error()})
	}

	ds, err := s.Inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snapshot{Source: ds.Source(), Rows: ds.rows})
	if err == nil {
		if setErr := s.Client.Set(ctx, s.Key, payload, s.TTL).Err(); setErr != nil {
			log.Warn("Failed to cache vendor dataset", map[string]interface{}{"error": setErr.Error()})
		}
	}
	return ds, nil
}
