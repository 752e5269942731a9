package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard-api/internal/models"
)

const (
	boardCachePrefix = "board"
	boardVersion     = 1
)

type cachedBoard struct {
	Version  int            `json:"version"`
	CachedAt time.Time      `json:"cachedAt"`
	Project  models.Project `json:"project"`
}

// BoardCache keeps JSON snapshots of fully loaded boards in Redis. All
// failures are logged and treated as misses.
//
// Each project also has a generation counter that Invalidate bumps. A reader
// takes the generation on a miss and hands it back to Set, which stores the
// snapshot only while the generation is unchanged, so a board loaded before a
// concurrent write never outlives that write's invalidation.
type BoardCache struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewBoardCache creates a new BoardCache. A non-positive ttl defaults to five minutes.
func NewBoardCache(client *redis.Client, ttl time.Duration) *BoardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BoardCache{redis: client, ttl: ttl, now: time.Now}
}

func boardKey(projectID uint64) string {
	return fmt.Sprintf("%s:%d", boardCachePrefix, projectID)
}

func generationKey(projectID uint64) string {
	return fmt.Sprintf("%s:%d:gen", boardCachePrefix, projectID)
}

var errStaleBoard = errors.New("board changed while loading")

// parseGeneration reads a generation counter; a missing counter is 0.
func parseGeneration(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// Get returns the cached board. On a miss it returns the project's current
// generation instead, to be passed to Set once the board is loaded.
func (c *BoardCache) Get(ctx context.Context, projectID uint64) (*models.Project, uint64, bool) {
	fields := log.Fields{"project": projectID}

	raw, err := c.redis.MGet(ctx, boardKey(projectID), generationKey(projectID)).Result()
	if err != nil {
		log.WithError(err).WithFields(fields).Error("failed to read board cache entry")
		return nil, 0, false
	}
	rawGen, _ := raw[1].(string)
	gen, err := parseGeneration(rawGen)
	if err != nil {
		log.WithError(err).WithFields(fields).Warn("unreadable board generation")
		return nil, 0, false
	}

	payload, ok := raw[0].(string)
	if !ok {
		return nil, gen, false
	}
	var entry cachedBoard
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		log.WithError(err).WithFields(fields).Warn("discarding unreadable board cache entry")
		return nil, gen, false
	}
	if entry.Version != boardVersion || entry.Project.ID != projectID {
		return nil, gen, false
	}
	return &entry.Project, gen, true
}

// Set stores a snapshot of project loaded at generation gen. The snapshot is
// dropped when the project was invalidated after gen was read.
func (c *BoardCache) Set(ctx context.Context, project *models.Project, gen uint64) {
	fields := log.Fields{"project": project.ID, "generation": gen}

	payload, err := json.Marshal(cachedBoard{
		Version:  boardVersion,
		CachedAt: c.now().UTC(),
		Project:  *project,
	})
	if err != nil {
		log.WithError(err).WithFields(fields).Error("failed to marshal board cache payload")
		return
	}

	genKey := generationKey(project.ID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current, err := parseGeneration(raw)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleBoard
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, boardKey(project.ID), payload, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleBoard), errors.Is(err, redis.TxFailedErr):
		log.WithFields(fields).Debug("skipping stale board snapshot")
	default:
		log.WithError(err).WithFields(fields).Error("failed to store board cache entry")
	}
}

// Invalidate drops the snapshot of a project and bumps its generation.
func (c *BoardCache) Invalidate(ctx context.Context, projectID uint64) {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(projectID))
		pipe.Del(ctx, boardKey(projectID))
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("project", projectID).Error("failed to delete board cache entry")
	}
}
