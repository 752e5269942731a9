package services

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// BoardCache stores snapshots of fully loaded boards. Implementations treat
// every failure as a miss.
type BoardCache interface {
	// Get returns a snapshot, or on a miss the generation to hand to Set.
	Get(ctx context.Context, projectID uint64) (*models.Project, uint64, bool)
	// Set stores a snapshot loaded at generation gen unless the project was
	// invalidated since.
	Set(ctx context.Context, project *models.Project, gen uint64)
	Invalidate(ctx context.Context, projectID uint64)
}

// invalidateBoard runs after commit so readers never cache uncommitted state.
func invalidateBoard(ctx context.Context, cache BoardCache, projectID uint64) {
	if cache == nil {
		return
	}
	cache.Invalidate(ctx, projectID)
}

// logFailure records internal and integrity errors, which indicate a bug
// rather than bad input.
func logFailure(err error, op string, fields log.Fields) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindIntegrity:
		log.WithError(err).WithFields(fields).Errorf("%s failed", op)
	}
}

func requireTitle(entity, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.InvalidArgument(entity, 0, "title", "title is required")
	}
	return title, nil
}

func validatePosition(entity string, id uint64, position int) error {
	if position < 1 {
		return apperr.InvalidArgument(entity, id, "position", "must be >= 1")
	}
	return nil
}
