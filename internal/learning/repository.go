package learning

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/swachhsetu/training-backend/internal/directory"
)

// Repository exposes the read-only counts the compliance aggregator needs
// from the learning module.
type Repository interface {
	CountCompletedInRange(ctx context.Context, kind directory.UserKind, ids []string, from, to time.Time) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func userColumn(kind directory.UserKind) string {
	if kind == directory.KindWorker {
		return "worker_id"
	}
	return "citizen_id"
}

// CountCompletedInRange returns per-user completed-material counts within a
// window, batched over one grouped query.
func (r *repository) CountCompletedInRange(ctx context.Context, kind directory.UserKind, ids []string, from, to time.Time) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	column := userColumn(kind)

	type row struct {
		UserID string
		Count  int64
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&LearningProgress{}).
		Select(column+" AS user_id, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Where("completed_at >= ? AND completed_at <= ?", from, to).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		counts[rw.UserID] = rw.Count
	}
	return counts, nil
}
