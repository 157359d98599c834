package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prosocial/zen-core/internal/constants"
	"prosocial/zen-core/internal/models/entities"
)

// ProgressLogRepository appends to and reads the immutable
// setup_progress_logs table. Writes go through the raw sqlx path so
// they never join the status upsert's transaction.
type ProgressLogRepository struct {
	db *sqlx.DB
}

func NewProgressLogRepository(db *sqlx.DB) *ProgressLogRepository {
	return &ProgressLogRepository{db: db}
}

// Append inserts one audit entry. Entries are never updated or deleted.
func (r *ProgressLogRepository) Append(ctx context.Context, entry *entities.SetupProgressLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	metadata := entry.Metadata
	if metadata == nil {
		metadata = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, constants.InsertProgressLog,
		entry.ID,
		entry.StudioID,
		entry.SectionID,
		entry.EventType,
		entry.PreviousStatus,
		entry.NewStatus,
		metadata,
		entry.CreatedAt,
	)
	return err
}

// ListByStudio returns the most recent entries for a studio
func (r *ProgressLogRepository) ListByStudio(ctx context.Context, studioID string, limit int) ([]entities.SetupProgressLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []entities.SetupProgressLog
	err := r.db.SelectContext(ctx, &entries, constants.GetProgressLogsByStudio, studioID, limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
