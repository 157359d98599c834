package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "prosocial/zen-core/internal/models/gorm"
)

// StatusRepository handles the per-studio aggregate status row using GORM
type StatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new GORM-based status repository
func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetByStudioID retrieves the last persisted aggregate for a studio
func (r *StatusRepository) GetByStudioID(ctx context.Context, studioID string) (*gormModels.StudioSetupStatus, error) {
	var status gormModels.StudioSetupStatus

	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		First(&status).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch setup status: %w", err)
	}

	return &status, nil
}

// Upsert writes the aggregate as a single atomic create-or-update on
// studio_id. Concurrent revalidations for the same studio resolve as
// last-write-wins; there is no read-modify-write pair to lose updates in.
func (r *StatusRepository) Upsert(ctx context.Context, status *gormModels.StudioSetupStatus) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "studio_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sections", "overall_progress", "is_fully_configured",
				"last_validated_at", "updated_at",
			}),
		}).
		Create(status).Error

	if err != nil {
		return fmt.Errorf("failed to upsert setup status for studio %s: %w", status.StudioID, err)
	}

	return nil
}
