package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	gormModels "prosocial/zen-core/internal/models/gorm"
)

// StudioRepository handles tenant lookups and the tables backing field
// extraction (studios, studio_settings, catalog_items)
type StudioRepository struct {
	db *gorm.DB
}

// NewStudioRepository creates a new GORM-based studio repository
func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

// GetBySlug retrieves a studio by its public slug
func (r *StudioRepository) GetBySlug(ctx context.Context, slug string) (*gormModels.Studio, error) {
	var studio gormModels.Studio

	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&studio).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch studio by slug: %w", err)
	}

	return &studio, nil
}

// GetByID retrieves a studio by its ID
func (r *StudioRepository) GetByID(ctx context.Context, studioID string) (*gormModels.Studio, error) {
	var studio gormModels.Studio

	err := r.db.WithContext(ctx).
		Where("id = ?", studioID).
		First(&studio).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch studio: %w", err)
	}

	return &studio, nil
}

// GetSettings returns the studio's key/value settings as a map
func (r *StudioRepository) GetSettings(ctx context.Context, studioID string) (map[string]string, error) {
	var settings []gormModels.StudioSetting

	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Find(&settings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch studio settings: %w", err)
	}

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return result, nil
}

// CountActiveCatalogItems counts a studio's active catalog entries
func (r *StudioRepository) CountActiveCatalogItems(ctx context.Context, studioID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.CatalogItem{}).
		Where("studio_id = ? AND is_active = ?", studioID, true).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count catalog items: %w", err)
	}

	return count, nil
}

// ListActive retrieves all active studios (batch revalidation)
func (r *StudioRepository) ListActive(ctx context.Context) ([]gormModels.Studio, error) {
	var studios []gormModels.Studio

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&studios).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch active studios: %w", err)
	}

	return studios, nil
}
