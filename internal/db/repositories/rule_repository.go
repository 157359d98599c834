package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "prosocial/zen-core/internal/models/gorm"
)

// RuleRepository handles section_rules table operations using GORM
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new GORM-based rule repository
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// ListActive retrieves active rules in stable declared order
func (r *RuleRepository) ListActive(ctx context.Context) ([]gormModels.SectionRule, error) {
	var rules []gormModels.SectionRule

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC").
		Find(&rules).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch active section rules: %w", err)
	}

	return rules, nil
}

// ListAll retrieves every rule regardless of active flag
func (r *RuleRepository) ListAll(ctx context.Context) ([]gormModels.SectionRule, error) {
	var rules []gormModels.SectionRule

	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&rules).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch section rules: %w", err)
	}

	return rules, nil
}

// Upsert creates or replaces a rule by section_id in a single statement
func (r *RuleRepository) Upsert(ctx context.Context, rule *gormModels.SectionRule) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "section_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "required_fields", "optional_fields",
				"dependencies", "weight", "position", "is_active", "updated_at",
			}),
		}).
		Create(rule).Error

	if err != nil {
		return fmt.Errorf("failed to upsert section rule %s: %w", rule.SectionID, err)
	}

	return nil
}

// Count returns the total number of rules
func (r *RuleRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.SectionRule{}).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count section rules: %w", err)
	}

	return count, nil
}
