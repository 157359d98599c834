package setup

import (
	"context"
	"fmt"

	"prosocial/zen-core/internal/constants"
	"prosocial/zen-core/internal/logging"
	gormModels "prosocial/zen-core/internal/models/gorm"
)

// RuleStore is the persistence slice the registry needs
type RuleStore interface {
	ListActive(ctx context.Context) ([]gormModels.SectionRule, error)
	ListAll(ctx context.Context) ([]gormModels.SectionRule, error)
	Upsert(ctx context.Context, rule *gormModels.SectionRule) error
	Count(ctx context.Context) (int64, error)
}

// RuleRegistryService supplies the ordered set of active section rules
// and validates administrator edits. Rules are configuration data; the
// registry never derives them.
type RuleRegistryService struct {
	store RuleStore
}

func NewRuleRegistryService(store RuleStore) *RuleRegistryService {
	return &RuleRegistryService{store: store}
}

// ListActiveRules returns active rules in stable declared order.
// Dependency ordering is the evaluator's job, not the registry's.
func (s *RuleRegistryService) ListActiveRules(ctx context.Context) ([]gormModels.SectionRule, error) {
	return s.store.ListActive(ctx)
}

// ListAllRules returns every rule, active or not, for the admin surface
func (s *RuleRegistryService) ListAllRules(ctx context.Context) ([]gormModels.SectionRule, error) {
	return s.store.ListAll(ctx)
}

// UpsertRule creates or replaces a rule by its section id
func (s *RuleRegistryService) UpsertRule(ctx context.Context, rule *gormModels.SectionRule) error {
	if rule.SectionID == "" {
		return NewValidationError(constants.ErrCodeRuleInvalid, "sectionId is required")
	}
	if rule.Weight <= 0 {
		return NewValidationError(
			constants.ErrCodeRuleInvalid,
			fmt.Sprintf("rule %s: weight must be positive", rule.SectionID),
		)
	}
	if rule.IsActive && len(rule.RequiredFields) == 0 {
		return NewValidationError(
			constants.ErrCodeRuleInvalid,
			fmt.Sprintf("rule %s: an active rule needs at least one required field", rule.SectionID),
		)
	}

	// Refuse edits that would wedge every future evaluation
	existing, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	merged := mergeRule(existing, rule)
	if _, err := SortRules(merged); err != nil {
		return err
	}

	return s.store.Upsert(ctx, rule)
}

// EnsureDefaultRules seeds the canonical ZEN onboarding sections when
// the rules table is empty, typically on first boot
func (s *RuleRegistryService) EnsureDefaultRules(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, rule := range DefaultSectionRules() {
		r := rule
		if err := s.store.Upsert(ctx, &r); err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", rule.SectionID, err)
		}
	}

	logging.Info("Seeded default section rules", "count", len(DefaultSectionRules()))
	return nil
}

// mergeRule replaces or appends rule within the active set for cycle checking
func mergeRule(existing []gormModels.SectionRule, rule *gormModels.SectionRule) []gormModels.SectionRule {
	merged := make([]gormModels.SectionRule, 0, len(existing)+1)
	replaced := false
	for _, r := range existing {
		if r.SectionID == rule.SectionID {
			if rule.IsActive {
				merged = append(merged, *rule)
			}
			replaced = true
			continue
		}
		merged = append(merged, r)
	}
	if !replaced && rule.IsActive {
		merged = append(merged, *rule)
	}
	return merged
}

// DefaultSectionRules is the stock ZEN studio onboarding flow
func DefaultSectionRules() []gormModels.SectionRule {
	return []gormModels.SectionRule{
		{
			SectionID:      constants.SectionIdentidad,
			Title:          "Identidad del estudio",
			RequiredFields: []string{"name", "slug", "logoUrl"},
			OptionalFields: []string{"slogan", "description"},
			Dependencies:   []string{},
			Weight:         20,
			Position:       1,
			IsActive:       true,
		},
		{
			SectionID:      constants.SectionContacto,
			Title:          "Datos de contacto",
			RequiredFields: []string{"email", "phone"},
			OptionalFields: []string{"website", "address"},
			Dependencies:   []string{constants.SectionIdentidad},
			Weight:         15,
			Position:       2,
			IsActive:       true,
		},
		{
			SectionID:      constants.SectionRedes,
			Title:          "Redes sociales",
			RequiredFields: []string{},
			OptionalFields: []string{"instagramUrl", "facebookUrl"},
			Dependencies:   []string{constants.SectionIdentidad},
			Weight:         5,
			Position:       3,
			// Optional showcase section: shipped inactive because the
			// registry requires active rules to have required fields
			IsActive: false,
		},
		{
			SectionID:      constants.SectionPrecios,
			Title:          "Precios base",
			RequiredFields: []string{"basePrice", "advancePercentage"},
			OptionalFields: []string{"standardHours"},
			Dependencies:   []string{constants.SectionIdentidad},
			Weight:         25,
			Position:       4,
			IsActive:       true,
		},
		{
			SectionID:      constants.SectionServicios,
			Title:          "Catálogo de servicios",
			RequiredFields: []string{"activeServices"},
			OptionalFields: []string{},
			Dependencies:   []string{constants.SectionPrecios},
			Weight:         20,
			Position:       5,
			IsActive:       true,
		},
		{
			SectionID:      constants.SectionCondiciones,
			Title:          "Condiciones comerciales",
			RequiredFields: []string{"paymentTerms", "cancellationPolicy"},
			OptionalFields: []string{"depositPolicy"},
			Dependencies:   []string{constants.SectionPrecios},
			Weight:         15,
			Position:       6,
			IsActive:       true,
		},
	}
}
