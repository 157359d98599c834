package setup

import (
	"context"
	"errors"
	"testing"

	gormModels "prosocial/zen-core/internal/models/gorm"
)

// fakeRuleStore keeps rules in memory and records upserts
type fakeRuleStore struct {
	rules   map[string]gormModels.SectionRule
	upserts int
	listErr error
}

func newFakeRuleStore(rules ...gormModels.SectionRule) *fakeRuleStore {
	store := &fakeRuleStore{rules: make(map[string]gormModels.SectionRule)}
	for _, r := range rules {
		store.rules[r.SectionID] = r
	}
	return store
}

func (f *fakeRuleStore) ListActive(ctx context.Context) ([]gormModels.SectionRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []gormModels.SectionRule
	for _, r := range f.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *fakeRuleStore) ListAll(ctx context.Context) ([]gormModels.SectionRule, error) {
	var all []gormModels.SectionRule
	for _, r := range f.rules {
		all = append(all, r)
	}
	return all, nil
}

func (f *fakeRuleStore) Upsert(ctx context.Context, rule *gormModels.SectionRule) error {
	f.upserts++
	f.rules[rule.SectionID] = *rule
	return nil
}

func (f *fakeRuleStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.rules)), nil
}

func TestUpsertRule_RejectsMissingSectionID(t *testing.T) {
	svc := NewRuleRegistryService(newFakeRuleStore())

	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		Weight:         10,
		RequiredFields: []string{"name"},
		IsActive:       true,
	})

	assertValidationError(t, err)
}

func TestUpsertRule_RejectsNonPositiveWeight(t *testing.T) {
	svc := NewRuleRegistryService(newFakeRuleStore())

	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		SectionID:      "precios",
		Weight:         0,
		RequiredFields: []string{"basePrice"},
		IsActive:       true,
	})

	assertValidationError(t, err)
}

func TestUpsertRule_RejectsActiveRuleWithoutRequiredFields(t *testing.T) {
	svc := NewRuleRegistryService(newFakeRuleStore())

	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		SectionID: "redes-sociales",
		Weight:    5,
		IsActive:  true,
	})

	assertValidationError(t, err)
}

func TestUpsertRule_AllowsInactiveRuleWithoutRequiredFields(t *testing.T) {
	store := newFakeRuleStore()
	svc := NewRuleRegistryService(store)

	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		SectionID:      "redes-sociales",
		Weight:         5,
		OptionalFields: []string{"instagramUrl"},
		IsActive:       false,
	})

	if err != nil {
		t.Fatalf("Expected inactive rule to be accepted, got %v", err)
	}
	if store.upserts != 1 {
		t.Errorf("Expected 1 upsert, got %d", store.upserts)
	}
}

func TestUpsertRule_RefusesCycleIntroducingEdit(t *testing.T) {
	store := newFakeRuleStore(
		rule("a", []string{"name"}, nil, []string{"b"}, 10, 1),
	)
	svc := NewRuleRegistryService(store)

	// b depending on a would close the loop
	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		SectionID:      "b",
		Weight:         10,
		RequiredFields: []string{"email"},
		Dependencies:   []string{"a"},
		IsActive:       true,
	})

	assertValidationError(t, err)
	if store.upserts != 0 {
		t.Error("Cycle-introducing rule must not be persisted")
	}
}

func TestUpsertRule_DeactivationBreaksCycleCheck(t *testing.T) {
	// An inactive edit is excluded from the active graph, so replacing a
	// cycle participant with an inactive version is always accepted
	store := newFakeRuleStore(
		rule("a", []string{"name"}, nil, []string{"b"}, 10, 1),
		rule("b", []string{"email"}, nil, nil, 10, 2),
	)
	svc := NewRuleRegistryService(store)

	updated := rule("b", []string{"email"}, nil, []string{"a"}, 10, 2)
	updated.IsActive = false

	if err := svc.UpsertRule(context.Background(), &updated); err != nil {
		t.Fatalf("Expected inactive edit to bypass the cycle check, got %v", err)
	}
}

func TestUpsertRule_PropagatesStoreError(t *testing.T) {
	store := newFakeRuleStore()
	store.listErr = errors.New("connection refused")
	svc := NewRuleRegistryService(store)

	err := svc.UpsertRule(context.Background(), &gormModels.SectionRule{
		SectionID:      "a",
		Weight:         10,
		RequiredFields: []string{"name"},
		IsActive:       true,
	})

	if !errors.Is(err, store.listErr) {
		t.Errorf("Expected store error to propagate, got %v", err)
	}
}

func TestEnsureDefaultRules_SeedsEmptyStore(t *testing.T) {
	store := newFakeRuleStore()
	svc := NewRuleRegistryService(store)

	if err := svc.EnsureDefaultRules(context.Background()); err != nil {
		t.Fatalf("Expected seeding to succeed, got %v", err)
	}

	if len(store.rules) != len(DefaultSectionRules()) {
		t.Fatalf("Expected %d seeded rules, got %d", len(DefaultSectionRules()), len(store.rules))
	}

	// The default flow itself must pass every registry validation
	for _, r := range DefaultSectionRules() {
		stored, ok := store.rules[r.SectionID]
		if !ok {
			t.Errorf("Default rule %s not seeded", r.SectionID)
			continue
		}
		if stored.IsActive && len(stored.RequiredFields) == 0 {
			t.Errorf("Seeded active rule %s has no required fields", r.SectionID)
		}
	}
}

func TestEnsureDefaultRules_NoOpWhenPopulated(t *testing.T) {
	store := newFakeRuleStore(rule("custom", []string{"name"}, nil, nil, 10, 1))
	svc := NewRuleRegistryService(store)

	if err := svc.EnsureDefaultRules(context.Background()); err != nil {
		t.Fatalf("Expected no-op to succeed, got %v", err)
	}
	if store.upserts != 0 {
		t.Errorf("Expected no upserts on a populated store, got %d", store.upserts)
	}
}

func TestDefaultSectionRules_AreAcyclic(t *testing.T) {
	var active []gormModels.SectionRule
	for _, r := range DefaultSectionRules() {
		if r.IsActive {
			active = append(active, r)
		}
	}
	if _, err := SortRules(active); err != nil {
		t.Fatalf("Default rule set must sort cleanly, got %v", err)
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected a validation error")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
}
