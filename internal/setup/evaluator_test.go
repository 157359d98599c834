package setup

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"prosocial/zen-core/internal/constants"
	gormModels "prosocial/zen-core/internal/models/gorm"
)

// stubExtractor serves canned field data, or an error per section call
type stubExtractor struct {
	fields map[string]FieldValue
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(ctx context.Context, studioID string, fieldNames []string) (map[string]FieldValue, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[string]FieldValue, len(fieldNames))
	for _, name := range fieldNames {
		result[name] = s.fields[name]
	}
	return result, nil
}

func present(v any) FieldValue { return FieldValue{Present: true, Value: v} }

func rule(id string, required, optional, deps []string, weight float64, position int) gormModels.SectionRule {
	return gormModels.SectionRule{
		SectionID:      id,
		RequiredFields: required,
		OptionalFields: optional,
		Dependencies:   deps,
		Weight:         weight,
		Position:       position,
		IsActive:       true,
	}
}

func TestEvaluate_Idempotence(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("identidad", []string{"name", "logoUrl"}, []string{"slogan"}, nil, 20, 1),
		rule("precios", []string{"basePrice"}, nil, []string{"identidad"}, 25, 2),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"name":      present("Studio X"),
		"basePrice": present(100.0),
	}}

	ev := NewEvaluator()

	first, err := ev.Evaluate(context.Background(), "studio-1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := ev.Evaluate(context.Background(), "studio-1", rules, extractor, first.Sections)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first.OverallProgress != second.OverallProgress {
		t.Errorf("Overall progress changed between runs: %d vs %d", first.OverallProgress, second.OverallProgress)
	}
	for i := range first.Sections {
		a, b := first.Sections[i], second.Sections[i]
		if a.Status != b.Status || a.CompletionPercentage != b.CompletionPercentage {
			t.Errorf("Section %s changed: %s/%d vs %s/%d",
				a.SectionID, a.Status, a.CompletionPercentage, b.Status, b.CompletionPercentage)
		}
		if !reflect.DeepEqual(a.MissingFields, b.MissingFields) {
			t.Errorf("Section %s missing fields changed: %v vs %v", a.SectionID, a.MissingFields, b.MissingFields)
		}
	}
}

func TestEvaluate_MonotonicCompletedAt(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("identidad", []string{"name"}, nil, nil, 10, 1),
	}
	ev := NewEvaluator()

	complete := &stubExtractor{fields: map[string]FieldValue{"name": present("Studio X")}}
	first, err := ev.Evaluate(context.Background(), "s1", rules, complete, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.Sections[0].CompletedAt == nil {
		t.Fatal("Expected completedAt to be set on full required completion")
	}
	firstCompletedAt := *first.Sections[0].CompletedAt

	// The field is later emptied; completedAt must survive
	empty := &stubExtractor{fields: map[string]FieldValue{}}
	second, err := ev.Evaluate(context.Background(), "s1", rules, empty, first.Sections)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	snap := second.Sections[0]
	if snap.Status != string(constants.SectionStatusIncomplete) {
		t.Errorf("Expected incomplete after regression, got %s", snap.Status)
	}
	if snap.CompletedAt == nil {
		t.Fatal("completedAt was cleared by a later incomplete run")
	}
	if !snap.CompletedAt.Equal(firstCompletedAt) {
		t.Errorf("completedAt changed: %v vs %v", snap.CompletedAt, firstCompletedAt)
	}
}

func TestEvaluate_DependencyBlocking(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("a", []string{"name"}, nil, nil, 10, 1),
		rule("b", []string{"basePrice"}, nil, []string{"a"}, 10, 2),
	}
	// A's required field empty, B's present
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"basePrice": present(100.0),
	}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := sectionsByID(result)
	if byID["a"].Status != string(constants.SectionStatusIncomplete) {
		t.Errorf("Expected a incomplete, got %s", byID["a"].Status)
	}
	if byID["b"].Status != string(constants.SectionStatusBlocked) {
		t.Errorf("Expected b blocked despite full fields, got %s", byID["b"].Status)
	}
	if byID["b"].CompletionPercentage != 100 {
		t.Errorf("Blocked section should still report its field percentage, got %d", byID["b"].CompletionPercentage)
	}
	if result.IsFullyConfigured {
		t.Error("Aggregate must not be fully configured with a blocked section")
	}
}

func TestEvaluate_WeightedAggregate(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("a", []string{"name"}, nil, nil, 1, 1),
		rule("b", []string{"email"}, nil, nil, 3, 2),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"email": present("hola@studio.mx"),
	}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// (0*1 + 100*3) / 4 = 75
	if result.OverallProgress != 75 {
		t.Errorf("Expected overall progress 75, got %d", result.OverallProgress)
	}
}

func TestEvaluate_VacuousSection(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("vacia", nil, nil, nil, 10, 1),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	snap := result.Sections[0]
	if snap.CompletionPercentage != 100 {
		t.Errorf("Expected 100%%, got %d", snap.CompletionPercentage)
	}
	if snap.Status != string(constants.SectionStatusComplete) {
		t.Errorf("Expected complete, got %s", snap.Status)
	}
}

// The scenario from the onboarding flow: identity half done, pricing
// fully filled in but blocked behind identity. Blocked sections keep
// their raw percentage in the weighted sum.
func TestEvaluate_BlockedSectionContribution(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("identidad", []string{"name", "logoUrl"}, nil, nil, 20, 1),
		rule("precios", []string{"basePrice"}, nil, []string{"identidad"}, 25, 2),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"name":      present("Studio X"),
		"basePrice": present(100.0),
	}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := sectionsByID(result)
	if byID["identidad"].Status != string(constants.SectionStatusIncomplete) {
		t.Errorf("Expected identidad incomplete, got %s", byID["identidad"].Status)
	}
	if byID["identidad"].CompletionPercentage != 50 {
		t.Errorf("Expected identidad at 50%%, got %d", byID["identidad"].CompletionPercentage)
	}
	if got := byID["identidad"].MissingFields; len(got) != 1 || got[0] != "logoUrl" {
		t.Errorf("Expected missing [logoUrl], got %v", got)
	}
	if byID["precios"].Status != string(constants.SectionStatusBlocked) {
		t.Errorf("Expected precios blocked, got %s", byID["precios"].Status)
	}

	// round((50*20 + 100*25) / 45) = 78
	if result.OverallProgress != 78 {
		t.Errorf("Expected overall progress 78, got %d", result.OverallProgress)
	}
}

func TestEvaluate_DependencyEvaluatedFirstRegardlessOfPosition(t *testing.T) {
	// Declared order puts the dependent before its dependency
	rules := []gormModels.SectionRule{
		rule("b", []string{"email"}, nil, []string{"a"}, 10, 1),
		rule("a", []string{"name"}, nil, nil, 10, 2),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"name":  present("Studio X"),
		"email": present("hola@studio.mx"),
	}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := sectionsByID(result)
	if byID["b"].Status != string(constants.SectionStatusComplete) {
		t.Errorf("Expected b complete once a was evaluated first, got %s", byID["b"].Status)
	}
	if !result.IsFullyConfigured {
		t.Error("Expected fully configured aggregate")
	}
}

func TestSortRules_CycleDetection(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("a", []string{"x"}, nil, []string{"b"}, 10, 1),
		rule("b", []string{"y"}, nil, []string{"a"}, 10, 2),
	}

	_, err := SortRules(rules)
	if err == nil {
		t.Fatal("Expected cycle detection error")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
}

func TestEvaluate_ExtractionFailureDegradesSection(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("a", []string{"name"}, nil, nil, 10, 1),
	}
	extractor := &stubExtractor{err: errors.New("scan failed on studio_settings")}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected degraded result, got error %v", err)
	}

	snap := result.Sections[0]
	if snap.Status != string(constants.SectionStatusIncomplete) {
		t.Errorf("Expected incomplete, got %s", snap.Status)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != constants.ErrExtractionFailed {
		t.Errorf("Expected extraction_failed error entry, got %v", snap.Errors)
	}
}

func TestEvaluate_DataAccessErrorAborts(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("a", []string{"name"}, nil, nil, 10, 1),
	}
	extractor := &stubExtractor{err: NewStoreError("field extraction", errors.New("connection refused"))}

	_, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err == nil {
		t.Fatal("Expected the run to abort on DataAccessError")
	}
	var accessErr *DataAccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("Expected DataAccessError, got %T", err)
	}
}

func TestEvaluate_InvalidURLReportedButCounted(t *testing.T) {
	rules := []gormModels.SectionRule{
		rule("identidad", []string{"name", "logoUrl"}, nil, nil, 10, 1),
	}
	extractor := &stubExtractor{fields: map[string]FieldValue{
		"name":    present("Studio X"),
		"logoUrl": present("not a url"),
	}}

	result, err := NewEvaluator().Evaluate(context.Background(), "s1", rules, extractor, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	snap := result.Sections[0]
	if snap.CompletionPercentage != 100 {
		t.Errorf("Present-but-invalid field must still count, got %d%%", snap.CompletionPercentage)
	}
	if snap.Status != string(constants.SectionStatusComplete) {
		t.Errorf("Expected complete, got %s", snap.Status)
	}
	if len(snap.Errors) == 0 {
		t.Error("Expected an invalid_url validation entry")
	}
}

func TestEvaluate_NoRules(t *testing.T) {
	result, err := NewEvaluator().Evaluate(context.Background(), "s1", nil, &stubExtractor{}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.OverallProgress != 100 || !result.IsFullyConfigured {
		t.Errorf("Empty rule set should be vacuously configured, got %d/%v",
			result.OverallProgress, result.IsFullyConfigured)
	}
	if result.LastValidatedAt.After(time.Now().UTC()) {
		t.Error("LastValidatedAt in the future")
	}
}

func sectionsByID(result *EvaluationResult) map[string]gormModels.SectionSnapshot {
	byID := make(map[string]gormModels.SectionSnapshot, len(result.Sections))
	for _, snap := range result.Sections {
		byID[snap.SectionID] = snap
	}
	return byID
}
