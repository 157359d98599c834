package setup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"prosocial/zen-core/internal/constants"
	gormModels "prosocial/zen-core/internal/models/gorm"
)

// EvaluationResult is the freshly computed aggregate for one studio
type EvaluationResult struct {
	Sections          gormModels.SectionSnapshotList
	OverallProgress   int
	IsFullyConfigured bool
	LastValidatedAt   time.Time
}

// Evaluator turns section rules plus extracted field data into section
// statuses and the weighted overall progress. It holds no state; the
// same inputs always produce the same result.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// SortRules orders rules so every dependency is evaluated before its
// dependents, falling back to declared position for ties. A dependency
// cycle yields a ValidationError instead of an evaluation run.
// Dependencies naming sections outside the active set are ignored here;
// they cannot be evaluated and must not wedge the whole graph.
func SortRules(rules []gormModels.SectionRule) ([]gormModels.SectionRule, error) {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.SectionID] = i
	}

	indegree := make([]int, len(rules))
	dependents := make(map[int][]int, len(rules))
	for i, r := range rules {
		for _, dep := range r.Dependencies {
			j, ok := index[dep]
			if !ok {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := make([]int, 0, len(rules))
	for i, deg := range indegree {
		if deg == 0 {
			ready = append(ready, i)
		}
	}

	sorted := make([]gormModels.SectionRule, 0, len(rules))
	for len(ready) > 0 {
		// Stable tie-break: lowest declared position first
		sort.Slice(ready, func(a, b int) bool {
			ra, rb := rules[ready[a]], rules[ready[b]]
			if ra.Position != rb.Position {
				return ra.Position < rb.Position
			}
			return ready[a] < ready[b]
		})

		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, rules[next])

		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(sorted) != len(rules) {
		var remaining []string
		for i, r := range rules {
			if indegree[i] > 0 {
				remaining = append(remaining, r.SectionID)
			}
		}
		return nil, NewValidationError(
			constants.ErrCodeDependencyCycle,
			fmt.Sprintf("dependency cycle among sections: %s", strings.Join(remaining, ", ")),
		)
	}

	return sorted, nil
}

// Evaluate runs the full per-tenant aggregation. A failure extracting a
// single section's fields degrades that section to incomplete with an
// extraction_failed error entry; a DataAccessError (unknown tenant or
// store unreachable after retries) aborts the run.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	studioID string,
	rules []gormModels.SectionRule,
	extractor FieldExtractor,
	previous gormModels.SectionSnapshotList,
) (*EvaluationResult, error) {

	ordered, err := SortRules(rules)
	if err != nil {
		return nil, err
	}

	prevByID := make(map[string]gormModels.SectionSnapshot, len(previous))
	for _, snap := range previous {
		prevByID[snap.SectionID] = snap
	}

	now := time.Now().UTC()
	statuses := make(map[string]constants.SectionStatus, len(ordered))
	snapshots := make([]gormModels.SectionSnapshot, 0, len(ordered))

	for _, rule := range ordered {
		fieldNames := mergeFieldNames(rule.RequiredFields, rule.OptionalFields)

		fields, extractErr := extractor.ExtractFields(ctx, studioID, fieldNames)
		if extractErr != nil {
			var dae *DataAccessError
			if errors.As(extractErr, &dae) {
				return nil, extractErr
			}
			snap := failedSectionSnapshot(rule, fieldNames, prevByID[rule.SectionID], now)
			statuses[rule.SectionID] = constants.SectionStatus(snap.Status)
			snapshots = append(snapshots, snap)
			continue
		}

		blocked := false
		for _, dep := range rule.Dependencies {
			if st, ok := statuses[dep]; ok && st != constants.SectionStatusComplete {
				blocked = true
				break
			}
		}

		snap := evaluateSection(rule, fields, blocked, prevByID[rule.SectionID], now)
		statuses[rule.SectionID] = constants.SectionStatus(snap.Status)
		snapshots = append(snapshots, snap)
	}

	// Present sections in declared order regardless of evaluation order
	sort.SliceStable(snapshots, func(a, b int) bool {
		return positionOf(rules, snapshots[a].SectionID) < positionOf(rules, snapshots[b].SectionID)
	})

	return &EvaluationResult{
		Sections:          snapshots,
		OverallProgress:   weightedProgress(rules, snapshots),
		IsFullyConfigured: allComplete(snapshots),
		LastValidatedAt:   now,
	}, nil
}

// evaluateSection applies one rule to its extracted fields
func evaluateSection(
	rule gormModels.SectionRule,
	fields map[string]FieldValue,
	blocked bool,
	prev gormModels.SectionSnapshot,
	now time.Time,
) gormModels.SectionSnapshot {

	completedRequired := 0
	for _, name := range rule.RequiredFields {
		if fields[name].Present {
			completedRequired++
		}
	}
	completedOptional := 0
	for _, name := range rule.OptionalFields {
		if fields[name].Present {
			completedOptional++
		}
	}

	totalRequired := len(rule.RequiredFields)
	totalOptional := len(rule.OptionalFields)
	totalFields := totalRequired + totalOptional

	// A section with no fields is vacuously complete
	percentage := 100
	if totalFields > 0 {
		percentage = int(math.Round(
			100 * float64(completedRequired+completedOptional) / float64(totalFields),
		))
	}

	requiredDone := completedRequired == totalRequired

	status := constants.SectionStatusIncomplete
	switch {
	case blocked:
		status = constants.SectionStatusBlocked
	case requiredDone:
		status = constants.SectionStatusComplete
	}

	fieldNames := mergeFieldNames(rule.RequiredFields, rule.OptionalFields)
	completedFields := make([]string, 0, len(fieldNames))
	missingFields := make([]string, 0)
	for _, name := range fieldNames {
		if fields[name].Present {
			completedFields = append(completedFields, name)
		} else {
			missingFields = append(missingFields, name)
		}
	}

	// Semantic validation runs only on present fields and never alters
	// the presence counting above
	var validationErrors []string
	for _, name := range fieldNames {
		fv := fields[name]
		if !fv.Present {
			continue
		}
		if msg := validatePresentField(name, fv.Value); msg != "" {
			validationErrors = append(validationErrors, msg)
		}
	}

	// completedAt is set once, the first time required fields hit 100%,
	// and survives later regressions
	completedAt := prev.CompletedAt
	if completedAt == nil && requiredDone {
		t := now
		completedAt = &t
	}

	return gormModels.SectionSnapshot{
		SectionID:            rule.SectionID,
		Title:                rule.Title,
		Status:               string(status),
		CompletionPercentage: percentage,
		CompletedFields:      completedFields,
		MissingFields:        missingFields,
		Errors:               validationErrors,
		CompletedAt:          completedAt,
		LastUpdatedAt:        now,
	}
}

// failedSectionSnapshot records a section whose extraction failed
func failedSectionSnapshot(
	rule gormModels.SectionRule,
	fieldNames []string,
	prev gormModels.SectionSnapshot,
	now time.Time,
) gormModels.SectionSnapshot {
	return gormModels.SectionSnapshot{
		SectionID:            rule.SectionID,
		Title:                rule.Title,
		Status:               string(constants.SectionStatusIncomplete),
		CompletionPercentage: 0,
		CompletedFields:      []string{},
		MissingFields:        fieldNames,
		Errors:               []string{constants.ErrExtractionFailed},
		CompletedAt:          prev.CompletedAt,
		LastUpdatedAt:        now,
	}
}

// validatePresentField returns a validation message for semantically
// broken values, or "" when the value is acceptable
func validatePresentField(name string, value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}

	if isURLField(name) {
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Sprintf("invalid_url: %s", name)
		}
	}

	if name == "email" && !strings.Contains(s, "@") {
		return fmt.Sprintf("invalid_email: %s", name)
	}

	return ""
}

func isURLField(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "url") || lower == "website"
}

// weightedProgress normalizes section percentages by rule weight.
// Blocked sections contribute their raw percentage so that completing
// a blocking dependency can only raise the total, never drop it.
func weightedProgress(rules []gormModels.SectionRule, snapshots []gormModels.SectionSnapshot) int {
	weights := make(map[string]float64, len(rules))
	var totalWeight float64
	for _, r := range rules {
		weights[r.SectionID] = r.Weight
		totalWeight += r.Weight
	}

	if totalWeight <= 0 {
		return 100
	}

	var sum float64
	for _, snap := range snapshots {
		sum += float64(snap.CompletionPercentage) * weights[snap.SectionID]
	}
	return int(math.Round(sum / totalWeight))
}

func allComplete(snapshots []gormModels.SectionSnapshot) bool {
	for _, snap := range snapshots {
		if snap.Status != string(constants.SectionStatusComplete) {
			return false
		}
	}
	return true
}

func positionOf(rules []gormModels.SectionRule, sectionID string) int {
	for _, r := range rules {
		if r.SectionID == sectionID {
			return r.Position
		}
	}
	return math.MaxInt32
}

// mergeFieldNames joins required and optional fields preserving order
// and dropping duplicates
func mergeFieldNames(required, optional []string) []string {
	seen := make(map[string]struct{}, len(required)+len(optional))
	merged := make([]string, 0, len(required)+len(optional))
	for _, name := range required {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	for _, name := range optional {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	return merged
}
