package setup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/constants"
	"prosocial/zen-core/internal/logging"
	"prosocial/zen-core/internal/metrics"
	"prosocial/zen-core/internal/models/entities"
	gormModels "prosocial/zen-core/internal/models/gorm"
	"prosocial/zen-core/internal/retry"
)

// RuleSource supplies the active rule set
type RuleSource interface {
	ListActiveRules(ctx context.Context) ([]gormModels.SectionRule, error)
}

// StudioSource resolves tenants
type StudioSource interface {
	GetBySlug(ctx context.Context, slug string) (*gormModels.Studio, error)
}

// StatusStore reads and atomically writes the persisted aggregate
type StatusStore interface {
	GetByStudioID(ctx context.Context, studioID string) (*gormModels.StudioSetupStatus, error)
	Upsert(ctx context.Context, status *gormModels.StudioSetupStatus) error
}

// ProgressLog appends to and reads the append-only audit table
type ProgressLog interface {
	Append(ctx context.Context, entry *entities.SetupProgressLog) error
	ListByStudio(ctx context.Context, studioID string, limit int) ([]entities.SetupProgressLog, error)
}

// Result bundles the aggregate with the studio it belongs to
type Result struct {
	Studio     *gormModels.Studio
	Status     *gormModels.StudioSetupStatus
	Recomputed bool
}

// SetupStatusService orchestrates rule loading, field extraction,
// evaluation, caching, persistence and audit logging for one request.
// Construct it explicitly with its collaborators; there is no hidden
// process-wide instance.
type SetupStatusService struct {
	rules     RuleSource
	studios   StudioSource
	statuses  StatusStore
	extractor FieldExtractor
	audit     ProgressLog
	cache     common.CacheInterface
	metrics   *metrics.MetricsRegistry
	evaluator *Evaluator
	staleness time.Duration
	retryOpts retry.Options
}

func NewSetupStatusService(
	rules RuleSource,
	studios StudioSource,
	statuses StatusStore,
	extractor FieldExtractor,
	audit ProgressLog,
	cache common.CacheInterface,
	metricsReg *metrics.MetricsRegistry,
	staleness time.Duration,
) *SetupStatusService {
	return &SetupStatusService{
		rules:     rules,
		studios:   studios,
		statuses:  statuses,
		extractor: extractor,
		audit:     audit,
		cache:     cache,
		metrics:   metricsReg,
		evaluator: NewEvaluator(),
		staleness: staleness,
		retryOpts: retry.DefaultOptions(),
	}
}

const setupCacheLabel = "setup_status"

// GetOrCompute returns the studio's setup status, reusing the cached or
// persisted aggregate while it is fresher than the staleness threshold.
// force always recomputes.
func (s *SetupStatusService) GetOrCompute(ctx context.Context, slug string, force bool) (*Result, error) {
	studio, err := s.lookupStudio(ctx, slug)
	if err != nil {
		return nil, err
	}

	cacheKey := string(constants.CachePrefixSetupStatus) + studio.ID

	if !force {
		if cached := s.cachedStatus(cacheKey); cached != nil && s.isFresh(cached) {
			s.countCacheHit()
			return &Result{Studio: studio, Status: cached}, nil
		}
		s.countCacheMiss()
	}

	// The persisted row doubles as staleness source and as the previous
	// snapshot for completedAt monotonicity and transition detection
	persisted, err := retry.Do(ctx, s.dataAccess("status_read"), func(ctx context.Context) (*gormModels.StudioSetupStatus, error) {
		return s.statuses.GetByStudioID(ctx, studio.ID)
	})
	if err != nil {
		return nil, NewStoreError("setup status read", err)
	}

	if !force && persisted != nil && s.isFresh(persisted) {
		s.cache.Set(cacheKey, persisted, s.staleness)
		return &Result{Studio: studio, Status: persisted}, nil
	}

	status, err := s.compute(ctx, studio, persisted, force)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, status, s.staleness)
	return &Result{Studio: studio, Status: status, Recomputed: true}, nil
}

// GetProgressLog returns recent audit entries for a studio
func (s *SetupStatusService) GetProgressLog(ctx context.Context, slug string, limit int) ([]entities.SetupProgressLog, error) {
	studio, err := s.lookupStudio(ctx, slug)
	if err != nil {
		return nil, err
	}

	entries, err := retry.Do(ctx, s.dataAccess("log_read"), func(ctx context.Context) ([]entities.SetupProgressLog, error) {
		return s.audit.ListByStudio(ctx, studio.ID, limit)
	})
	if err != nil {
		return nil, NewStoreError("progress log read", err)
	}
	return entries, nil
}

func (s *SetupStatusService) lookupStudio(ctx context.Context, slug string) (*gormModels.Studio, error) {
	studio, err := retry.Do(ctx, s.dataAccess("studio_lookup"), func(ctx context.Context) (*gormModels.Studio, error) {
		return s.studios.GetBySlug(ctx, slug)
	})
	if err != nil {
		return nil, NewStoreError("studio lookup", err)
	}
	if studio == nil {
		return nil, NewNotFoundError(slug)
	}
	return studio, nil
}

func (s *SetupStatusService) compute(
	ctx context.Context,
	studio *gormModels.Studio,
	persisted *gormModels.StudioSetupStatus,
	force bool,
) (*gormModels.StudioSetupStatus, error) {

	start := time.Now()
	s.countEvaluation(force, persisted)

	rules, err := retry.Do(ctx, s.dataAccess("rule_listing"), func(ctx context.Context) ([]gormModels.SectionRule, error) {
		return s.rules.ListActiveRules(ctx)
	})
	if err != nil {
		return nil, NewStoreError("rule listing", err)
	}

	var prevSections gormModels.SectionSnapshotList
	if persisted != nil {
		prevSections = persisted.Sections
	}

	extractor := &retryingExtractor{inner: s.extractor, opts: s.dataAccess("field_extraction")}
	result, err := s.evaluator.Evaluate(ctx, studio.ID, rules, extractor, prevSections)
	if err != nil {
		return nil, err
	}

	status := &gormModels.StudioSetupStatus{
		StudioID:          studio.ID,
		Sections:          result.Sections,
		OverallProgress:   result.OverallProgress,
		IsFullyConfigured: result.IsFullyConfigured,
		LastValidatedAt:   result.LastValidatedAt,
	}
	if persisted != nil {
		status.ID = persisted.ID
	} else {
		status.ID = uuid.NewString()
	}

	if err := retry.DoVoid(ctx, s.dataAccess("status_write"), func(ctx context.Context) error {
		return s.statuses.Upsert(ctx, status)
	}); err != nil {
		return nil, NewStoreError("setup status write", err)
	}

	s.recordTransitions(ctx, studio.ID, persisted, status, force)
	s.observeEvaluation(time.Since(start))

	return status, nil
}

// recordTransitions appends audit entries for meaningful changes.
// Logging is best-effort: a failed append is counted and logged but
// never fails the caller's revalidation.
func (s *SetupStatusService) recordTransitions(
	ctx context.Context,
	studioID string,
	previous *gormModels.StudioSetupStatus,
	current *gormModels.StudioSetupStatus,
	force bool,
) {
	if previous == nil {
		s.logChange(ctx, studioID, constants.ProgressEventCreated, nil, nil, nil, map[string]any{
			"overallProgress": current.OverallProgress,
		})
	}

	if force {
		s.logChange(ctx, studioID, constants.ProgressEventManualRevalidation, nil, nil, nil, map[string]any{
			"action": "forced_revalidation",
		})
	}

	prevByID := make(map[string]gormModels.SectionSnapshot)
	if previous != nil {
		for _, snap := range previous.Sections {
			prevByID[snap.SectionID] = snap
		}
	}

	for _, snap := range current.Sections {
		prev, existed := prevByID[snap.SectionID]

		if snap.Status == string(constants.SectionStatusComplete) &&
			(!existed || prev.Status != string(constants.SectionStatusComplete)) {
			sectionID := snap.SectionID
			prevStatus := statusPtr(existed, prev.Status)
			newStatus := snap.Status
			s.logChange(ctx, studioID, constants.ProgressEventCompleted, &sectionID, prevStatus, &newStatus, nil)
			continue
		}

		if existed && prev.CompletionPercentage != snap.CompletionPercentage {
			sectionID := snap.SectionID
			prevStatus := prev.Status
			newStatus := snap.Status
			s.logChange(ctx, studioID, constants.ProgressEventUpdated, &sectionID, &prevStatus, &newStatus, map[string]any{
				"previousPercentage": prev.CompletionPercentage,
				"newPercentage":      snap.CompletionPercentage,
			})
		}
	}
}

func (s *SetupStatusService) logChange(
	ctx context.Context,
	studioID string,
	event constants.ProgressEventType,
	sectionID *string,
	previousStatus *string,
	newStatus *string,
	metadata map[string]any,
) {
	var metaBytes []byte
	if metadata != nil {
		metaBytes, _ = json.Marshal(metadata)
	}

	entry := &entities.SetupProgressLog{
		StudioID:       studioID,
		SectionID:      sectionID,
		EventType:      string(event),
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Metadata:       metaBytes,
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		logging.Warn("Progress log append failed",
			"studio_id", studioID,
			"event_type", string(event),
			"error", err.Error(),
		)
		if s.metrics != nil {
			s.metrics.AuditLogFailuresTotal.Inc()
		}
	}
}

// dataAccess builds the retry options for one store operation, counting
// the query and any retry attempts under the operation label
func (s *SetupStatusService) dataAccess(operation string) retry.Options {
	if s.metrics != nil {
		s.metrics.DBQueriesTotal.WithLabelValues(operation).Inc()
	}

	opts := s.retryOpts
	opts.OnRetry = func(attempt int, err error) {
		logging.Warn("Retrying data access",
			"operation", operation,
			"attempt", attempt,
			"error", err.Error(),
		)
		if s.metrics != nil {
			s.metrics.DBRetriesTotal.WithLabelValues(operation).Inc()
		}
	}
	return opts
}

func (s *SetupStatusService) isFresh(status *gormModels.StudioSetupStatus) bool {
	return time.Since(status.LastValidatedAt) <= s.staleness
}

// cachedStatus decodes a cache entry back into the aggregate type. The
// Redis backend hands back generic JSON, so re-decode when needed.
func (s *SetupStatusService) cachedStatus(key string) *gormModels.StudioSetupStatus {
	val, found := s.cache.Get(key)
	if !found {
		return nil
	}

	switch v := val.(type) {
	case *gormModels.StudioSetupStatus:
		return v
	case gormModels.StudioSetupStatus:
		return &v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var status gormModels.StudioSetupStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil
		}
		return &status
	}
}

func (s *SetupStatusService) countCacheHit() {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(setupCacheLabel).Inc()
	}
}

func (s *SetupStatusService) countCacheMiss() {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(setupCacheLabel).Inc()
	}
}

func (s *SetupStatusService) countEvaluation(force bool, persisted *gormModels.StudioSetupStatus) {
	if s.metrics == nil {
		return
	}
	trigger := "stale"
	switch {
	case force:
		trigger = "forced"
	case persisted == nil:
		trigger = "read"
	}
	s.metrics.EvaluationsTotal.WithLabelValues(trigger).Inc()
}

func (s *SetupStatusService) observeEvaluation(d time.Duration) {
	if s.metrics != nil {
		s.metrics.EvaluationDuration.Observe(d.Seconds())
	}
}

func statusPtr(existed bool, status string) *string {
	if !existed {
		return nil
	}
	return &status
}

// retryingExtractor wraps field extraction with the retry policy and
// promotes exhausted connection failures to DataAccessError so the
// evaluator aborts instead of degrading every section
type retryingExtractor struct {
	inner FieldExtractor
	opts  retry.Options
}

func (r *retryingExtractor) ExtractFields(ctx context.Context, studioID string, fieldNames []string) (map[string]FieldValue, error) {
	fields, err := retry.Do(ctx, r.opts, func(ctx context.Context) (map[string]FieldValue, error) {
		return r.inner.ExtractFields(ctx, studioID, fieldNames)
	})
	if err != nil && retry.IsConnectionError(err) {
		return nil, NewStoreError("field extraction", err)
	}
	return fields, err
}
