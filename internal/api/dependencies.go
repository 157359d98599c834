package api

import (
	"os"
	"strconv"
	"time"

	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/db"
	"prosocial/zen-core/internal/db/repositories"
	"prosocial/zen-core/internal/logging"
	"prosocial/zen-core/internal/metrics"
	"prosocial/zen-core/internal/setup"
)

type Repositories struct {
	Rules       *repositories.RuleRepository
	Statuses    *repositories.StatusRepository
	Studios     *repositories.StudioRepository
	ProgressLog *repositories.ProgressLogRepository
	Keys        *repositories.KeysRepo
}

type Services struct {
	Cache       common.CacheInterface
	Rules       *setup.RuleRegistryService
	SetupStatus *setup.SetupStatusService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
}

// InitDependencies wires repositories and services off the global DB
// handles. Everything downstream takes its collaborators explicitly.
func InitDependencies(metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	repos := &Repositories{
		Rules:       repositories.NewRuleRepository(db.PgDB),
		Statuses:    repositories.NewStatusRepository(db.PgDB),
		Studios:     repositories.NewStudioRepository(db.PgDB),
		ProgressLog: repositories.NewProgressLogRepository(db.DB),
		Keys:        repositories.NewApiKeysRepo(db.DB),
	}

	cacheSvc := newCacheService()
	rulesSvc := setup.NewRuleRegistryService(repos.Rules)
	extractor := setup.NewStudioFieldExtractor(repos.Studios)

	statusSvc := setup.NewSetupStatusService(
		rulesSvc,
		repos.Studios,
		repos.Statuses,
		extractor,
		repos.ProgressLog,
		cacheSvc,
		metricsReg,
		stalenessThreshold(),
	)

	services := &Services{
		Cache:       cacheSvc,
		Rules:       rulesSvc,
		SetupStatus: statusSvc,
	}

	return &Dependencies{
		Repo:     repos,
		Services: services,
	}, nil
}

// newCacheService picks the cache backend from CACHE_BACKEND
func newCacheService() common.CacheInterface {
	if os.Getenv("CACHE_BACKEND") == "redis" {
		redisCache, err := common.NewRedisCacheService(common.NewRedisClient())
		if err == nil {
			logging.Info("Using Redis cache backend")
			return redisCache
		}
		logging.Warn("Redis cache unavailable, falling back to in-memory", "error", err.Error())
	}
	return common.NewCacheService(300, 600)
}

func stalenessThreshold() time.Duration {
	if raw := os.Getenv("SETUP_STATUS_TTL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 5 * time.Minute
}
