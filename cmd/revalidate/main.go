// revalidate recomputes the setup status for every active studio.
// It is a one-shot script invocation, not a resident worker; run it
// after bulk imports or rule changes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"prosocial/zen-core/internal/common"
	"prosocial/zen-core/internal/db"
	"prosocial/zen-core/internal/db/repositories"
	"prosocial/zen-core/internal/logging"
	"prosocial/zen-core/internal/setup"
)

func main() {
	concurrency := flag.Int("concurrency", 4, "studios revalidated in parallel")
	flag.Parse()

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	if err := logging.Init(appEnv); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Close()

	if err := db.InitPostgres(); err != nil {
		log.Fatalf("connect postgres (sqlx): %v", err)
	}
	if _, err := db.InitPostgresORM(db.Dsn()); err != nil {
		log.Fatalf("connect postgres (gorm): %v", err)
	}

	studioRepo := repositories.NewStudioRepository(db.PgDB)
	rulesSvc := setup.NewRuleRegistryService(repositories.NewRuleRepository(db.PgDB))

	svc := setup.NewSetupStatusService(
		rulesSvc,
		studioRepo,
		repositories.NewStatusRepository(db.PgDB),
		setup.NewStudioFieldExtractor(studioRepo),
		repositories.NewProgressLogRepository(db.DB),
		common.NewCacheService(300, 600),
		nil,
		0, // always recompute in batch mode
	)

	ctx := context.Background()

	studios, err := studioRepo.ListActive(ctx)
	if err != nil {
		log.Fatalf("list studios: %v", err)
	}
	logging.Info("Batch revalidation starting", "studios", len(studios), "concurrency", *concurrency)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	for _, studio := range studios {
		slug := studio.Slug
		g.Go(func() error {
			result, err := svc.GetOrCompute(gctx, slug, true)
			if err != nil {
				logging.Error("Revalidation failed", "studio_slug", slug, "error", err.Error())
				return err
			}
			logging.Info("Revalidated",
				"studio_slug", slug,
				"overall_progress", result.Status.OverallProgress,
				"fully_configured", result.Status.IsFullyConfigured,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("batch revalidation finished with errors: %v", err)
	}

	logging.Info("Batch revalidation done",
		"studios", len(studios),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
}
