// Backfills provider_past_jobs from completed jobs that predate the
// automatic credit on completion.
package main

import (
	"context"

	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/db"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type completedJob struct {
	jobID     uuid.UUID
	profileID uuid.UUID
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting past jobs backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	jobs, err := listUncreditedJobs(ctx, pool)
	if err != nil {
		log.Error("failed to list completed jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		log.Info("no jobs left to backfill")
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for _, job := range jobs {
		group.Go(func() error {
			return creditPastJob(groupCtx, pool, job)
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("backfill failed", "error", err)
		return
	}
	log.Info("past jobs backfill complete", "count", len(jobs))
}

func listUncreditedJobs(ctx context.Context, pool *pgxpool.Pool) ([]completedJob, error) {
	rows, err := pool.Query(ctx, `
		SELECT j.id, j.assigned_provider_id
		FROM jobs j
		WHERE j.status = 'completed'
		  AND j.assigned_provider_id IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM provider_past_jobs p
			WHERE p.profile_id = j.assigned_provider_id AND p.job_id = j.id
		  )
		ORDER BY j.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]completedJob, 0)
	for rows.Next() {
		var job completedJob
		if err := rows.Scan(&job.jobID, &job.profileID); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return jobs, nil
}

func creditPastJob(ctx context.Context, pool *pgxpool.Pool, job completedJob) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO provider_past_jobs (profile_id, job_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, job.profileID, job.jobID)
	return err
}
