package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// PlanRepo — репозиторий архива планов и итогов выполнения.
type PlanRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo создаёт PlanRepo.
func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// EnsureSchema создаёт таблицы архива, если их ещё нет.
func (r *PlanRepo) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS plans (
			id UUID PRIMARY KEY,
			topic TEXT NOT NULL,
			strategy TEXT NOT NULL,
			status TEXT NOT NULL,
			steps JSONB NOT NULL,
			estimated_duration_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS plan_summaries (
			plan_id UUID PRIMARY KEY REFERENCES plans(id),
			success BOOLEAN NOT NULL,
			completed_count INT NOT NULL,
			failed_count INT NOT NULL,
			total_duration_ms BIGINT NOT NULL,
			results JSONB NOT NULL,
			errors JSONB NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SavePlan сохраняет план (повторный вызов обновляет статус и шаги).
func (r *PlanRepo) SavePlan(ctx context.Context, p *domain.Plan) error {
	stepsJSON, err := json.Marshal(p.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO plans (id, topic, strategy, status, steps, estimated_duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, steps = EXCLUDED.steps
	`
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Topic,
		p.Strategy,
		p.Status,
		stepsJSON,
		p.EstimatedTotalDuration.Milliseconds(),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// SaveSummary сохраняет итог выполнения плана.
func (r *PlanRepo) SaveSummary(ctx context.Context, s *domain.ExecutionSummary) error {
	resultsJSON, err := json.Marshal(s.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	errorsJSON, err := json.Marshal(s.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	query := `
		INSERT INTO plan_summaries (plan_id, success, completed_count, failed_count, total_duration_ms, results, errors, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (plan_id) DO UPDATE
		SET success = EXCLUDED.success,
		    completed_count = EXCLUDED.completed_count,
		    failed_count = EXCLUDED.failed_count,
		    total_duration_ms = EXCLUDED.total_duration_ms,
		    results = EXCLUDED.results,
		    errors = EXCLUDED.errors,
		    finished_at = EXCLUDED.finished_at
	`
	_, err = r.pool.Exec(ctx, query,
		s.PlanID,
		s.Success,
		s.CompletedCount,
		s.FailedCount,
		s.TotalDuration.Milliseconds(),
		resultsJSON,
		errorsJSON,
		s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// SummaryRecord — строка архива для выборки истории.
type SummaryRecord struct {
	PlanID         uuid.UUID
	Topic          string
	Success        bool
	CompletedCount int
	FailedCount    int
	TotalDuration  time.Duration
	FinishedAt     time.Time
}

// ListSummaries возвращает последние limit итогов.
func (r *PlanRepo) ListSummaries(ctx context.Context, limit int) ([]SummaryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT s.plan_id, p.topic, s.success, s.completed_count, s.failed_count,
		       s.total_duration_ms, s.finished_at
		FROM plan_summaries s
		JOIN plans p ON p.id = s.plan_id
		ORDER BY s.finished_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var durationMS int64
		if err := rows.Scan(&rec.PlanID, &rec.Topic, &rec.Success, &rec.CompletedCount,
			&rec.FailedCount, &durationMS, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		rec.TotalDuration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
