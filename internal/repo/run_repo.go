package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/partitura/partitura/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
//
// Итоговый отчёт хранится в той же строке (колонка report), но в
// domain.Run не входит: читается и пишется отдельными методами.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	criticalJSON, err := json.Marshal(run.CriticalPhases)
	if err != nil {
		return fmt.Errorf("marshal critical_phases: %w", err)
	}

	query := `
		INSERT INTO runs (id, template_id, template_name, status, inputs,
		                  critical_phases, created_at, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		nullID(run.TemplateID),
		run.TemplateName,
		run.Status,
		inputsJSON,
		criticalJSON,
		run.CreatedAt,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, template_id, template_name, status, inputs, critical_phases,
		       current_phase, phases, results, error, created_at, started_at, finished_at
		FROM runs
		WHERE id = $1
	`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT id, template_id, template_name, status, inputs, critical_phases,
		       current_phase, phases, results, error, created_at, started_at, finished_at
		FROM runs
		WHERE ($1::text IS NULL OR template_name = $1)
		  AND ($2::text IS NULL OR status = $2::run_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.TemplateName),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ClaimPending атомарно забирает пачку runs из очереди: переводит их
// в RUNNING и возвращает забранные. SKIP LOCKED позволяет нескольким
// conductor'ам работать с одной очередью без двойного исполнения.
func (r *RunRepo) ClaimPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		UPDATE runs
		SET status = 'RUNNING', started_at = NOW()
		WHERE id IN (
			SELECT id FROM runs
			WHERE status = 'PENDING'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, template_id, template_name, status, inputs, critical_phases,
		          current_phase, phases, results, error, created_at, started_at, finished_at
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update обновляет изменяемые поля run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	phasesJSON, err := json.Marshal(run.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	resultsJSON, err := json.Marshal(run.ResultsByPhase)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		UPDATE runs
		SET status = $2, current_phase = $3, phases = $4, results = $5,
		    error = $6, started_at = $7, finished_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		nullString(run.CurrentPhase),
		phasesJSON,
		resultsJSON,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveReport сохраняет итоговый отчёт run.
func (r *RunRepo) SaveReport(ctx context.Context, id uuid.UUID, report *domain.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	result, err := r.pool.Exec(ctx, `UPDATE runs SET report = $2 WHERE id = $1`, id, reportJSON)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetReport возвращает сохранённый отчёт run.
// Для существующего, но ещё не завершённого run возвращает ErrInvalidState.
func (r *RunRepo) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var reportJSON []byte
	err := r.pool.QueryRow(ctx, `SELECT report FROM runs WHERE id = $1`, id).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if reportJSON == nil {
		return nil, ErrInvalidState
	}

	var report domain.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	TemplateName string
	Status       domain.RunStatus
	Limit        int
	Offset       int
}

// scanRun сканирует одну строку в Run.
func (r *RunRepo) scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var templateID *uuid.UUID
	var inputsJSON, criticalJSON, phasesJSON, resultsJSON []byte
	var currentPhase, runError *string

	err := row.Scan(
		&run.ID,
		&templateID,
		&run.TemplateName,
		&run.Status,
		&inputsJSON,
		&criticalJSON,
		&currentPhase,
		&phasesJSON,
		&resultsJSON,
		&runError,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if templateID != nil {
		run.TemplateID = *templateID
	}
	if currentPhase != nil {
		run.CurrentPhase = *currentPhase
	}
	if runError != nil {
		run.Error = *runError
	}
	if inputsJSON != nil {
		if err := json.Unmarshal(inputsJSON, &run.Inputs); err != nil {
			return nil, fmt.Errorf("unmarshal inputs: %w", err)
		}
	}
	if criticalJSON != nil {
		if err := json.Unmarshal(criticalJSON, &run.CriticalPhases); err != nil {
			return nil, fmt.Errorf("unmarshal critical_phases: %w", err)
		}
	}
	if phasesJSON != nil {
		if err := json.Unmarshal(phasesJSON, &run.Phases); err != nil {
			return nil, fmt.Errorf("unmarshal phases: %w", err)
		}
	}
	if resultsJSON != nil {
		if err := json.Unmarshal(resultsJSON, &run.ResultsByPhase); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		run.ErrorsByPhase = failuresByPhase(run.ResultsByPhase)
	}

	return &run, nil
}

// scanRunFromRows сканирует строку из rows в Run.
func (r *RunRepo) scanRunFromRows(rows pgx.Rows) (*domain.Run, error) {
	var run domain.Run
	var templateID *uuid.UUID
	var inputsJSON, criticalJSON, phasesJSON, resultsJSON []byte
	var currentPhase, runError *string

	err := rows.Scan(
		&run.ID,
		&templateID,
		&run.TemplateName,
		&run.Status,
		&inputsJSON,
		&criticalJSON,
		&currentPhase,
		&phasesJSON,
		&resultsJSON,
		&runError,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if templateID != nil {
		run.TemplateID = *templateID
	}
	if currentPhase != nil {
		run.CurrentPhase = *currentPhase
	}
	if runError != nil {
		run.Error = *runError
	}
	if inputsJSON != nil {
		if err := json.Unmarshal(inputsJSON, &run.Inputs); err != nil {
			return nil, fmt.Errorf("unmarshal inputs: %w", err)
		}
	}
	if criticalJSON != nil {
		if err := json.Unmarshal(criticalJSON, &run.CriticalPhases); err != nil {
			return nil, fmt.Errorf("unmarshal critical_phases: %w", err)
		}
	}
	if phasesJSON != nil {
		if err := json.Unmarshal(phasesJSON, &run.Phases); err != nil {
			return nil, fmt.Errorf("unmarshal phases: %w", err)
		}
	}
	if resultsJSON != nil {
		if err := json.Unmarshal(resultsJSON, &run.ResultsByPhase); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		run.ErrorsByPhase = failuresByPhase(run.ResultsByPhase)
	}

	return &run, nil
}

// failuresByPhase восстанавливает индекс отказов из сохранённых
// результатов: порядок внутри фазы сохраняется.
func failuresByPhase(results map[string][]domain.StepResult) map[string][]domain.StepResult {
	var failures map[string][]domain.StepResult
	for phase, list := range results {
		for _, res := range list {
			if res.Success {
				continue
			}
			if failures == nil {
				failures = make(map[string][]domain.StepResult)
			}
			failures[phase] = append(failures[phase], res)
		}
	}
	return failures
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullID возвращает nil для нулевого UUID.
func nullID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
