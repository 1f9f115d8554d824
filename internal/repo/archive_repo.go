package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/partitura/partitura/internal/domain"
)

// ArchiveRepo — архив итоговых отчётов, принятых collector'ом.
//
// Ключ архива — run_id: повторная доставка события из очереди не
// создаёт дубликата, Archive возвращает ErrAlreadyExists.
type ArchiveRepo struct {
	pool *pgxpool.Pool
}

// NewArchiveRepo создаёт новый ArchiveRepo.
func NewArchiveRepo(pool *pgxpool.Pool) *ArchiveRepo {
	return &ArchiveRepo{pool: pool}
}

// Archive сохраняет отчёт в архив.
func (r *ArchiveRepo) Archive(ctx context.Context, report *domain.Report, receivedAt time.Time) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO report_archive (run_id, template_name, status, report, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		report.RunID,
		nullString(report.TemplateName),
		report.Status,
		reportJSON,
		receivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert archived report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// List возвращает архивные отчёты с фильтрацией.
func (r *ArchiveRepo) List(ctx context.Context, filter ArchiveFilter) ([]domain.ArchivedReport, error) {
	query := `
		SELECT report, received_at
		FROM report_archive
		WHERE ($1::text IS NULL OR template_name = $1)
		  AND ($2::text IS NULL OR status = $2::run_status)
		ORDER BY received_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.TemplateName),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list archived reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.ArchivedReport
	for rows.Next() {
		var entry domain.ArchivedReport
		var reportJSON []byte
		if err := rows.Scan(&reportJSON, &entry.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan archived report: %w", err)
		}
		if err := json.Unmarshal(reportJSON, &entry.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		reports = append(reports, entry)
	}
	return reports, rows.Err()
}

// --- Helpers ---

// ArchiveFilter — параметры фильтрации архива.
type ArchiveFilter struct {
	TemplateName string
	Status       domain.RunStatus
	Limit        int
	Offset       int
}
