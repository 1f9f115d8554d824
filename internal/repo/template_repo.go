package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/partitura/partitura/internal/domain"
)

// TemplateRepo — репозиторий для работы с сохранёнными шаблонами.
//
// Сохранённые шаблоны дополняют каталог пресетов: conductor при
// разрешении имени сначала смотрит в каталог, затем сюда. Шаблон
// после создания не изменяется, поэтому Update отсутствует:
// кастомизация сохраняется как новый шаблон с новым ID.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

// NewTemplateRepo создаёт новый TemplateRepo.
func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

// Create сохраняет новый шаблон.
// Конфликт по имени возвращает ErrAlreadyExists.
func (r *TemplateRepo) Create(ctx context.Context, tpl *domain.Template) error {
	stepsJSON, err := json.Marshal(tpl.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	phasesJSON, err := json.Marshal(tpl.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	depsJSON, err := json.Marshal(tpl.Dependencies)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}

	query := `
		INSERT INTO templates (id, name, description, steps, phases, dependencies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		tpl.ID,
		tpl.Name,
		nullString(tpl.Description),
		stepsJSON,
		phasesJSON,
		depsJSON,
		tpl.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// GetByID возвращает шаблон по ID.
func (r *TemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	query := `
		SELECT id, name, description, steps, phases, dependencies, created_at
		FROM templates
		WHERE id = $1
	`
	return r.scanTemplate(r.pool.QueryRow(ctx, query, id))
}

// GetByName возвращает шаблон по имени.
func (r *TemplateRepo) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	query := `
		SELECT id, name, description, steps, phases, dependencies, created_at
		FROM templates
		WHERE name = $1
	`
	return r.scanTemplate(r.pool.QueryRow(ctx, query, name))
}

// List возвращает список всех сохранённых шаблонов.
func (r *TemplateRepo) List(ctx context.Context) ([]domain.Template, error) {
	query := `
		SELECT id, name, description, steps, phases, dependencies, created_at
		FROM templates
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		tpl, err := r.scanTemplateFromRows(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

// Delete удаляет шаблон.
func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *TemplateRepo) scanTemplate(row pgx.Row) (*domain.Template, error) {
	var tpl domain.Template
	var description *string
	var stepsJSON, phasesJSON, depsJSON []byte

	err := row.Scan(
		&tpl.ID,
		&tpl.Name,
		&description,
		&stepsJSON,
		&phasesJSON,
		&depsJSON,
		&tpl.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}

	if description != nil {
		tpl.Description = *description
	}
	if err := json.Unmarshal(stepsJSON, &tpl.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if err := json.Unmarshal(phasesJSON, &tpl.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	if depsJSON != nil {
		if err := json.Unmarshal(depsJSON, &tpl.Dependencies); err != nil {
			return nil, fmt.Errorf("unmarshal dependencies: %w", err)
		}
	}

	return &tpl, nil
}

func (r *TemplateRepo) scanTemplateFromRows(rows pgx.Rows) (*domain.Template, error) {
	var tpl domain.Template
	var description *string
	var stepsJSON, phasesJSON, depsJSON []byte

	err := rows.Scan(
		&tpl.ID,
		&tpl.Name,
		&description,
		&stepsJSON,
		&phasesJSON,
		&depsJSON,
		&tpl.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}

	if description != nil {
		tpl.Description = *description
	}
	if err := json.Unmarshal(stepsJSON, &tpl.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if err := json.Unmarshal(phasesJSON, &tpl.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	if depsJSON != nil {
		if err := json.Unmarshal(depsJSON, &tpl.Dependencies); err != nil {
			return nil, fmt.Errorf("unmarshal dependencies: %w", err)
		}
	}

	return &tpl, nil
}
