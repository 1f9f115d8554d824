package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/partitura/partitura/internal/domain"
)

// BindingRepo — репозиторий для работы с привязками шагов.
//
// Привязки глобальны и адресуются именем шага, поэтому ключ таблицы —
// step_name, а запись создаётся и обновляется одной операцией Upsert.
type BindingRepo struct {
	pool *pgxpool.Pool
}

// NewBindingRepo создаёт новый BindingRepo.
func NewBindingRepo(pool *pgxpool.Pool) *BindingRepo {
	return &BindingRepo{pool: pool}
}

// Upsert создаёт или заменяет привязку шага.
func (r *BindingRepo) Upsert(ctx context.Context, binding *domain.StepBinding) error {
	configJSON, err := json.Marshal(binding.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	query := `
		INSERT INTO step_bindings (step_name, kind, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (step_name) DO UPDATE SET
			kind = EXCLUDED.kind,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		binding.StepName,
		binding.Kind,
		configJSON,
		binding.CreatedAt,
		binding.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert binding: %w", err)
	}
	return nil
}

// Get возвращает привязку по имени шага.
func (r *BindingRepo) Get(ctx context.Context, stepName string) (*domain.StepBinding, error) {
	query := `
		SELECT step_name, kind, config, created_at, updated_at
		FROM step_bindings
		WHERE step_name = $1
	`
	return r.scanBinding(r.pool.QueryRow(ctx, query, stepName))
}

// List возвращает все привязки, отсортированные по имени шага.
func (r *BindingRepo) List(ctx context.Context) ([]domain.StepBinding, error) {
	query := `
		SELECT step_name, kind, config, created_at, updated_at
		FROM step_bindings
		ORDER BY step_name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []domain.StepBinding
	for rows.Next() {
		binding, err := r.scanBindingFromRows(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, *binding)
	}
	return bindings, rows.Err()
}

// Delete удаляет привязку шага.
func (r *BindingRepo) Delete(ctx context.Context, stepName string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM step_bindings WHERE step_name = $1`, stepName)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *BindingRepo) scanBinding(row pgx.Row) (*domain.StepBinding, error) {
	var b domain.StepBinding
	var configJSON []byte

	err := row.Scan(
		&b.StepName,
		&b.Kind,
		&configJSON,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan binding: %w", err)
	}

	if configJSON != nil {
		if err := json.Unmarshal(configJSON, &b.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	return &b, nil
}

func (r *BindingRepo) scanBindingFromRows(rows pgx.Rows) (*domain.StepBinding, error) {
	var b domain.StepBinding
	var configJSON []byte

	err := rows.Scan(
		&b.StepName,
		&b.Kind,
		&configJSON,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan binding: %w", err)
	}

	if configJSON != nil {
		if err := json.Unmarshal(configJSON, &b.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	return &b, nil
}
