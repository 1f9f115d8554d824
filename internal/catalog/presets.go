package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/partitura/partitura/internal/domain"
)

// presetID возвращает детерминированный ID пресета.
// Один и тот же пресет получает один и тот же ID в любом процессе.
func presetID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://partitura.dev/catalog/"+name))
}

// presetCreatedAt — фиксированная отметка создания пресетов.
// Пресеты — часть сборки, а не пользовательские данные.
var presetCreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// FeaturePreset — конвейер поставки фичи.
//
// Полный цикл: проработка, параллельная реализация, проверка, выпуск.
func FeaturePreset() *domain.Template {
	return &domain.Template{
		ID:          presetID("feature"),
		Name:        "feature",
		Description: "Feature delivery: design, parallel implementation, verification, release",
		Phases:      []string{"design", "build", "verify", "deploy"},
		Steps: []domain.Step{
			{Name: "outline_requirements", Phase: "design", ParallelEligible: false},
			{Name: "draft_architecture", Phase: "design", ParallelEligible: true},
			{Name: "review_architecture", Phase: "design", ParallelEligible: true},
			{Name: "implement_core", Phase: "build", ParallelEligible: false},
			{Name: "implement_api", Phase: "build", ParallelEligible: true},
			{Name: "implement_ui", Phase: "build", ParallelEligible: true},
			{Name: "unit_tests", Phase: "verify", ParallelEligible: true},
			{Name: "integration_tests", Phase: "verify", ParallelEligible: true},
			{Name: "package_release", Phase: "deploy", ParallelEligible: false},
		},
		Dependencies: []domain.Dependency{
			{Predecessor: "outline_requirements", Successor: "draft_architecture"},
			{Predecessor: "draft_architecture", Successor: "implement_core"},
			{Predecessor: "implement_core", Successor: "unit_tests"},
			{Predecessor: "implement_api", Successor: "integration_tests"},
			{Predecessor: "unit_tests", Successor: "package_release"},
			{Predecessor: "integration_tests", Successor: "package_release"},
		},
		CreatedAt: presetCreatedAt,
	}
}

// HotfixPreset — срочное исправление.
//
// Короткий цикл без параллельной проработки: диагноз, патч, выпуск.
func HotfixPreset() *domain.Template {
	return &domain.Template{
		ID:          presetID("hotfix"),
		Name:        "hotfix",
		Description: "Emergency fix: triage, patch with regression checks, ship",
		Phases:      []string{"triage", "build", "deploy"},
		Steps: []domain.Step{
			{Name: "reproduce_defect", Phase: "triage", ParallelEligible: false},
			{Name: "isolate_cause", Phase: "triage", ParallelEligible: false},
			{Name: "patch", Phase: "build", ParallelEligible: false},
			{Name: "regression_tests", Phase: "build", ParallelEligible: true},
			{Name: "smoke_tests", Phase: "build", ParallelEligible: true},
			{Name: "ship_fix", Phase: "deploy", ParallelEligible: false},
		},
		Dependencies: []domain.Dependency{
			{Predecessor: "reproduce_defect", Successor: "isolate_cause"},
			{Predecessor: "isolate_cause", Successor: "patch"},
			{Predecessor: "patch", Successor: "regression_tests"},
			{Predecessor: "patch", Successor: "smoke_tests"},
			{Predecessor: "regression_tests", Successor: "ship_fix"},
		},
		CreatedAt: presetCreatedAt,
	}
}

// MigrationPreset — миграция данных.
//
// Содержит фазу security: доступы проверяются до применения миграции.
func MigrationPreset() *domain.Template {
	return &domain.Template{
		ID:          presetID("migration"),
		Name:        "migration",
		Description: "Data migration: plan, access review, dry run, apply, validate",
		Phases:      []string{"design", "security", "migrate", "verify"},
		Steps: []domain.Step{
			{Name: "snapshot_schema", Phase: "design", ParallelEligible: true},
			{Name: "plan_migration", Phase: "design", ParallelEligible: true},
			{Name: "access_review", Phase: "security", ParallelEligible: false},
			{Name: "dry_run", Phase: "migrate", ParallelEligible: false},
			{Name: "apply_migration", Phase: "migrate", ParallelEligible: false},
			{Name: "validate_counts", Phase: "verify", ParallelEligible: true},
			{Name: "validate_integrity", Phase: "verify", ParallelEligible: true},
		},
		Dependencies: []domain.Dependency{
			{Predecessor: "snapshot_schema", Successor: "plan_migration"},
			{Predecessor: "plan_migration", Successor: "access_review"},
			{Predecessor: "access_review", Successor: "dry_run"},
			{Predecessor: "dry_run", Successor: "apply_migration"},
			{Predecessor: "apply_migration", Successor: "validate_counts"},
			{Predecessor: "apply_migration", Successor: "validate_integrity"},
		},
		CreatedAt: presetCreatedAt,
	}
}

// AuditPreset — обзорный аудит.
//
// Best-effort конвейер: все фазы некритические, сбор и анализ
// максимально параллельные.
func AuditPreset() *domain.Template {
	return &domain.Template{
		ID:          presetID("audit"),
		Name:        "audit",
		Description: "Repository audit: parallel collection and analysis, summary",
		Phases:      []string{"collect", "analyze", "documentation"},
		Steps: []domain.Step{
			{Name: "gather_configs", Phase: "collect", ParallelEligible: true},
			{Name: "gather_logs", Phase: "collect", ParallelEligible: true},
			{Name: "scan_dependencies", Phase: "analyze", ParallelEligible: true},
			{Name: "scan_secrets", Phase: "analyze", ParallelEligible: true},
			{Name: "summarize_findings", Phase: "documentation", ParallelEligible: false},
		},
		Dependencies: []domain.Dependency{
			{Predecessor: "gather_configs", Successor: "scan_dependencies"},
			{Predecessor: "gather_logs", Successor: "scan_secrets"},
			{Predecessor: "scan_dependencies", Successor: "summarize_findings"},
			{Predecessor: "scan_secrets", Successor: "summarize_findings"},
		},
		CreatedAt: presetCreatedAt,
	}
}
