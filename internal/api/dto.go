package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// Template DTOs

// CreateTemplateRequest — запрос на создание шаблона.
type CreateTemplateRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Steps        []domain.Step       `json:"steps"`
	Phases       []string            `json:"phases"`
	Dependencies []domain.Dependency `json:"dependencies,omitempty"`
}

// ComposeTemplateRequest — запрос на составление шаблона из требований.
type ComposeTemplateRequest struct {
	Goal string   `json:"goal"`
	Tags []string `json:"tags,omitempty"`

	// Save — сохранить составленный шаблон, чтобы его можно было
	// запускать по имени.
	Save bool `json:"save,omitempty"`
}

// TemplateResponse — ответ с шаблоном.
type TemplateResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Steps        []domain.Step       `json:"steps"`
	Phases       []string            `json:"phases"`
	Dependencies []domain.Dependency `json:"dependencies,omitempty"`
	Source       string              `json:"source"`
	CreatedAt    time.Time           `json:"created_at"`
}

// TemplateFromDomain конвертирует domain.Template в TemplateResponse.
func TemplateFromDomain(t *domain.Template, source string) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Steps:        t.Steps,
		Phases:       t.Phases,
		Dependencies: t.Dependencies,
		Source:       source,
		CreatedAt:    t.CreatedAt,
	}
}

// PlanResponse — ответ с планом выполнения шаблона.
type PlanResponse struct {
	Template   string      `json:"template"`
	Source     string      `json:"source"`
	Phases     []string    `json:"phases"`
	TotalSteps int         `json:"total_steps"`
	Plan       engine.Plan `json:"plan"`
}

// GraphResponse — ответ с графом объявленных зависимостей.
type GraphResponse struct {
	Template  string              `json:"template"`
	Source    string              `json:"source"`
	Edges     int                 `json:"edges"`
	Adjacency map[string][]string `json:"adjacency"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Run DTOs

// CreateRunRequest — запрос на запуск шаблона.
type CreateRunRequest struct {
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID                      `json:"id"`
	TemplateID     *uuid.UUID                     `json:"template_id,omitempty"`
	TemplateName   string                         `json:"template_name"`
	Status         string                         `json:"status"`
	Inputs         map[string]any                 `json:"inputs,omitempty"`
	CurrentPhase   string                         `json:"current_phase,omitempty"`
	Phases         []string                       `json:"phases,omitempty"`
	ResultsByPhase map[string][]domain.StepResult `json:"results_by_phase,omitempty"`
	ErrorsByPhase  map[string][]domain.StepResult `json:"errors_by_phase,omitempty"`
	CriticalPhases []string                       `json:"critical_phases,omitempty"`
	Error          string                         `json:"error,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
	StartedAt      *time.Time                     `json:"started_at,omitempty"`
	FinishedAt     *time.Time                     `json:"finished_at,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	resp := RunResponse{
		ID:             r.ID,
		TemplateName:   r.TemplateName,
		Status:         string(r.Status),
		Inputs:         r.Inputs,
		CurrentPhase:   r.CurrentPhase,
		Phases:         r.Phases,
		ResultsByPhase: r.ResultsByPhase,
		ErrorsByPhase:  r.ErrorsByPhase,
		CriticalPhases: r.CriticalPhases,
		Error:          r.Error,
		CreatedAt:      r.CreatedAt,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	// До разрешения шаблона conductor'ом ID неизвестен
	if r.TemplateID != uuid.Nil {
		id := r.TemplateID
		resp.TemplateID = &id
	}
	return resp
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name           string         `json:"name"`
	CronExpr       string         `json:"cron_expr,omitempty"`
	IntervalSec    int            `json:"interval_sec,omitempty"`
	Timezone       string         `json:"timezone,omitempty"`
	Enabled        bool           `json:"enabled"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name           *string         `json:"name,omitempty"`
	CronExpr       *string         `json:"cron_expr,omitempty"`
	IntervalSec    *int            `json:"interval_sec,omitempty"`
	Timezone       *string         `json:"timezone,omitempty"`
	Inputs         *map[string]any `json:"inputs,omitempty"`
	CriticalPhases *[]string       `json:"critical_phases,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ со schedule.
type ScheduleResponse struct {
	ID             uuid.UUID      `json:"id"`
	TemplateName   string         `json:"template_name"`
	Name           string         `json:"name,omitempty"`
	CronExpr       string         `json:"cron_expr,omitempty"`
	IntervalSec    int            `json:"interval_sec,omitempty"`
	Timezone       string         `json:"timezone"`
	Enabled        bool           `json:"enabled"`
	NextDueAt      *time.Time     `json:"next_due_at,omitempty"`
	LastRunAt      *time.Time     `json:"last_run_at,omitempty"`
	LastRunID      *uuid.UUID     `json:"last_run_id,omitempty"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	CriticalPhases []string       `json:"critical_phases,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:             s.ID,
		TemplateName:   s.TemplateName,
		Name:           s.Name,
		CronExpr:       s.CronExpr,
		IntervalSec:    s.IntervalSec,
		Timezone:       s.Timezone,
		Enabled:        s.Enabled,
		NextDueAt:      s.NextDueAt,
		LastRunAt:      s.LastRunAt,
		LastRunID:      s.LastRunID,
		Inputs:         s.Inputs,
		CriticalPhases: s.CriticalPhases,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// Step binding DTOs

// PutBindingRequest — запрос на создание/замену привязки шага.
type PutBindingRequest struct {
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config,omitempty"`
}

// BindingResponse — ответ с привязкой шага.
type BindingResponse struct {
	StepName  string         `json:"step_name"`
	Kind      string         `json:"kind"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BindingFromDomain конвертирует domain.StepBinding в BindingResponse.
func BindingFromDomain(b *domain.StepBinding) BindingResponse {
	if b == nil {
		return BindingResponse{}
	}
	return BindingResponse{
		StepName:  b.StepName,
		Kind:      b.Kind,
		Config:    b.Config,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// Archive DTOs

// ArchivedReportResponse — ответ с заархивированным отчётом.
type ArchivedReportResponse struct {
	Report     domain.Report `json:"report"`
	ReceivedAt time.Time     `json:"received_at"`
}

// ArchivedReportFromDomain конвертирует domain.ArchivedReport.
func ArchivedReportFromDomain(a domain.ArchivedReport) ArchivedReportResponse {
	return ArchivedReportResponse{
		Report:     a.Report,
		ReceivedAt: a.ReceivedAt,
	}
}
