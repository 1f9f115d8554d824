package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/engine"
)

// ListTemplates возвращает пресеты каталога и сохранённые шаблоны.
// GET /api/v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	result := make([]TemplateResponse, 0, h.catalog.Count())

	// Каталог впереди: он выигрывает и при разрешении имён
	for _, name := range h.catalog.Names() {
		tpl, err := h.catalog.Get(name)
		if err != nil {
			continue
		}
		result = append(result, TemplateFromDomain(tpl, SourceCatalog))
	}

	stored, err := h.templateRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	for i := range stored {
		result = append(result, TemplateFromDomain(&stored[i], SourceStored))
	}

	List(w, result, len(result))
}

// CreateTemplate сохраняет новый шаблон.
// POST /api/v1/templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	tpl := &domain.Template{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		Steps:        req.Steps,
		Phases:       req.Phases,
		Dependencies: req.Dependencies,
		CreatedAt:    time.Now().UTC(),
	}

	// Ошибка конфигурации — шаблон не сохраняется вовсе
	if err := engine.Validate(tpl); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if h.catalog.Has(tpl.Name) {
		Conflict(w, "name is reserved by a catalog preset")
		return
	}

	if err := h.templateRepo.Create(r.Context(), tpl); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, TemplateFromDomain(tpl, SourceStored))
}

// ComposeTemplate составляет шаблон из цели и тегов требований.
// POST /api/v1/templates/compose
func (h *Handler) ComposeTemplate(w http.ResponseWriter, r *http.Request) {
	var req ComposeTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	tpl, err := h.catalog.Compose(req.Goal, req.Tags)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if !req.Save {
		Success(w, TemplateFromDomain(tpl, SourceComposed))
		return
	}

	if h.catalog.Has(tpl.Name) {
		Conflict(w, "name is reserved by a catalog preset")
		return
	}

	if err := h.templateRepo.Create(r.Context(), tpl); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, TemplateFromDomain(tpl, SourceStored))
}

// GetTemplate возвращает шаблон по UUID или имени.
// GET /api/v1/templates/{ref}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, source, err := h.resolveTemplate(r.Context(), r.PathValue("ref"))
	if HandleRepoError(w, h.logger, err, "template not found") {
		return
	}

	Success(w, TemplateFromDomain(tpl, source))
}

// DeleteTemplate удаляет сохранённый шаблон.
// DELETE /api/v1/templates/{ref}
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	if id, err := uuid.Parse(ref); err == nil {
		if err := h.templateRepo.Delete(r.Context(), id); err != nil {
			HandleRepoError(w, h.logger, err, "template not found")
			return
		}
		NoContent(w)
		return
	}

	if h.catalog.Has(ref) {
		InvalidState(w, "catalog presets are immutable")
		return
	}

	tpl, err := h.templateRepo.GetByName(r.Context(), ref)
	if HandleRepoError(w, h.logger, err, "template not found") {
		return
	}

	if err := h.templateRepo.Delete(r.Context(), tpl.ID); err != nil {
		HandleRepoError(w, h.logger, err, "template not found")
		return
	}

	NoContent(w)
}

// GetTemplatePlan возвращает план выполнения шаблона.
// GET /api/v1/templates/{ref}/plan
func (h *Handler) GetTemplatePlan(w http.ResponseWriter, r *http.Request) {
	tpl, source, err := h.resolveTemplate(r.Context(), r.PathValue("ref"))
	if HandleRepoError(w, h.logger, err, "template not found") {
		return
	}

	plan, err := engine.BuildPlan(tpl)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	Success(w, PlanResponse{
		Template:   tpl.Name,
		Source:     source,
		Phases:     plan.PhaseNames(),
		TotalSteps: plan.TotalSteps(),
		Plan:       plan,
	})
}

// GetTemplateGraph возвращает граф объявленных зависимостей шаблона.
// GET /api/v1/templates/{ref}/graph
func (h *Handler) GetTemplateGraph(w http.ResponseWriter, r *http.Request) {
	tpl, source, err := h.resolveTemplate(r.Context(), r.PathValue("ref"))
	if HandleRepoError(w, h.logger, err, "template not found") {
		return
	}

	g := engine.BuildGraph(tpl)

	Success(w, GraphResponse{
		Template:  tpl.Name,
		Source:    source,
		Edges:     g.Edges(),
		Adjacency: g.Adjacency,
		Warnings:  g.Warnings,
	})
}
