package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/steps"
)

// ListBindings возвращает все привязки шагов.
// GET /api/v1/bindings
func (h *Handler) ListBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.bindingRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]BindingResponse, len(bindings))
	for i := range bindings {
		result[i] = BindingFromDomain(&bindings[i])
	}

	List(w, result, len(result))
}

// GetBinding возвращает привязку по имени шага.
// GET /api/v1/bindings/{step}
func (h *Handler) GetBinding(w http.ResponseWriter, r *http.Request) {
	binding, err := h.bindingRepo.Get(r.Context(), r.PathValue("step"))
	if HandleRepoError(w, h.logger, err, "binding not found") {
		return
	}

	Success(w, BindingFromDomain(binding))
}

// PutBinding создаёт или заменяет привязку шага.
// PUT /api/v1/bindings/{step}
//
// Привязка вступает в силу для следующих runs: уже выполняющиеся runs
// работают с реестром, собранным при старте.
func (h *Handler) PutBinding(w http.ResponseWriter, r *http.Request) {
	stepName := strings.TrimSpace(r.PathValue("step"))
	if stepName == "" {
		BadRequest(w, "step name is required")
		return
	}

	var req PutBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if !steps.DefaultRegistry().Has(req.Kind) {
		BadRequest(w, "unknown binding kind: "+req.Kind)
		return
	}

	now := time.Now().UTC()
	binding := &domain.StepBinding{
		StepName:  stepName,
		Kind:      req.Kind,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.bindingRepo.Upsert(r.Context(), binding); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("binding upserted", "step", stepName, "kind", req.Kind)

	Success(w, BindingFromDomain(binding))
}

// DeleteBinding удаляет привязку шага.
// DELETE /api/v1/bindings/{step}
//
// Шаги без привязки не ломают выполнение: Step Runner подставляет
// поведение по умолчанию.
func (h *Handler) DeleteBinding(w http.ResponseWriter, r *http.Request) {
	stepName := r.PathValue("step")

	if err := h.bindingRepo.Delete(r.Context(), stepName); HandleRepoError(w, h.logger, err, "binding not found") {
		return
	}

	h.logger.Info("binding deleted", "step", stepName)

	NoContent(w)
}
