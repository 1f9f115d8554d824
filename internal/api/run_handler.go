package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?template=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		TemplateName: r.URL.Query().Get("template"),
		Status:       domain.RunStatus(r.URL.Query().Get("status")),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun ставит run шаблона в очередь.
// POST /api/v1/templates/{ref}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	// Все поля запроса опциональны, пустое тело допустимо
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	tpl, _, err := h.resolveTemplate(r.Context(), r.PathValue("ref"))
	if HandleRepoError(w, h.logger, err, "template not found") {
		return
	}

	// Run ссылается на каноническое имя, даже если запрошен по UUID
	run := domain.NewRun(tpl.Name, req.Inputs)
	run.CriticalPhases = req.CriticalPhases

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunQueued(r.Context(), run.ID, run.TemplateName); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// GetRunReport возвращает итоговый отчёт run.
// GET /api/v1/runs/{id}/report
func (h *Handler) GetRunReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	report, err := h.runRepo.GetReport(r.Context(), id)
	if errors.Is(err, repo.ErrInvalidState) {
		InvalidState(w, "run is not finished yet")
		return
	}
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, report)
}

// queryInt парсит числовой query-параметр с дефолтным значением.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
