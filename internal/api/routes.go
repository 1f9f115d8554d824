package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Templates. {ref} — UUID сохранённого шаблона или имя
	// (пресет каталога либо сохранённый шаблон).
	mux.Handle("GET /api/v1/templates", chain(http.HandlerFunc(h.ListTemplates)))
	mux.Handle("POST /api/v1/templates", chain(http.HandlerFunc(h.CreateTemplate)))
	mux.Handle("POST /api/v1/templates/compose", chain(http.HandlerFunc(h.ComposeTemplate)))
	mux.Handle("GET /api/v1/templates/{ref}", chain(http.HandlerFunc(h.GetTemplate)))
	mux.Handle("DELETE /api/v1/templates/{ref}", chain(http.HandlerFunc(h.DeleteTemplate)))
	mux.Handle("GET /api/v1/templates/{ref}/plan", chain(http.HandlerFunc(h.GetTemplatePlan)))
	mux.Handle("GET /api/v1/templates/{ref}/graph", chain(http.HandlerFunc(h.GetTemplateGraph)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/templates/{ref}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/runs/{id}/report", chain(http.HandlerFunc(h.GetRunReport)))

	// Schedules
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))
	mux.Handle("POST /api/v1/templates/{ref}/schedules", chain(http.HandlerFunc(h.CreateSchedule)))
	mux.Handle("GET /api/v1/schedules/{id}", chain(http.HandlerFunc(h.GetSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}", chain(http.HandlerFunc(h.UpdateSchedule)))
	mux.Handle("DELETE /api/v1/schedules/{id}", chain(http.HandlerFunc(h.DeleteSchedule)))
	mux.Handle("PUT /api/v1/schedules/{id}/enabled", chain(http.HandlerFunc(h.SetScheduleEnabled)))

	// Step bindings
	mux.Handle("GET /api/v1/bindings", chain(http.HandlerFunc(h.ListBindings)))
	mux.Handle("GET /api/v1/bindings/{step}", chain(http.HandlerFunc(h.GetBinding)))
	mux.Handle("PUT /api/v1/bindings/{step}", chain(http.HandlerFunc(h.PutBinding)))
	mux.Handle("DELETE /api/v1/bindings/{step}", chain(http.HandlerFunc(h.DeleteBinding)))

	// Report archive
	mux.Handle("GET /api/v1/reports", chain(http.HandlerFunc(h.ListReports)))
}
