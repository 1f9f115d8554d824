package api

import (
	"net/http"

	"github.com/partitura/partitura/internal/domain"
	"github.com/partitura/partitura/internal/repo"
)

// ListReports возвращает архив итоговых отчётов.
// GET /api/v1/reports?template=...&status=...&limit=...&offset=...
//
// Архив пополняется collector'ом по событиям run.completed / run.failed,
// поэтому отчёт попадает сюда с задержкой относительно завершения run.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	filter := repo.ArchiveFilter{
		TemplateName: r.URL.Query().Get("template"),
		Status:       domain.RunStatus(r.URL.Query().Get("status")),
		Limit:        queryInt(r, "limit", 50),
		Offset:       queryInt(r, "offset", 0),
	}

	reports, err := h.archiveRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ArchivedReportResponse, len(reports))
	for i, entry := range reports {
		result[i] = ArchivedReportFromDomain(entry)
	}

	List(w, result, len(result))
}
