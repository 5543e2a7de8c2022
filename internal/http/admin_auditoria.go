package http

import (
	"net/http"

	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
)

// ListAuditoria devolve a trilha de auditoria do tenant, mais recente primeiro.
func (h *Handler) ListAuditoria(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r)

	registros, total, err := h.auditoria.List(r.Context(), httpmiddleware.GetTenantID(r.Context()), limit, (page-1)*limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, PaginatedEnvelope{
		Items:      registros,
		Pagination: NewPagination(page, limit, total),
	})
}
