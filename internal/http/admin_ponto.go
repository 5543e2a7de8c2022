package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/ponto"
)

// ListRegistrosPonto devolve os registros de ponto do tenant, paginados e com
// filtros opcionais de médico e período.
func (h *Handler) ListRegistrosPonto(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r)
	filtro := ponto.RegistroFiltro{Page: page, Limit: limit}

	if raw := r.URL.Query().Get("medico_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "medico_id inválido", nil)
			return
		}
		filtro.MedicoID = &id
	}
	if raw := r.URL.Query().Get("de"); raw != "" {
		de, err := parseData(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "parâmetro de inválido", nil)
			return
		}
		filtro.De = &de
	}
	if raw := r.URL.Query().Get("ate"); raw != "" {
		ate, err := parseData(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "parâmetro ate inválido", nil)
			return
		}
		filtro.Ate = &ate
	}

	registros, total, err := h.pontos.ListRegistros(r.Context(), httpmiddleware.GetTenantID(r.Context()), filtro)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, PaginatedEnvelope{
		Items:      registros,
		Pagination: NewPagination(page, limit, total),
	})
}

// ListConfigsPonto devolve as configurações de ponto, com filtro opcional por contrato.
func (h *Handler) ListConfigsPonto(w http.ResponseWriter, r *http.Request) {
	var contratoID *uuid.UUID
	if raw := r.URL.Query().Get("contrato_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "contrato_id inválido", nil)
			return
		}
		contratoID = &id
	}

	configs, err := h.pontos.ListConfigs(r.Context(), httpmiddleware.GetTenantID(r.Context()), contratoID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// SalvarConfigPonto grava a configuração de ponto de um subgrupo do contrato.
func (h *Handler) SalvarConfigPonto(w http.ResponseWriter, r *http.Request) {
	var payload ponto.ConfigPonto
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	cfg, err := h.pontos.SalvarConfig(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), payload)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"config": cfg})
}
