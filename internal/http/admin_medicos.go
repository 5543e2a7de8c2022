package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/medico"
)

// ListMedicos devolve a lista paginada de médicos, com busca opcional.
func (h *Handler) ListMedicos(w http.ResponseWriter, r *http.Request) {
	tenantID := httpmiddleware.GetTenantID(r.Context())
	page, limit := ParsePagination(r)
	search := r.URL.Query().Get("busca")

	medicos, total, err := h.medicos.List(r.Context(), tenantID, search, limit, (page-1)*limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, PaginatedEnvelope{
		Items:      medicos,
		Pagination: NewPagination(page, limit, total),
	})
}

// CreateMedico cadastra um médico no tenant.
func (h *Handler) CreateMedico(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome     string  `json:"nome"`
		CPF      string  `json:"cpf"`
		CRM      string  `json:"crm"`
		Email    *string `json:"email"`
		Telefone *string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	m, err := h.medicos.Create(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), medico.CreateInput{
		Nome:     payload.Nome,
		CPF:      payload.CPF,
		CRM:      payload.CRM,
		Email:    payload.Email,
		Telefone: payload.Telefone,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"medico": m})
}

// GetMedico busca um médico pelo id.
func (h *Handler) GetMedico(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	m, err := h.medicos.Get(r.Context(), httpmiddleware.GetTenantID(r.Context()), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"medico": m})
}

// UpdateMedico atualiza os campos mutáveis do cadastro.
func (h *Handler) UpdateMedico(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Nome     string  `json:"nome"`
		Email    *string `json:"email"`
		Telefone *string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	m, err := h.medicos.Update(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, medico.UpdateInput{
		Nome:     payload.Nome,
		Email:    payload.Email,
		Telefone: payload.Telefone,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"medico": m})
}

// SetMedicoAtivo liga/desliga o cadastro do médico.
func (h *Handler) SetMedicoAtivo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Ativo bool `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.medicos.SetAtivo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, payload.Ativo); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": payload.Ativo})
}

// ConvidarMedico gera um novo convite de primeiro acesso.
func (h *Handler) ConvidarMedico(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	token, expiraEm, err := h.medicos.GerarConvite(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"token":     token,
		"expira_em": expiraEm,
	})
}
