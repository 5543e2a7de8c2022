package http

import (
	"encoding/json"
	"net/http"

	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/master"
)

// ListMasters devolve os administradores do tenant.
func (h *Handler) ListMasters(w http.ResponseWriter, r *http.Request) {
	masters, err := h.masters.List(r.Context(), httpmiddleware.GetTenantID(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"masters": masters})
}

// CreateMaster cadastra um novo administrador.
func (h *Handler) CreateMaster(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	m, err := h.masters.Create(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), master.CreateInput{
		Nome:  payload.Nome,
		Email: payload.Email,
		Senha: payload.Senha,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"master": m})
}

// SetMasterAtivo liga/desliga a conta do administrador.
func (h *Handler) SetMasterAtivo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
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

	if err := h.masters.SetAtivo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, payload.Ativo); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": payload.Ativo})
}
