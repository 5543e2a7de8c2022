package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/escalamedica/plantao/internal/acesso"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
)

// GetMatrizAcesso devolve as permissões efetivas de um perfil, já com os
// padrões aplicados para módulos sem registro.
func (h *Handler) GetMatrizAcesso(w http.ResponseWriter, r *http.Request) {
	perfil := chi.URLParam(r, "perfil")
	if !acesso.PerfilValido(perfil) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "perfil desconhecido", nil)
		return
	}

	efetivo, err := h.acessos.GetEffectivePermissions(r.Context(), httpmiddleware.GetTenantID(r.Context()), perfil)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"perfil":  perfil,
		"modulos": efetivo,
	})
}

// SalvarMatrizAcesso grava um lote de permissões perfil/módulo.
func (h *Handler) SalvarMatrizAcesso(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Itens []acesso.Item `json:"itens"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if len(payload.Itens) == 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "itens é obrigatório", nil)
		return
	}

	if err := h.acessos.SaveMatrix(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), payload.Itens); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"salvo": true})
}
