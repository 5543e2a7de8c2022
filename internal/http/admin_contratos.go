package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/contrato"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
)

// ListContratos devolve todos os contratos ativos do tenant.
func (h *Handler) ListContratos(w http.ResponseWriter, r *http.Request) {
	contratos, err := h.contratos.ListContratos(r.Context(), httpmiddleware.GetTenantID(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contratos": contratos})
}

// CreateContrato cadastra um contrato ativo.
func (h *Handler) CreateContrato(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome       string  `json:"nome"`
		DataInicio string  `json:"data_inicio"`
		DataFim    *string `json:"data_fim"`
		UsaEscala  bool    `json:"usa_escala"`
		UsaPonto   bool    `json:"usa_ponto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	inicio, err := parseData(payload.DataInicio)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data_inicio inválida", nil)
		return
	}

	input := contrato.ContratoInput{
		Nome:       payload.Nome,
		DataInicio: inicio,
		UsaEscala:  payload.UsaEscala,
		UsaPonto:   payload.UsaPonto,
	}
	if payload.DataFim != nil {
		fim, err := parseData(*payload.DataFim)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "data_fim inválida", nil)
			return
		}
		input.DataFim = &fim
	}

	c, err := h.contratos.CreateContrato(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), input)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"contrato": c})
}

// GetContrato busca um contrato pelo id.
func (h *Handler) GetContrato(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	c, err := h.contratos.GetContrato(r.Context(), httpmiddleware.GetTenantID(r.Context()), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contrato": c})
}

// UpdateContrato atualiza os dados do contrato.
func (h *Handler) UpdateContrato(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Nome       string  `json:"nome"`
		DataInicio string  `json:"data_inicio"`
		DataFim    *string `json:"data_fim"`
		UsaEscala  bool    `json:"usa_escala"`
		UsaPonto   bool    `json:"usa_ponto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	inicio, err := parseData(payload.DataInicio)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data_inicio inválida", nil)
		return
	}

	input := contrato.ContratoInput{
		Nome:       payload.Nome,
		DataInicio: inicio,
		UsaEscala:  payload.UsaEscala,
		UsaPonto:   payload.UsaPonto,
	}
	if payload.DataFim != nil {
		fim, err := parseData(*payload.DataFim)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "data_fim inválida", nil)
			return
		}
		input.DataFim = &fim
	}

	c, err := h.contratos.UpdateContrato(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, input)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"contrato": c})
}

// SetContratoAtivo liga/desliga o contrato.
func (h *Handler) SetContratoAtivo(w http.ResponseWriter, r *http.Request) {
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

	if err := h.contratos.SetContratoAtivo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, payload.Ativo); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": payload.Ativo})
}

// VincularContratoSubgrupo associa um subgrupo ao contrato.
func (h *Handler) VincularContratoSubgrupo(w http.ResponseWriter, r *http.Request) {
	contratoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	subgrupoID, ok := pathUUID(r, "subgrupoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "subgrupoID inválido", nil)
		return
	}

	if err := h.contratos.AddSubgrupoContrato(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), contratoID, subgrupoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// VincularContratoEquipe associa uma equipe ao contrato.
func (h *Handler) VincularContratoEquipe(w http.ResponseWriter, r *http.Request) {
	contratoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	equipeID, ok := pathUUID(r, "equipeID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "equipeID inválido", nil)
		return
	}

	if err := h.contratos.AddEquipeContrato(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), contratoID, equipeID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// ListValoresPlantao devolve a tabela de valores-hora do contrato.
func (h *Handler) ListValoresPlantao(w http.ResponseWriter, r *http.Request) {
	contratoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	valores, err := h.escalas.ListValoresPlantao(r.Context(), httpmiddleware.GetTenantID(r.Context()), contratoID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"valores": valores})
}

// DefinirValorPlantao grava o valor-hora de uma grade para um subgrupo do contrato.
func (h *Handler) DefinirValorPlantao(w http.ResponseWriter, r *http.Request) {
	contratoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		SubgrupoID uuid.UUID `json:"subgrupo_id"`
		GradeID    string    `json:"grade_id"`
		ValorHora  float64   `json:"valor_hora"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	valor, err := h.escalas.DefinirValorPlantao(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), contratoID, payload.SubgrupoID, payload.GradeID, payload.ValorHora)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"valor": valor})
}

// ListSubgrupos devolve os subgrupos do tenant.
func (h *Handler) ListSubgrupos(w http.ResponseWriter, r *http.Request) {
	subgrupos, err := h.contratos.ListSubgrupos(r.Context(), httpmiddleware.GetTenantID(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"subgrupos": subgrupos})
}

// CreateSubgrupo cadastra um subgrupo.
func (h *Handler) CreateSubgrupo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome      string  `json:"nome"`
		Descricao *string `json:"descricao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	s, err := h.contratos.CreateSubgrupo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), contrato.SubgrupoInput{
		Nome:      payload.Nome,
		Descricao: payload.Descricao,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"subgrupo": s})
}

// DeleteSubgrupo remove um subgrupo.
func (h *Handler) DeleteSubgrupo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.contratos.DeleteSubgrupo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

// VincularMedicoSubgrupo adiciona um médico ao subgrupo.
func (h *Handler) VincularMedicoSubgrupo(w http.ResponseWriter, r *http.Request) {
	subgrupoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	if err := h.contratos.AddMedicoSubgrupo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), subgrupoID, medicoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// RemoverMedicoSubgrupo retira um médico do subgrupo.
func (h *Handler) RemoverMedicoSubgrupo(w http.ResponseWriter, r *http.Request) {
	subgrupoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	if err := h.contratos.RemoveMedicoSubgrupo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), subgrupoID, medicoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

// ListEquipes devolve as equipes do tenant, com filtro opcional por subgrupo.
func (h *Handler) ListEquipes(w http.ResponseWriter, r *http.Request) {
	var subgrupoID *uuid.UUID
	if raw := r.URL.Query().Get("subgrupo_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "subgrupo_id inválido", nil)
			return
		}
		subgrupoID = &id
	}

	equipes, err := h.contratos.ListEquipes(r.Context(), httpmiddleware.GetTenantID(r.Context()), subgrupoID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"equipes": equipes})
}

// CreateEquipe cadastra uma equipe.
func (h *Handler) CreateEquipe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome       string     `json:"nome"`
		Descricao  *string    `json:"descricao"`
		SubgrupoID *uuid.UUID `json:"subgrupo_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	e, err := h.contratos.CreateEquipe(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), contrato.EquipeInput{
		Nome:       payload.Nome,
		Descricao:  payload.Descricao,
		SubgrupoID: payload.SubgrupoID,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"equipe": e})
}

// DeleteEquipe remove uma equipe.
func (h *Handler) DeleteEquipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.contratos.DeleteEquipe(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

// VincularMedicoEquipe adiciona um médico à equipe.
func (h *Handler) VincularMedicoEquipe(w http.ResponseWriter, r *http.Request) {
	equipeID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	if err := h.contratos.AddMedicoEquipe(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), equipeID, medicoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// RemoverMedicoEquipe retira um médico da equipe.
func (h *Handler) RemoverMedicoEquipe(w http.ResponseWriter, r *http.Request) {
	equipeID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	if err := h.contratos.RemoveMedicoEquipe(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), equipeID, medicoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}
