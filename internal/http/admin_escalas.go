package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/escala"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
)

// ListEscalas devolve as escalas do tenant, com filtro opcional por contrato.
func (h *Handler) ListEscalas(w http.ResponseWriter, r *http.Request) {
	var contratoID *uuid.UUID
	if raw := r.URL.Query().Get("contrato_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "contrato_id inválido", nil)
			return
		}
		contratoID = &id
	}

	escalas, err := h.escalas.ListEscalas(r.Context(), httpmiddleware.GetTenantID(r.Context()), contratoID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"escalas": escalas})
}

// CreateEscala cria uma escala dentro de um contrato que usa escala.
func (h *Handler) CreateEscala(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ContratoAtivoID uuid.UUID `json:"contrato_ativo_id"`
		Nome            string    `json:"nome"`
		DataInicio      string    `json:"data_inicio"`
		DataFim         string    `json:"data_fim"`
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
	fim, err := parseData(payload.DataFim)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data_fim inválida", nil)
		return
	}

	e, err := h.escalas.CreateEscala(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escala.EscalaInput{
		ContratoAtivoID: payload.ContratoAtivoID,
		Nome:            payload.Nome,
		DataInicio:      inicio,
		DataFim:         fim,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"escala": e})
}

// GetEscala busca uma escala pelo id.
func (h *Handler) GetEscala(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	e, err := h.escalas.GetEscala(r.Context(), httpmiddleware.GetTenantID(r.Context()), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"escala": e})
}

// SetEscalaAtivo liga/desliga a escala.
func (h *Handler) SetEscalaAtivo(w http.ResponseWriter, r *http.Request) {
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

	if err := h.escalas.SetEscalaAtivo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id, payload.Ativo); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": payload.Ativo})
}

// VincularEscalaSubgrupo associa um subgrupo à escala.
func (h *Handler) VincularEscalaSubgrupo(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	subgrupoID, ok := pathUUID(r, "subgrupoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "subgrupoID inválido", nil)
		return
	}

	if err := h.escalas.VincularSubgrupo(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, subgrupoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// VincularEscalaEquipe associa uma equipe à escala.
func (h *Handler) VincularEscalaEquipe(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	equipeID, ok := pathUUID(r, "equipeID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "equipeID inválido", nil)
		return
	}

	if err := h.escalas.VincularEquipe(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, equipeID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"vinculado": true})
}

// ListAlocacoes devolve os médicos alocados na escala.
func (h *Handler) ListAlocacoes(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	alocacoes, err := h.escalas.ListAlocacoes(r.Context(), httpmiddleware.GetTenantID(r.Context()), escalaID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"alocacoes": alocacoes})
}

// AlocarMedico vincula um médico à escala.
func (h *Handler) AlocarMedico(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	var payload struct {
		Cargo     *string  `json:"cargo"`
		ValorHora *float64 `json:"valor_hora"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
			return
		}
	}

	a, err := h.escalas.AlocarMedico(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, medicoID, payload.Cargo, payload.ValorHora)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"alocacao": a})
}

// DesalocarMedico desativa o vínculo do médico com a escala.
func (h *Handler) DesalocarMedico(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	medicoID, ok := pathUUID(r, "medicoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "medicoID inválido", nil)
		return
	}

	if err := h.escalas.DesalocarMedico(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, medicoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

// ListPlantoes devolve os plantões da escala no intervalo ?de=&ate=.
func (h *Handler) ListPlantoes(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	de, err := parseData(r.URL.Query().Get("de"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "parâmetro de inválido", nil)
		return
	}
	ate, err := parseData(r.URL.Query().Get("ate"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "parâmetro ate inválido", nil)
		return
	}

	plantoes, err := h.escalas.ListPlantoes(r.Context(), httpmiddleware.GetTenantID(r.Context()), escalaID, de, ate)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"plantoes": plantoes})
}

// AtribuirPlantao atribui um médico a uma célula (data, grade) da escala.
func (h *Handler) AtribuirPlantao(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Data      string    `json:"data"`
		GradeID   string    `json:"grade_id"`
		MedicoID  uuid.UUID `json:"medico_id"`
		ValorHora *float64  `json:"valor_hora"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	data, err := parseData(payload.Data)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "data inválida", nil)
		return
	}

	p, err := h.escalas.AtribuirPlantao(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, escala.AtribuirPlantaoInput{
		Data:      data,
		GradeID:   payload.GradeID,
		MedicoID:  payload.MedicoID,
		ValorHora: payload.ValorHora,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"plantao": p})
}

// RemoverPlantao apaga uma atribuição de plantão.
func (h *Handler) RemoverPlantao(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	plantaoID, ok := pathUUID(r, "plantaoID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "plantaoID inválido", nil)
		return
	}

	if err := h.escalas.RemoverPlantao(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, plantaoID); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

// ReplicarSemana atribui o mesmo médico e grade nas 7 datas informadas.
// Cada dia é atribuído de forma independente; falhas parciais não desfazem
// os dias já gravados.
func (h *Handler) ReplicarSemana(w http.ResponseWriter, r *http.Request) {
	escalaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		GradeID   string    `json:"grade_id"`
		MedicoID  uuid.UUID `json:"medico_id"`
		Datas     []string  `json:"datas"`
		ValorHora *float64  `json:"valor_hora"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	datas := make([]time.Time, 0, len(payload.Datas))
	for _, raw := range payload.Datas {
		data, err := parseData(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "data inválida: "+raw, nil)
			return
		}
		datas = append(datas, data)
	}

	dias, err := h.escalas.ReplicarSemana(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), escalaID, escala.ReplicarSemanaInput{
		GradeID:   payload.GradeID,
		MedicoID:  payload.MedicoID,
		Datas:     datas,
		ValorHora: payload.ValorHora,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"dias": dias})
}
