package medapp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/documento"
	"github.com/escalamedica/plantao/internal/escala"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/ponto"
)

// ServiceProvider agrega os casos de uso expostos ao aplicativo do médico.
type ServiceProvider interface {
	GetMe(ctx context.Context, tenantID, medicoID uuid.UUID) (*medico.Medico, error)
	ListEscalas(ctx context.Context, tenantID, medicoID uuid.UUID) ([]escala.Escala, error)
	ListPlantoesDaEscala(ctx context.Context, tenantID, medicoID, escalaID uuid.UUID) ([]escala.Plantao, error)
	CheckIn(ctx context.Context, tenantID, medicoID uuid.UUID, input ponto.CheckInInput) (*ponto.RegistroPonto, error)
	CheckOut(ctx context.Context, tenantID, medicoID uuid.UUID, observacao *string) (*ponto.RegistroPonto, error)
	GetHoje(ctx context.Context, tenantID, medicoID uuid.UUID) (*ponto.ResumoHoje, error)
	ListDocumentos(ctx context.Context, tenantID, medicoID uuid.UUID, page, limit int) ([]documento.Documento, int, error)
}

// Handler expõe os endpoints REST do médico.
type Handler struct {
	service ServiceProvider
}

func NewHandler(service ServiceProvider) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.getMe)
	r.Get("/escalas", h.listEscalas)
	r.Get("/escalas/{escalaID}/plantoes", h.listPlantoes)
	r.Post("/ponto/checkin", h.checkIn)
	r.Post("/ponto/checkout", h.checkOut)
	r.Get("/ponto/hoje", h.getHoje)
	r.Get("/documentos", h.listDocumentos)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	m, err := h.service.GetMe(r.Context(), tenantID, medicoID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"medico": m})
}

func (h *Handler) listEscalas(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	escalas, err := h.service.ListEscalas(r.Context(), tenantID, medicoID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"escalas": escalas})
}

func (h *Handler) listPlantoes(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	escalaID, err := uuid.Parse(chi.URLParam(r, "escalaID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "escala inválida", nil)
		return
	}

	plantoes, err := h.service.ListPlantoesDaEscala(r.Context(), tenantID, medicoID, escalaID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"plantoes": plantoes})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		EscalaID   *uuid.UUID `json:"escala_id"`
		Observacao *string    `json:"observacao"`
		Latitude   *float64   `json:"latitude"`
		Longitude  *float64   `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	reg, err := h.service.CheckIn(r.Context(), tenantID, medicoID, ponto.CheckInInput{
		EscalaID:   payload.EscalaID,
		Observacao: payload.Observacao,
		Latitude:   payload.Latitude,
		Longitude:  payload.Longitude,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"registro": reg})
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Observacao *string `json:"observacao"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	reg, err := h.service.CheckOut(r.Context(), tenantID, medicoID, payload.Observacao)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"registro": reg})
}

func (h *Handler) getHoje(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	resumo, err := h.service.GetHoje(r.Context(), tenantID, medicoID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resumo)
}

func (h *Handler) listDocumentos(w http.ResponseWriter, r *http.Request) {
	tenantID, medicoID, err := callerIDs(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	page, limit := parsePagination(r)
	documentos, total, err := h.service.ListDocumentos(r.Context(), tenantID, medicoID, page, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documentos": documentos,
		"pagination": map[string]int{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

func callerIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	medicoID, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	tenantID := httpmiddleware.GetTenantID(r.Context())
	return tenantID, medicoID, nil
}

func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 10
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Data: nil,
		Error: &errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func writeAppError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	writeError(w, appErr.Status, appErr.Code, appErr.Message, nil)
}
