package medapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/documento"
	"github.com/escalamedica/plantao/internal/escala"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/ponto"
)

type stubProvider struct {
	medico   *medico.Medico
	escalas  []escala.Escala
	plantoes []escala.Plantao
	registro *ponto.RegistroPonto
	resumo   *ponto.ResumoHoje

	checkInErr error
}

func (s *stubProvider) GetMe(ctx context.Context, tenantID, medicoID uuid.UUID) (*medico.Medico, error) {
	return s.medico, nil
}

func (s *stubProvider) ListEscalas(ctx context.Context, tenantID, medicoID uuid.UUID) ([]escala.Escala, error) {
	return s.escalas, nil
}

func (s *stubProvider) ListPlantoesDaEscala(ctx context.Context, tenantID, medicoID, escalaID uuid.UUID) ([]escala.Plantao, error) {
	return s.plantoes, nil
}

func (s *stubProvider) CheckIn(ctx context.Context, tenantID, medicoID uuid.UUID, input ponto.CheckInInput) (*ponto.RegistroPonto, error) {
	if s.checkInErr != nil {
		return nil, s.checkInErr
	}
	return s.registro, nil
}

func (s *stubProvider) CheckOut(ctx context.Context, tenantID, medicoID uuid.UUID, observacao *string) (*ponto.RegistroPonto, error) {
	return s.registro, nil
}

func (s *stubProvider) GetHoje(ctx context.Context, tenantID, medicoID uuid.UUID) (*ponto.ResumoHoje, error) {
	return s.resumo, nil
}

func (s *stubProvider) ListDocumentos(ctx context.Context, tenantID, medicoID uuid.UUID, page, limit int) ([]documento.Documento, int, error) {
	return nil, 0, nil
}

func TestMedappHandlers(t *testing.T) {
	escalaID := uuid.New()
	provider := &stubProvider{
		medico:   &medico.Medico{ID: uuid.New(), Nome: "Dra. Ana", CRM: "12345-PB", Ativo: true},
		escalas:  []escala.Escala{{ID: escalaID, Nome: "UPA Central", Ativo: true}},
		plantoes: []escala.Plantao{{ID: uuid.New(), EscalaID: escalaID, GradeID: escala.GradeManhaTarde}},
		registro: &ponto.RegistroPonto{ID: uuid.New(), CheckInAt: time.Now()},
		resumo:   &ponto.ResumoHoje{Registros: []ponto.RegistroPonto{}},
	}

	handler := NewHandler(provider)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"me", http.MethodGet, "/me", nil, http.StatusOK},
		{"escalas", http.MethodGet, "/escalas", nil, http.StatusOK},
		{"plantoes", http.MethodGet, "/escalas/" + escalaID.String() + "/plantoes", nil, http.StatusOK},
		{"plantoes-id-invalido", http.MethodGet, "/escalas/nao-uuid/plantoes", nil, http.StatusBadRequest},
		{"checkin", http.MethodPost, "/ponto/checkin", map[string]any{"escala_id": escalaID}, http.StatusCreated},
		{"checkout", http.MethodPost, "/ponto/checkout", map[string]any{"observacao": "fim do turno"}, http.StatusOK},
		{"hoje", http.MethodGet, "/ponto/hoje", nil, http.StatusOK},
		{"documentos", http.MethodGet, "/documentos?page=1&limit=5", nil, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = withAuth(req)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestMedappCheckInConflito(t *testing.T) {
	provider := &stubProvider{checkInErr: apperr.Conflict("check-in já aberto")}
	handler := NewHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/ponto/checkin", requestBody(map[string]any{}))
	req = withAuth(req)
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestMedappSemIdentificacao(t *testing.T) {
	handler := NewHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}

func withAuth(req *http.Request) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, uuid.New().String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyTenant, uuid.New())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "medico")
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, []string{"MEDICO"})
	return req.WithContext(ctx)
}
