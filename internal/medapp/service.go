package medapp

import (
	"context"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/documento"
	"github.com/escalamedica/plantao/internal/escala"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/ponto"
)

// Service implementa ServiceProvider delegando aos serviços de domínio.
type Service struct {
	medicos    *medico.Service
	escalas    *escala.Service
	pontos     *ponto.Service
	documentos *documento.Service
}

// NewService cria a fachada do aplicativo do médico.
func NewService(medicos *medico.Service, escalas *escala.Service, pontos *ponto.Service, documentos *documento.Service) *Service {
	return &Service{medicos: medicos, escalas: escalas, pontos: pontos, documentos: documentos}
}

func (s *Service) GetMe(ctx context.Context, tenantID, medicoID uuid.UUID) (*medico.Medico, error) {
	return s.medicos.Get(ctx, tenantID, medicoID)
}

func (s *Service) ListEscalas(ctx context.Context, tenantID, medicoID uuid.UUID) ([]escala.Escala, error) {
	return s.escalas.ListMinhasEscalas(ctx, tenantID, medicoID)
}

// ListPlantoesDaEscala devolve os plantões da escala ao longo de toda a
// vigência; exige vínculo ativo do médico.
func (s *Service) ListPlantoesDaEscala(ctx context.Context, tenantID, medicoID, escalaID uuid.UUID) ([]escala.Plantao, error) {
	alocado, err := s.escalas.HasAlocacaoAtiva(ctx, tenantID, escalaID, medicoID)
	if err != nil {
		return nil, err
	}
	if !alocado {
		return nil, apperr.Forbidden("médico não alocado nesta escala")
	}

	e, err := s.escalas.GetEscala(ctx, tenantID, escalaID)
	if err != nil {
		return nil, err
	}

	return s.escalas.ListPlantoes(ctx, tenantID, escalaID, e.DataInicio, e.DataFim)
}

func (s *Service) CheckIn(ctx context.Context, tenantID, medicoID uuid.UUID, input ponto.CheckInInput) (*ponto.RegistroPonto, error) {
	return s.pontos.CheckIn(ctx, tenantID, medicoID, input)
}

func (s *Service) CheckOut(ctx context.Context, tenantID, medicoID uuid.UUID, observacao *string) (*ponto.RegistroPonto, error) {
	return s.pontos.CheckOut(ctx, tenantID, medicoID, observacao)
}

func (s *Service) GetHoje(ctx context.Context, tenantID, medicoID uuid.UUID) (*ponto.ResumoHoje, error) {
	return s.pontos.GetHoje(ctx, tenantID, medicoID)
}

func (s *Service) ListDocumentos(ctx context.Context, tenantID, medicoID uuid.UUID, page, limit int) ([]documento.Documento, int, error) {
	return s.documentos.ListDoMedico(ctx, tenantID, medicoID, page, limit)
}
