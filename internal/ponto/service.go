package ponto

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/escala"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	GetAberto(ctx context.Context, tenantID, medicoID uuid.UUID) (*RegistroPonto, error)
	InsertAbertura(ctx context.Context, tenantID, medicoID uuid.UUID, escalaID *uuid.UUID, checkInAt time.Time, observacao *string, origem string) (*RegistroPonto, error)
	Fechar(ctx context.Context, tenantID, id uuid.UUID, checkOutAt time.Time, duracaoMinutos int, observacao *string) (*RegistroPonto, error)
	ListDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID, de, ate time.Time) ([]RegistroPonto, error)
	ListRegistros(ctx context.Context, tenantID uuid.UUID, filtro RegistroFiltro) ([]RegistroPonto, int, error)
	UpsertConfig(ctx context.Context, cfg ConfigPonto) (*ConfigPonto, error)
	ListConfigs(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]ConfigPonto, error)
	ResolveConfig(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (*ConfigPonto, error)
}

// EscalaDirectory resolve escalas e vínculos para validar o check-in.
type EscalaDirectory interface {
	GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*escala.Escala, error)
	HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error)
}

// Service concentra a máquina de estados do ponto eletrônico.
type Service struct {
	repo    Store
	escalas EscalaDirectory
	audit   auditoria.Recorder
	agora   func() time.Time
}

// NewService cria o serviço do ponto.
func NewService(repo Store, escalas EscalaDirectory, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, escalas: escalas, audit: audit, agora: time.Now}
}

// CheckIn abre um registro de presença para o médico. Falha se já houver
// registro aberto, se a escala informada não existir ou estiver inativa,
// se o médico não tiver vínculo ativo com ela, ou se a cerca geográfica
// configurada rejeitar as coordenadas.
func (s *Service) CheckIn(ctx context.Context, tenantID, medicoID uuid.UUID, input CheckInInput) (*RegistroPonto, error) {
	if input.EscalaID != nil {
		e, err := s.escalas.GetEscala(ctx, tenantID, *input.EscalaID)
		if err != nil {
			return nil, err
		}
		if !e.Ativo {
			return nil, apperr.NotFound("escala não encontrada")
		}

		alocado, err := s.escalas.HasAlocacaoAtiva(ctx, tenantID, *input.EscalaID, medicoID)
		if err != nil {
			return nil, err
		}
		if !alocado {
			return nil, apperr.Forbidden("médico não alocado nesta escala")
		}
	}

	aberto, err := s.repo.GetAberto(ctx, tenantID, medicoID)
	if err != nil {
		return nil, err
	}
	if aberto != nil {
		return nil, apperr.Conflict("check-in já aberto")
	}

	if input.EscalaID != nil {
		if err := s.validarGeofence(ctx, tenantID, *input.EscalaID, medicoID, input.Latitude, input.Longitude); err != nil {
			return nil, err
		}
	}

	reg, err := s.repo.InsertAbertura(ctx, tenantID, medicoID, input.EscalaID, s.agora(), input.Observacao, OrigemAppMedico)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CHECKIN_MEDICO",
		MedicoID: &medicoID,
		Detalhes: map[string]any{"registro_id": reg.ID.String()},
	})

	return reg, nil
}

// CheckOut fecha o registro aberto do médico. A duração é o total de
// minutos inteiros, com mínimo de um minuto mesmo em sessões curtas.
func (s *Service) CheckOut(ctx context.Context, tenantID, medicoID uuid.UUID, observacao *string) (*RegistroPonto, error) {
	aberto, err := s.repo.GetAberto(ctx, tenantID, medicoID)
	if err != nil {
		return nil, err
	}
	if aberto == nil {
		return nil, apperr.NotFound("nenhum check-in aberto")
	}

	agora := s.agora()
	if !agora.After(aberto.CheckInAt) {
		return nil, apperr.Validation("horário de saída inválido")
	}

	minutos := int(agora.Sub(aberto.CheckInAt) / time.Minute)
	if minutos < 1 {
		minutos = 1
	}

	reg, err := s.repo.Fechar(ctx, tenantID, aberto.ID, agora, minutos, observacao)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CHECKOUT_MEDICO",
		MedicoID: &medicoID,
		Detalhes: map[string]any{"registro_id": reg.ID.String(), "duracao_minutos": minutos},
	})

	return reg, nil
}

// GetHoje devolve o registro aberto, os registros do dia corrente (limites
// do dia local) e a soma de minutos fechados.
func (s *Service) GetHoje(ctx context.Context, tenantID, medicoID uuid.UUID) (*ResumoHoje, error) {
	agora := s.agora()
	inicio := time.Date(agora.Year(), agora.Month(), agora.Day(), 0, 0, 0, 0, agora.Location())
	fim := inicio.Add(24*time.Hour - time.Millisecond)

	registros, err := s.repo.ListDoMedico(ctx, tenantID, medicoID, inicio, fim)
	if err != nil {
		return nil, err
	}

	resumo := &ResumoHoje{Registros: registros}
	for i := range registros {
		if registros[i].CheckOutAt == nil {
			resumo.Aberto = &registros[i]
			continue
		}
		if registros[i].DuracaoMinutos != nil {
			resumo.TotalMinutos += *registros[i].DuracaoMinutos
		}
	}

	return resumo, nil
}

// ListRegistros lista registros para a visão administrativa.
func (s *Service) ListRegistros(ctx context.Context, tenantID uuid.UUID, filtro RegistroFiltro) ([]RegistroPonto, int, error) {
	return s.repo.ListRegistros(ctx, tenantID, filtro)
}

// SalvarConfig grava a configuração de ponto do escopo, validando a cerca
// geográfica quando informada.
func (s *Service) SalvarConfig(ctx context.Context, tenantID, masterID uuid.UUID, cfg ConfigPonto) (*ConfigPonto, error) {
	cfg.TenantID = tenantID

	temGeofence := cfg.Latitude != nil || cfg.Longitude != nil || cfg.RaioMetros != nil
	if temGeofence {
		if cfg.Latitude == nil || cfg.Longitude == nil || cfg.RaioMetros == nil {
			return nil, apperr.Validation("cerca geográfica incompleta")
		}
		if *cfg.Latitude < -90 || *cfg.Latitude > 90 || *cfg.Longitude < -180 || *cfg.Longitude > 180 {
			return nil, apperr.Validation("coordenadas inválidas")
		}
		if *cfg.RaioMetros <= 0 {
			return nil, apperr.Validation("raio inválido")
		}
	}

	salva, err := s.repo.UpsertConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "SALVAR_CONFIG_PONTO",
		MasterID: &masterID,
		Detalhes: map[string]any{"config_id": salva.ID.String()},
	})

	return salva, nil
}

// ListConfigs lista configurações do tenant.
func (s *Service) ListConfigs(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]ConfigPonto, error) {
	return s.repo.ListConfigs(ctx, tenantID, contratoID)
}

func (s *Service) validarGeofence(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, lat, lon *float64) error {
	cfg, err := s.repo.ResolveConfig(ctx, tenantID, escalaID, medicoID)
	if err != nil {
		return err
	}
	if cfg == nil || cfg.Latitude == nil || cfg.Longitude == nil || cfg.RaioMetros == nil {
		return nil
	}

	if lat == nil || lon == nil {
		return apperr.Validation("coordenadas obrigatórias para check-in")
	}

	distancia := distanciaMetros(*cfg.Latitude, *cfg.Longitude, *lat, *lon)
	if distancia > float64(*cfg.RaioMetros) {
		return apperr.Validation("fora do perímetro permitido")
	}
	return nil
}

const raioTerraMetros = 6371000

// distanciaMetros calcula a distância haversine entre dois pontos.
func distanciaMetros(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(graus float64) float64 { return graus * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return raioTerraMetros * c
}
