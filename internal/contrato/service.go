package contrato

import (
	"context"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	CreateContrato(ctx context.Context, tenantID uuid.UUID, input ContratoInput) (*ContratoAtivo, error)
	GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*ContratoAtivo, error)
	ListContratos(ctx context.Context, tenantID uuid.UUID) ([]ContratoAtivo, error)
	UpdateContrato(ctx context.Context, tenantID, id uuid.UUID, input ContratoInput) (*ContratoAtivo, error)
	SetContratoAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error

	CreateSubgrupo(ctx context.Context, tenantID uuid.UUID, input SubgrupoInput) (*Subgrupo, error)
	GetSubgrupo(ctx context.Context, tenantID, id uuid.UUID) (*Subgrupo, error)
	ListSubgrupos(ctx context.Context, tenantID uuid.UUID) ([]Subgrupo, error)
	DeleteSubgrupo(ctx context.Context, tenantID, id uuid.UUID) error

	CreateEquipe(ctx context.Context, tenantID uuid.UUID, input EquipeInput) (*Equipe, error)
	GetEquipe(ctx context.Context, tenantID, id uuid.UUID) (*Equipe, error)
	ListEquipes(ctx context.Context, tenantID uuid.UUID, subgrupoID *uuid.UUID) ([]Equipe, error)
	DeleteEquipe(ctx context.Context, tenantID, id uuid.UUID) error

	UpsertSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) (bool, error)
	RemoveSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) error
	UpsertEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) (bool, error)
	RemoveEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) error
	UpsertContratoSubgrupo(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID) (bool, error)
	UpsertContratoEquipe(ctx context.Context, tenantID, contratoID, equipeID uuid.UUID) (bool, error)
}

// MedicoDirectory resolve médicos do tenant para validação de vínculos.
type MedicoDirectory interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error)
}

// Service concentra as regras da diretoria de contratos, subgrupos e equipes.
type Service struct {
	repo    Store
	medicos MedicoDirectory
	audit   auditoria.Recorder
}

// NewService cria o serviço da diretoria.
func NewService(repo Store, medicos MedicoDirectory, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, medicos: medicos, audit: audit}
}

// CreateContrato cadastra contrato exigindo pelo menos um uso habilitado.
func (s *Service) CreateContrato(ctx context.Context, tenantID, masterID uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if !input.UsaEscala && !input.UsaPonto {
		return nil, apperr.Validation("contrato precisa usar escala ou ponto")
	}
	if input.DataFim != nil && input.DataFim.Before(input.DataInicio) {
		return nil, apperr.Validation("data final anterior à inicial")
	}

	criado, err := s.repo.CreateContrato(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_CONTRATO",
		MasterID: &masterID,
		Detalhes: map[string]any{"contrato_id": criado.ID.String()},
	})

	return criado, nil
}

// GetContrato devolve o contrato do tenant.
func (s *Service) GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*ContratoAtivo, error) {
	return s.repo.GetContrato(ctx, tenantID, id)
}

// ListContratos devolve os contratos do tenant.
func (s *Service) ListContratos(ctx context.Context, tenantID uuid.UUID) ([]ContratoAtivo, error) {
	return s.repo.ListContratos(ctx, tenantID)
}

// UpdateContrato altera o contrato mantendo o invariante de uso.
func (s *Service) UpdateContrato(ctx context.Context, tenantID, masterID, id uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if !input.UsaEscala && !input.UsaPonto {
		return nil, apperr.Validation("contrato precisa usar escala ou ponto")
	}

	atualizado, err := s.repo.UpdateContrato(ctx, tenantID, id, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ATUALIZAR_CONTRATO",
		MasterID: &masterID,
		Detalhes: map[string]any{"contrato_id": id.String()},
	})

	return atualizado, nil
}

// SetContratoAtivo liga/desliga o contrato.
func (s *Service) SetContratoAtivo(ctx context.Context, tenantID, masterID, id uuid.UUID, ativo bool) error {
	if err := s.repo.SetContratoAtivo(ctx, tenantID, id, ativo); err != nil {
		return err
	}

	acao := "DESATIVAR_CONTRATO"
	if ativo {
		acao = "ATIVAR_CONTRATO"
	}
	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     acao,
		MasterID: &masterID,
		Detalhes: map[string]any{"contrato_id": id.String()},
	})

	return nil
}

// CreateSubgrupo cadastra subgrupo com nome obrigatório.
func (s *Service) CreateSubgrupo(ctx context.Context, tenantID, masterID uuid.UUID, input SubgrupoInput) (*Subgrupo, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	criado, err := s.repo.CreateSubgrupo(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_SUBGRUPO",
		MasterID: &masterID,
		Detalhes: map[string]any{"subgrupo_id": criado.ID.String()},
	})

	return criado, nil
}

// GetSubgrupo devolve o subgrupo do tenant.
func (s *Service) GetSubgrupo(ctx context.Context, tenantID, id uuid.UUID) (*Subgrupo, error) {
	return s.repo.GetSubgrupo(ctx, tenantID, id)
}

// ListSubgrupos devolve os subgrupos do tenant com contagem de membros.
func (s *Service) ListSubgrupos(ctx context.Context, tenantID uuid.UUID) ([]Subgrupo, error) {
	return s.repo.ListSubgrupos(ctx, tenantID)
}

// DeleteSubgrupo remove o subgrupo; cascade do schema cuida dos vínculos.
func (s *Service) DeleteSubgrupo(ctx context.Context, tenantID, masterID, id uuid.UUID) error {
	if err := s.repo.DeleteSubgrupo(ctx, tenantID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "REMOVER_SUBGRUPO",
		MasterID: &masterID,
		Detalhes: map[string]any{"subgrupo_id": id.String()},
	})

	return nil
}

// CreateEquipe cadastra equipe, validando o subgrupo quando informado.
func (s *Service) CreateEquipe(ctx context.Context, tenantID, masterID uuid.UUID, input EquipeInput) (*Equipe, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if input.SubgrupoID != nil {
		sub, err := s.repo.GetSubgrupo(ctx, tenantID, *input.SubgrupoID)
		if err != nil {
			return nil, err
		}
		if !sub.Ativo {
			return nil, apperr.NotFound("subgrupo não encontrado")
		}
	}

	criada, err := s.repo.CreateEquipe(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_EQUIPE",
		MasterID: &masterID,
		Detalhes: map[string]any{"equipe_id": criada.ID.String()},
	})

	return criada, nil
}

// GetEquipe devolve a equipe do tenant.
func (s *Service) GetEquipe(ctx context.Context, tenantID, id uuid.UUID) (*Equipe, error) {
	return s.repo.GetEquipe(ctx, tenantID, id)
}

// ListEquipes devolve equipes, com filtro opcional por subgrupo.
func (s *Service) ListEquipes(ctx context.Context, tenantID uuid.UUID, subgrupoID *uuid.UUID) ([]Equipe, error) {
	return s.repo.ListEquipes(ctx, tenantID, subgrupoID)
}

// DeleteEquipe remove a equipe; cascade do schema cuida dos vínculos.
func (s *Service) DeleteEquipe(ctx context.Context, tenantID, masterID, id uuid.UUID) error {
	if err := s.repo.DeleteEquipe(ctx, tenantID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "REMOVER_EQUIPE",
		MasterID: &masterID,
		Detalhes: map[string]any{"equipe_id": id.String()},
	})

	return nil
}

// AddMedicoSubgrupo vincula médico ativo a subgrupo ativo. Chamadas
// repetidas com os mesmos argumentos são sucesso sem nova linha.
func (s *Service) AddMedicoSubgrupo(ctx context.Context, tenantID, masterID, subgrupoID, medicoID uuid.UUID) error {
	sub, err := s.repo.GetSubgrupo(ctx, tenantID, subgrupoID)
	if err != nil {
		return err
	}
	if !sub.Ativo {
		return apperr.NotFound("subgrupo não encontrado")
	}

	if err := s.requireMedicoAtivo(ctx, tenantID, medicoID); err != nil {
		return err
	}

	created, err := s.repo.UpsertSubgrupoMedico(ctx, tenantID, subgrupoID, medicoID)
	if err != nil {
		return err
	}

	if created {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_MEDICO_SUBGRUPO",
			MasterID: &masterID,
			Detalhes: map[string]any{"subgrupo_id": subgrupoID.String(), "medico_id": medicoID.String()},
		})
	}

	return nil
}

// RemoveMedicoSubgrupo desfaz o vínculo.
func (s *Service) RemoveMedicoSubgrupo(ctx context.Context, tenantID, masterID, subgrupoID, medicoID uuid.UUID) error {
	if err := s.repo.RemoveSubgrupoMedico(ctx, tenantID, subgrupoID, medicoID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "DESVINCULAR_MEDICO_SUBGRUPO",
		MasterID: &masterID,
		Detalhes: map[string]any{"subgrupo_id": subgrupoID.String(), "medico_id": medicoID.String()},
	})

	return nil
}

// AddMedicoEquipe vincula médico ativo a equipe ativa, com a mesma
// idempotência do vínculo de subgrupo.
func (s *Service) AddMedicoEquipe(ctx context.Context, tenantID, masterID, equipeID, medicoID uuid.UUID) error {
	eq, err := s.repo.GetEquipe(ctx, tenantID, equipeID)
	if err != nil {
		return err
	}
	if !eq.Ativo {
		return apperr.NotFound("equipe não encontrada")
	}

	if err := s.requireMedicoAtivo(ctx, tenantID, medicoID); err != nil {
		return err
	}

	created, err := s.repo.UpsertEquipeMedico(ctx, tenantID, equipeID, medicoID)
	if err != nil {
		return err
	}

	if created {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_MEDICO_EQUIPE",
			MasterID: &masterID,
			Detalhes: map[string]any{"equipe_id": equipeID.String(), "medico_id": medicoID.String()},
		})
	}

	return nil
}

// RemoveMedicoEquipe desfaz o vínculo.
func (s *Service) RemoveMedicoEquipe(ctx context.Context, tenantID, masterID, equipeID, medicoID uuid.UUID) error {
	if err := s.repo.RemoveEquipeMedico(ctx, tenantID, equipeID, medicoID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "DESVINCULAR_MEDICO_EQUIPE",
		MasterID: &masterID,
		Detalhes: map[string]any{"equipe_id": equipeID.String(), "medico_id": medicoID.String()},
	})

	return nil
}

// AddSubgrupoContrato vincula subgrupo ativo a contrato ativo.
func (s *Service) AddSubgrupoContrato(ctx context.Context, tenantID, masterID, contratoID, subgrupoID uuid.UUID) error {
	c, err := s.repo.GetContrato(ctx, tenantID, contratoID)
	if err != nil {
		return err
	}
	if !c.Ativo {
		return apperr.NotFound("contrato não encontrado")
	}

	sub, err := s.repo.GetSubgrupo(ctx, tenantID, subgrupoID)
	if err != nil {
		return err
	}
	if !sub.Ativo {
		return apperr.NotFound("subgrupo não encontrado")
	}

	created, err := s.repo.UpsertContratoSubgrupo(ctx, tenantID, contratoID, subgrupoID)
	if err != nil {
		return err
	}

	if created {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_SUBGRUPO_CONTRATO",
			MasterID: &masterID,
			Detalhes: map[string]any{"contrato_id": contratoID.String(), "subgrupo_id": subgrupoID.String()},
		})
	}

	return nil
}

// AddEquipeContrato vincula equipe ativa a contrato ativo.
func (s *Service) AddEquipeContrato(ctx context.Context, tenantID, masterID, contratoID, equipeID uuid.UUID) error {
	c, err := s.repo.GetContrato(ctx, tenantID, contratoID)
	if err != nil {
		return err
	}
	if !c.Ativo {
		return apperr.NotFound("contrato não encontrado")
	}

	eq, err := s.repo.GetEquipe(ctx, tenantID, equipeID)
	if err != nil {
		return err
	}
	if !eq.Ativo {
		return apperr.NotFound("equipe não encontrada")
	}

	created, err := s.repo.UpsertContratoEquipe(ctx, tenantID, contratoID, equipeID)
	if err != nil {
		return err
	}

	if created {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_EQUIPE_CONTRATO",
			MasterID: &masterID,
			Detalhes: map[string]any{"contrato_id": contratoID.String(), "equipe_id": equipeID.String()},
		})
	}

	return nil
}

func (s *Service) requireMedicoAtivo(ctx context.Context, tenantID, medicoID uuid.UUID) error {
	m, err := s.medicos.Get(ctx, tenantID, medicoID)
	if err != nil {
		return err
	}
	if !m.Ativo {
		return apperr.NotFound("médico não encontrado")
	}
	return nil
}
