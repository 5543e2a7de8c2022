package escala

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/contrato"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	CreateEscala(ctx context.Context, tenantID uuid.UUID, input EscalaInput) (*Escala, error)
	GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*Escala, error)
	ListEscalas(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]Escala, error)
	SetEscalaAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error

	UpsertEscalaSubgrupo(ctx context.Context, tenantID, escalaID, subgrupoID uuid.UUID) (bool, error)
	UpsertEscalaEquipe(ctx context.Context, tenantID, escalaID, equipeID uuid.UUID) (bool, error)

	UpsertAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, cargo *string, valorHora *float64) (*Alocacao, error)
	DesativarAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) error
	ListAlocacoes(ctx context.Context, tenantID, escalaID uuid.UUID) ([]Alocacao, error)
	HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error)
	ListEscalasDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID) ([]Escala, error)

	UpsertPlantao(ctx context.Context, tenantID, escalaID uuid.UUID, data time.Time, gradeID string, medicoID uuid.UUID, valorHora float64) (*Plantao, error)
	DeletePlantao(ctx context.Context, tenantID, escalaID, plantaoID uuid.UUID) error
	ListPlantoes(ctx context.Context, tenantID, escalaID uuid.UUID, de, ate time.Time) ([]Plantao, error)

	UpsertValorPlantao(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID, gradeID string, valorHora float64) (*ValorPlantao, error)
	ListValoresPlantao(ctx context.Context, tenantID, contratoID uuid.UUID) ([]ValorPlantao, error)
	ResolveValorHora(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, gradeID string) (*float64, error)
}

// ContratoDirectory resolve contratos do tenant para validação.
type ContratoDirectory interface {
	GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*contrato.ContratoAtivo, error)
}

// MedicoDirectory resolve médicos do tenant para validação de vínculos.
type MedicoDirectory interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error)
}

// Service concentra as regras do atribuidor de escalas e plantões.
type Service struct {
	repo      Store
	contratos ContratoDirectory
	medicos   MedicoDirectory
	audit     auditoria.Recorder
}

// NewService cria o serviço de escalas.
func NewService(repo Store, contratos ContratoDirectory, medicos MedicoDirectory, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, contratos: contratos, medicos: medicos, audit: audit}
}

// CreateEscala cadastra escala vinculada a um contrato ativo que usa escala.
func (s *Service) CreateEscala(ctx context.Context, tenantID, masterID uuid.UUID, input EscalaInput) (*Escala, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if input.DataFim.Before(input.DataInicio) {
		return nil, apperr.Validation("data final anterior à inicial")
	}

	c, err := s.contratos.GetContrato(ctx, tenantID, input.ContratoAtivoID)
	if err != nil {
		return nil, err
	}
	if !c.Ativo {
		return nil, apperr.Validation("contrato desativado")
	}
	if !c.UsaEscala {
		return nil, apperr.Validation("contrato não usa escala")
	}

	criada, err := s.repo.CreateEscala(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_ESCALA",
		MasterID: &masterID,
		Detalhes: map[string]any{"escala_id": criada.ID.String()},
	})

	return criada, nil
}

// GetEscala busca escala do tenant.
func (s *Service) GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*Escala, error) {
	return s.repo.GetEscala(ctx, tenantID, id)
}

// ListEscalas lista escalas, com filtro opcional por contrato.
func (s *Service) ListEscalas(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]Escala, error) {
	return s.repo.ListEscalas(ctx, tenantID, contratoID)
}

// SetEscalaAtivo liga/desliga a escala.
func (s *Service) SetEscalaAtivo(ctx context.Context, tenantID, masterID, id uuid.UUID, ativo bool) error {
	if err := s.repo.SetEscalaAtivo(ctx, tenantID, id, ativo); err != nil {
		return err
	}

	acao := "DESATIVAR_ESCALA"
	if ativo {
		acao = "ATIVAR_ESCALA"
	}
	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     acao,
		MasterID: &masterID,
		Detalhes: map[string]any{"escala_id": id.String()},
	})

	return nil
}

// VincularSubgrupo liga subgrupo à escala; idempotente.
func (s *Service) VincularSubgrupo(ctx context.Context, tenantID, masterID, escalaID, subgrupoID uuid.UUID) error {
	if _, err := s.repo.GetEscala(ctx, tenantID, escalaID); err != nil {
		return err
	}

	criado, err := s.repo.UpsertEscalaSubgrupo(ctx, tenantID, escalaID, subgrupoID)
	if err != nil {
		return err
	}
	if criado {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_SUBGRUPO_ESCALA",
			MasterID: &masterID,
			Detalhes: map[string]any{"escala_id": escalaID.String(), "subgrupo_id": subgrupoID.String()},
		})
	}

	return nil
}

// VincularEquipe liga equipe à escala; idempotente.
func (s *Service) VincularEquipe(ctx context.Context, tenantID, masterID, escalaID, equipeID uuid.UUID) error {
	if _, err := s.repo.GetEscala(ctx, tenantID, escalaID); err != nil {
		return err
	}

	criado, err := s.repo.UpsertEscalaEquipe(ctx, tenantID, escalaID, equipeID)
	if err != nil {
		return err
	}
	if criado {
		s.audit.Record(ctx, auditoria.Entrada{
			TenantID: tenantID,
			Acao:     "VINCULAR_EQUIPE_ESCALA",
			MasterID: &masterID,
			Detalhes: map[string]any{"escala_id": escalaID.String(), "equipe_id": equipeID.String()},
		})
	}

	return nil
}

// AlocarMedico vincula (ou reativa) médico na escala.
func (s *Service) AlocarMedico(ctx context.Context, tenantID, masterID, escalaID, medicoID uuid.UUID, cargo *string, valorHora *float64) (*Alocacao, error) {
	if _, err := s.repo.GetEscala(ctx, tenantID, escalaID); err != nil {
		return nil, err
	}
	if err := s.requireMedicoAtivo(ctx, tenantID, medicoID); err != nil {
		return nil, err
	}

	a, err := s.repo.UpsertAlocacao(ctx, tenantID, escalaID, medicoID, cargo, valorHora)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ALOCAR_MEDICO_ESCALA",
		MasterID: &masterID,
		Detalhes: map[string]any{"escala_id": escalaID.String(), "medico_id": medicoID.String()},
	})

	return a, nil
}

// DesalocarMedico desliga o vínculo médico↔escala sem apagar histórico.
func (s *Service) DesalocarMedico(ctx context.Context, tenantID, masterID, escalaID, medicoID uuid.UUID) error {
	if err := s.repo.DesativarAlocacao(ctx, tenantID, escalaID, medicoID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "DESALOCAR_MEDICO_ESCALA",
		MasterID: &masterID,
		Detalhes: map[string]any{"escala_id": escalaID.String(), "medico_id": medicoID.String()},
	})

	return nil
}

// ListAlocacoes lista os médicos ativos da escala.
func (s *Service) ListAlocacoes(ctx context.Context, tenantID, escalaID uuid.UUID) ([]Alocacao, error) {
	if _, err := s.repo.GetEscala(ctx, tenantID, escalaID); err != nil {
		return nil, err
	}
	return s.repo.ListAlocacoes(ctx, tenantID, escalaID)
}

// AtribuirPlantao grava a célula (data, grade) da escala. Reatribuição da
// mesma célula substitui médico e valor. O valor gravado é snapshot: quando
// não informado, resolve pelo padrão do contrato/subgrupo/grade, com 0 na
// ausência de configuração.
func (s *Service) AtribuirPlantao(ctx context.Context, tenantID, masterID, escalaID uuid.UUID, input AtribuirPlantaoInput) (*Plantao, error) {
	if !GradeValida(input.GradeID) {
		return nil, apperr.Validation("grade desconhecida")
	}

	e, err := s.repo.GetEscala(ctx, tenantID, escalaID)
	if err != nil {
		return nil, err
	}
	if !e.Ativo {
		return nil, apperr.Validation("escala desativada")
	}
	if err := s.requireMedicoAtivo(ctx, tenantID, input.MedicoID); err != nil {
		return nil, err
	}

	valor := 0.0
	switch {
	case input.ValorHora != nil:
		valor = *input.ValorHora
	default:
		padrao, err := s.repo.ResolveValorHora(ctx, tenantID, escalaID, input.MedicoID, input.GradeID)
		if err != nil {
			return nil, err
		}
		if padrao != nil {
			valor = *padrao
		}
	}

	p, err := s.repo.UpsertPlantao(ctx, tenantID, escalaID, input.Data, input.GradeID, input.MedicoID, valor)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ATRIBUIR_PLANTAO",
		MasterID: &masterID,
		Detalhes: map[string]any{
			"escala_id": escalaID.String(),
			"medico_id": input.MedicoID.String(),
			"data":      input.Data.Format("2006-01-02"),
			"grade_id":  input.GradeID,
		},
	})

	return p, nil
}

// RemoverPlantao apaga a célula; ausência é NotFound.
func (s *Service) RemoverPlantao(ctx context.Context, tenantID, masterID, escalaID, plantaoID uuid.UUID) error {
	if err := s.repo.DeletePlantao(ctx, tenantID, escalaID, plantaoID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "REMOVER_PLANTAO",
		MasterID: &masterID,
		Detalhes: map[string]any{"escala_id": escalaID.String(), "plantao_id": plantaoID.String()},
	})

	return nil
}

// ListPlantoes lista plantões da escala no intervalo inclusivo.
func (s *Service) ListPlantoes(ctx context.Context, tenantID, escalaID uuid.UUID, de, ate time.Time) ([]Plantao, error) {
	if ate.Before(de) {
		return nil, apperr.Validation("intervalo inválido")
	}
	if _, err := s.repo.GetEscala(ctx, tenantID, escalaID); err != nil {
		return nil, err
	}
	return s.repo.ListPlantoes(ctx, tenantID, escalaID, de, ate)
}

// ReplicarSemana atribui o mesmo médico e grade em cada uma das 7 datas da
// semana. Cada dia é uma atribuição independente: falha em um dia não desfaz
// os anteriores nem impede os seguintes.
func (s *Service) ReplicarSemana(ctx context.Context, tenantID, masterID, escalaID uuid.UUID, input ReplicarSemanaInput) ([]DiaReplicacao, error) {
	if !GradeValida(input.GradeID) {
		return nil, apperr.Validation("grade desconhecida")
	}
	if len(input.Datas) != 7 {
		return nil, apperr.Validation("replicação exige exatamente 7 datas")
	}

	resultado := make([]DiaReplicacao, 0, 7)
	for _, data := range input.Datas {
		res := DiaReplicacao{Data: data, Sucesso: true}
		_, err := s.AtribuirPlantao(ctx, tenantID, masterID, escalaID, AtribuirPlantaoInput{
			Data:      data,
			GradeID:   input.GradeID,
			MedicoID:  input.MedicoID,
			ValorHora: input.ValorHora,
		})
		if err != nil {
			res.Sucesso = false
			res.Erro = err.Error()
		}
		resultado = append(resultado, res)
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "REPLICAR_SEMANA",
		MasterID: &masterID,
		Detalhes: map[string]any{
			"escala_id": escalaID.String(),
			"medico_id": input.MedicoID.String(),
			"grade_id":  input.GradeID,
		},
	})

	return resultado, nil
}

// DefinirValorPlantao grava o valor-hora padrão de (contrato, subgrupo, grade).
func (s *Service) DefinirValorPlantao(ctx context.Context, tenantID, masterID, contratoID, subgrupoID uuid.UUID, gradeID string, valorHora float64) (*ValorPlantao, error) {
	if !GradeValida(gradeID) {
		return nil, apperr.Validation("grade desconhecida")
	}
	if valorHora < 0 {
		return nil, apperr.Validation("valor-hora negativo")
	}
	if _, err := s.contratos.GetContrato(ctx, tenantID, contratoID); err != nil {
		return nil, err
	}

	v, err := s.repo.UpsertValorPlantao(ctx, tenantID, contratoID, subgrupoID, gradeID, valorHora)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "DEFINIR_VALOR_PLANTAO",
		MasterID: &masterID,
		Detalhes: map[string]any{"contrato_id": contratoID.String(), "grade_id": gradeID},
	})

	return v, nil
}

// ListValoresPlantao devolve a tabela de valores do contrato.
func (s *Service) ListValoresPlantao(ctx context.Context, tenantID, contratoID uuid.UUID) ([]ValorPlantao, error) {
	return s.repo.ListValoresPlantao(ctx, tenantID, contratoID)
}

// ListMinhasEscalas lista as escalas ativas onde o médico tem vínculo ativo.
func (s *Service) ListMinhasEscalas(ctx context.Context, tenantID, medicoID uuid.UUID) ([]Escala, error) {
	return s.repo.ListEscalasDoMedico(ctx, tenantID, medicoID)
}

// HasAlocacaoAtiva expõe a verificação de vínculo para o ponto eletrônico.
func (s *Service) HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error) {
	return s.repo.HasAlocacaoAtiva(ctx, tenantID, escalaID, medicoID)
}

func (s *Service) requireMedicoAtivo(ctx context.Context, tenantID, medicoID uuid.UUID) error {
	m, err := s.medicos.Get(ctx, tenantID, medicoID)
	if err != nil {
		return err
	}
	if !m.Ativo {
		return apperr.Validation("médico desativado")
	}
	return nil
}
