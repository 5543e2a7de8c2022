package master

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/auth"
	"github.com/escalamedica/plantao/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Master, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Master, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Master, error)
	Create(ctx context.Context, tenantID uuid.UUID, nome, email, senhaHash string) (*Master, error)
	SetAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error
}

// Service administra as contas master do tenant.
type Service struct {
	repo  Store
	audit auditoria.Recorder
}

// NewService cria o serviço de masters.
func NewService(repo Store, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create cadastra um master ativo; e-mail é único por tenant.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, input CreateInput) (*Master, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := util.ValidateEmail(email); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if existente, err := s.repo.GetByEmail(ctx, tenantID, email); err == nil && existente != nil {
		return nil, apperr.Conflict("e-mail já cadastrado")
	} else if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	criado, err := s.repo.Create(ctx, tenantID, strings.TrimSpace(input.Nome), email, hash)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_MASTER",
		MasterID: &actorID,
		Detalhes: map[string]any{"master_id": criado.ID.String()},
	})

	return criado, nil
}

// List devolve os masters do tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Master, error) {
	return s.repo.List(ctx, tenantID)
}

// GetByID busca master do tenant.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Master, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// SetAtivo liga/desliga a conta.
func (s *Service) SetAtivo(ctx context.Context, tenantID, actorID, id uuid.UUID, ativo bool) error {
	if err := s.repo.SetAtivo(ctx, tenantID, id, ativo); err != nil {
		return err
	}

	acao := "DESATIVAR_MASTER"
	if ativo {
		acao = "ATIVAR_MASTER"
	}
	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     acao,
		MasterID: &actorID,
		Detalhes: map[string]any{"master_id": id.String()},
	})

	return nil
}

// Authenticate valida credenciais do master para o serviço de sessões.
func (s *Service) Authenticate(ctx context.Context, tenantID uuid.UUID, email, senha string) (*Master, error) {
	m, err := s.repo.GetByEmail(ctx, tenantID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Forbidden("credenciais inválidas")
		}
		return nil, err
	}
	if !m.Ativo {
		return nil, apperr.Forbidden("conta desativada")
	}

	ok, err := auth.Verify(senha, m.SenhaHash)
	if err != nil || !ok {
		return nil, apperr.Forbidden("credenciais inválidas")
	}

	return m, nil
}
