package medico

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/auth"
	"github.com/escalamedica/plantao/internal/util"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Medico, error)
	GetByCPF(ctx context.Context, tenantID uuid.UUID, cpf string) (*Medico, error)
	GetByCRM(ctx context.Context, tenantID uuid.UUID, crm string) (*Medico, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Medico, error)
	List(ctx context.Context, tenantID uuid.UUID, search string, limit, offset int) ([]Medico, int, error)
	Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Medico, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateInput) (*Medico, error)
	SetAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error
	SetConvite(ctx context.Context, tenantID, id uuid.UUID, tokenHash string, expiraEm time.Time) error
	GetByConviteHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (*Medico, *Convite, error)
	ConsumirConvite(ctx context.Context, tenantID, id uuid.UUID, senhaHash string) error
}

// Service concentra as regras de cadastro e convite de médicos.
type Service struct {
	repo       Store
	audit      auditoria.Recorder
	conviteTTL time.Duration
}

// NewService cria o serviço de médicos.
func NewService(repo Store, audit auditoria.Recorder, conviteTTL time.Duration) *Service {
	return &Service{repo: repo, audit: audit, conviteTTL: conviteTTL}
}

// Create cadastra um médico garantindo unicidade de CPF/CRM/e-mail no tenant.
// A verificação é check-then-write; a constraint do banco cobre a corrida.
func (s *Service) Create(ctx context.Context, tenantID, masterID uuid.UUID, input CreateInput) (*Medico, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	cpf, err := util.NormalizeCPF(input.CPF)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	input.CPF = cpf

	input.CRM = strings.ToUpper(strings.TrimSpace(input.CRM))
	if err := util.ValidateCRM(input.CRM); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if input.Email != nil {
		trimmed := strings.TrimSpace(*input.Email)
		if trimmed == "" {
			input.Email = nil
		} else {
			if err := util.ValidateEmail(trimmed); err != nil {
				return nil, apperr.Validation(err.Error())
			}
			input.Email = &trimmed
		}
	}

	if _, err := s.repo.GetByCPF(ctx, tenantID, input.CPF); err == nil {
		return nil, apperr.Conflict("CPF já cadastrado")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	if _, err := s.repo.GetByCRM(ctx, tenantID, input.CRM); err == nil {
		return nil, apperr.Conflict("CRM já cadastrado")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	if input.Email != nil {
		if _, err := s.repo.GetByEmail(ctx, tenantID, *input.Email); err == nil {
			return nil, apperr.Conflict("e-mail já cadastrado")
		} else if !apperr.IsNotFound(err) {
			return nil, err
		}
	}

	criado, err := s.repo.Create(ctx, tenantID, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CRIAR_MEDICO",
		MasterID: &masterID,
		Detalhes: map[string]any{"medico_id": criado.ID.String(), "crm": criado.CRM},
	})

	return criado, nil
}

// Get devolve o médico do tenant.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Medico, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// List devolve médicos paginados com busca por nome/CRM.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, search string, limit, offset int) ([]Medico, int, error) {
	return s.repo.List(ctx, tenantID, search, limit, offset)
}

// Update altera dados cadastrais, revalidando e-mail quando informado.
func (s *Service) Update(ctx context.Context, tenantID, masterID, id uuid.UUID, input UpdateInput) (*Medico, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	if input.Email != nil {
		trimmed := strings.TrimSpace(*input.Email)
		if trimmed == "" {
			input.Email = nil
		} else {
			if err := util.ValidateEmail(trimmed); err != nil {
				return nil, apperr.Validation(err.Error())
			}
			if existente, err := s.repo.GetByEmail(ctx, tenantID, trimmed); err == nil && existente.ID != id {
				return nil, apperr.Conflict("e-mail já cadastrado")
			} else if err != nil && !apperr.IsNotFound(err) {
				return nil, err
			}
			input.Email = &trimmed
		}
	}

	atualizado, err := s.repo.Update(ctx, tenantID, id, input)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ATUALIZAR_MEDICO",
		MasterID: &masterID,
		Detalhes: map[string]any{"medico_id": id.String()},
	})

	return atualizado, nil
}

// SetAtivo liga/desliga o médico.
func (s *Service) SetAtivo(ctx context.Context, tenantID, masterID, id uuid.UUID, ativo bool) error {
	if err := s.repo.SetAtivo(ctx, tenantID, id, ativo); err != nil {
		return err
	}

	acao := "DESATIVAR_MEDICO"
	if ativo {
		acao = "ATIVAR_MEDICO"
	}
	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     acao,
		MasterID: &masterID,
		Detalhes: map[string]any{"medico_id": id.String()},
	})

	return nil
}

// GerarConvite emite token de primeiro acesso (uso único) e devolve o valor cru.
func (s *Service) GerarConvite(ctx context.Context, tenantID, masterID, id uuid.UUID) (string, time.Time, error) {
	m, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if !m.Ativo {
		return "", time.Time{}, apperr.NotFound("médico não encontrado")
	}

	raw, hashed, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expiraEm := time.Now().Add(s.conviteTTL)
	if err := s.repo.SetConvite(ctx, tenantID, id, hashed, expiraEm); err != nil {
		return "", time.Time{}, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "CONVIDAR_MEDICO",
		MasterID: &masterID,
		Detalhes: map[string]any{"medico_id": id.String()},
	})

	return raw, expiraEm, nil
}

// AceitarConvite valida o token, define a senha e invalida o convite.
func (s *Service) AceitarConvite(ctx context.Context, tenantID uuid.UUID, token, senha string) (*Medico, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Validation("token obrigatório")
	}
	if err := util.ValidatePassword(senha); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	m, convite, err := s.repo.GetByConviteHash(ctx, tenantID, auth.HashOpaqueToken(token))
	if err != nil {
		return nil, err
	}

	if time.Now().After(convite.ExpiraEm) {
		return nil, apperr.Validation("convite expirado")
	}

	senhaHash, err := auth.Hash(senha)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ConsumirConvite(ctx, tenantID, m.ID, senhaHash); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ACEITAR_CONVITE",
		MedicoID: &m.ID,
	})

	return m, nil
}

// Authenticate valida credenciais do médico por CPF ou e-mail.
func (s *Service) Authenticate(ctx context.Context, tenantID uuid.UUID, login, senha string) (*Medico, error) {
	login = strings.TrimSpace(login)

	var (
		m   *Medico
		err error
	)
	if cpf, cpfErr := util.NormalizeCPF(login); cpfErr == nil {
		m, err = s.repo.GetByCPF(ctx, tenantID, cpf)
	} else {
		m, err = s.repo.GetByEmail(ctx, tenantID, login)
	}
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Forbidden("credenciais inválidas")
		}
		return nil, err
	}

	if !m.Ativo {
		return nil, apperr.Forbidden("conta desativada")
	}
	if m.SenhaHash == nil {
		return nil, apperr.Forbidden("credenciais inválidas")
	}

	ok, err := auth.Verify(senha, *m.SenhaHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("credenciais inválidas")
	}

	return m, nil
}
