package auditoria

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recorder é o sink de auditoria consumido pelos demais serviços.
// Implementações devem ser melhor-esforço: falha de gravação não pode
// bloquear a operação que originou o evento.
type Recorder interface {
	Record(ctx context.Context, entrada Entrada)
}

// Store é o contrato de persistência da trilha.
type Store interface {
	Insert(ctx context.Context, entrada Entrada) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Registro, int, error)
}

// Service grava auditoria em banco, engolindo falhas de escrita.
type Service struct {
	repo   Store
	logger zerolog.Logger
}

// NewService cria o serviço de auditoria.
func NewService(repo Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record persiste a entrada. Erros são apenas logados.
func (s *Service) Record(ctx context.Context, entrada Entrada) {
	if err := s.repo.Insert(ctx, entrada); err != nil {
		s.logger.Error().Err(err).
			Str("acao", entrada.Acao).
			Str("tenant_id", entrada.TenantID.String()).
			Msg("falha ao gravar auditoria")
	}
}

// List expõe a trilha para o painel administrativo.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Registro, int, error) {
	return s.repo.List(ctx, tenantID, limit, offset)
}

// Noop descarta todos os eventos; útil em testes.
type Noop struct{}

// Record não faz nada.
func (Noop) Record(ctx context.Context, entrada Entrada) {}
