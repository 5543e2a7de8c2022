package tenant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Service contém as regras de resolução e cadastro de tenants.
type Service struct {
	repo     *Repository
	cache    sync.Map
	cacheTTL time.Duration
}

// cachedTenant armazena dados no cache em memória.
type cachedTenant struct {
	tenant   Tenant
	expireAt time.Time
}

// NewService cria uma nova instância de Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, cacheTTL: 2 * time.Minute}
}

// Resolve encontra tenant ativo pelo slug informado.
func (s *Service) Resolve(ctx context.Context, slug string) (*Tenant, error) {
	normalized := normalizeSlug(slug)
	if normalized == "" {
		return nil, apperr.NotFound("tenant não encontrado")
	}

	if v, ok := s.cache.Load(normalized); ok {
		entry := v.(cachedTenant)
		if time.Now().Before(entry.expireAt) {
			if !entry.tenant.Ativo {
				return nil, apperr.Forbidden("tenant desativado")
			}
			tenantCopy := entry.tenant
			return &tenantCopy, nil
		}
		s.cache.Delete(normalized)
	}

	tenant, err := s.repo.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.cache.Store(normalized, cachedTenant{tenant: *tenant, expireAt: time.Now().Add(s.cacheTTL)})

	if !tenant.Ativo {
		return nil, apperr.Forbidden("tenant desativado")
	}

	tenantCopy := *tenant
	return &tenantCopy, nil
}

// Get busca tenant pelo id, sem cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registra um novo tenant.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Tenant, error) {
	input.Slug = normalizeSlug(input.Slug)
	if input.Slug == "" {
		return nil, apperr.Validation("slug obrigatório")
	}
	if strings.TrimSpace(input.Nome) == "" {
		return nil, apperr.Validation("nome obrigatório")
	}

	tenant, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.cache.Store(tenant.Slug, cachedTenant{tenant: *tenant, expireAt: time.Now().Add(s.cacheTTL)})
	return tenant, nil
}

// SetAtivo liga/desliga o tenant e invalida o cache.
func (s *Service) SetAtivo(ctx context.Context, id uuid.UUID, ativo bool) error {
	if err := s.repo.SetAtivo(ctx, id, ativo); err != nil {
		return err
	}

	// Limpa cache forçando refetch na próxima resolução.
	s.cache.Range(func(key, value any) bool {
		entry := value.(cachedTenant)
		if entry.tenant.ID == id {
			s.cache.Delete(key)
			return false
		}
		return true
	})

	return nil
}

// List devolve todos os tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

func normalizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
