package acesso

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
)

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	ListOverrides(ctx context.Context, tenantID uuid.UUID, perfil string) (map[string]bool, error)
	UpsertItem(ctx context.Context, tenantID uuid.UUID, item Item) error
}

const cacheTTL = 2 * time.Minute

// Service resolve a matriz efetiva de permissões por tenant e perfil.
type Service struct {
	repo  Store
	cache *redis.Client
	audit auditoria.Recorder
}

// NewService cria o serviço da matriz. O cache é opcional; nil desliga.
func NewService(repo Store, cache *redis.Client, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, cache: cache, audit: audit}
}

// GetEffectivePermissions devolve o mapa completo de módulos para o perfil:
// matriz padrão compilada, sobreposta pelos overrides do tenant, com os
// módulos sempre-ativos forçados para MASTER.
func (s *Service) GetEffectivePermissions(ctx context.Context, tenantID uuid.UUID, perfil string) (map[string]bool, error) {
	if !PerfilValido(perfil) {
		return nil, apperr.Validation("perfil desconhecido")
	}

	if cached := s.readCache(ctx, tenantID, perfil); cached != nil {
		return cached, nil
	}

	overrides, err := s.repo.ListOverrides(ctx, tenantID, perfil)
	if err != nil {
		return nil, err
	}

	efetivo := make(map[string]bool, len(Modulos))
	for _, modulo := range Modulos {
		permitido := matrizPadrao[perfil][modulo]
		if override, ok := overrides[modulo]; ok {
			permitido = override
		}
		if perfil == PerfilMaster && sempreAtivosMaster[modulo] {
			permitido = true
		}
		efetivo[modulo] = permitido
	}

	s.writeCache(ctx, tenantID, perfil, efetivo)
	return efetivo, nil
}

// SaveMatrix grava as células informadas. Tentativas de desligar módulos
// sempre-ativos do MASTER são silenciosamente corrigidas para true, nunca
// rejeitadas. Um único registro de auditoria resume o lote.
func (s *Service) SaveMatrix(ctx context.Context, tenantID, masterID uuid.UUID, itens []Item) error {
	for _, item := range itens {
		if !PerfilValido(item.Perfil) {
			return apperr.Validation("perfil desconhecido")
		}
		if !ModuloValido(item.Modulo) {
			return apperr.Validation("módulo desconhecido")
		}
	}

	perfis := make(map[string]bool)
	for _, item := range itens {
		if item.Perfil == PerfilMaster && sempreAtivosMaster[item.Modulo] {
			item.Permitido = true
		}
		if err := s.repo.UpsertItem(ctx, tenantID, item); err != nil {
			return err
		}
		perfis[item.Perfil] = true
	}

	for perfil := range perfis {
		s.invalidateCache(ctx, tenantID, perfil)
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "SALVAR_MATRIZ_ACESSO",
		MasterID: &masterID,
		Detalhes: map[string]any{"itens": len(itens)},
	})

	return nil
}

// HasAccess verifica se o perfil pode usar o módulo. Módulo desconhecido
// ou sem entrada resolve para negado.
func (s *Service) HasAccess(ctx context.Context, tenantID uuid.UUID, perfil, modulo string) (bool, error) {
	efetivo, err := s.GetEffectivePermissions(ctx, tenantID, perfil)
	if err != nil {
		return false, err
	}
	return efetivo[modulo], nil
}

func cacheKey(tenantID uuid.UUID, perfil string) string {
	return fmt.Sprintf("acesso:%s:%s", tenantID, perfil)
}

func (s *Service) readCache(ctx context.Context, tenantID uuid.UUID, perfil string) map[string]bool {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, cacheKey(tenantID, perfil)).Bytes()
	if err != nil {
		return nil
	}

	var efetivo map[string]bool
	if err := json.Unmarshal(raw, &efetivo); err != nil {
		return nil
	}
	return efetivo
}

func (s *Service) writeCache(ctx context.Context, tenantID uuid.UUID, perfil string, efetivo map[string]bool) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(efetivo)
	if err != nil {
		return
	}
	s.cache.Set(ctx, cacheKey(tenantID, perfil), raw, cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, tenantID uuid.UUID, perfil string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, cacheKey(tenantID, perfil))
}
