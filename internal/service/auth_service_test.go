package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auth"
	"github.com/escalamedica/plantao/internal/master"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/repo"
)

type stubSessionRepo struct {
	tokens map[string]repo.TokenRefresh
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{tokens: map[string]repo.TokenRefresh{}}
}

func (s *stubSessionRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error) {
	record := repo.TokenRefresh{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TenantID:  arg.TenantID,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  arg.CriadoEm,
	}
	s.tokens[arg.TokenHash] = record
	return record, nil
}

func (s *stubSessionRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error) {
	record, ok := s.tokens[tokenHash]
	if !ok {
		return repo.TokenRefresh{}, repo.ErrNotFound
	}
	return record, nil
}

func (s *stubSessionRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	record, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	record.Revogado = true
	s.tokens[tokenHash] = record
	return nil
}

func (s *stubSessionRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	for hash, record := range s.tokens {
		if record.Subject == subject && record.Audience == audience && hash != keepHash {
			record.Revogado = true
			s.tokens[hash] = record
		}
	}
	return nil
}

type stubMasters struct {
	master *master.Master
	senha  string
}

func (s *stubMasters) Authenticate(ctx context.Context, tenantID uuid.UUID, email, senha string) (*master.Master, error) {
	if s.master == nil || email != s.master.Email || senha != s.senha {
		return nil, apperr.Forbidden("credenciais inválidas")
	}
	return s.master, nil
}

func (s *stubMasters) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*master.Master, error) {
	if s.master == nil || s.master.ID != id {
		return nil, apperr.NotFound("conta não encontrada")
	}
	return s.master, nil
}

type stubMedicos struct {
	medico *medico.Medico
}

func (s *stubMedicos) Authenticate(ctx context.Context, tenantID uuid.UUID, login, senha string) (*medico.Medico, error) {
	if s.medico == nil {
		return nil, apperr.Forbidden("credenciais inválidas")
	}
	return s.medico, nil
}

func (s *stubMedicos) Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error) {
	if s.medico == nil || s.medico.ID != id {
		return nil, apperr.NotFound("médico não encontrado")
	}
	return s.medico, nil
}

// stubRedis guarda o estado dos refresh tokens em memória, respondendo com
// os helpers de resultado do go-redis.
type stubRedis struct {
	values map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	s.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	val, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.values[key]; ok {
			delete(s.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func newTestAuthService(masters *stubMasters, medicos *stubMedicos) (*AuthService, *stubSessionRepo, *stubRedis) {
	sessions := newStubSessionRepo()
	redisStub := newStubRedis()
	svc := &AuthService{
		repo:       sessions,
		masters:    masters,
		medicos:    medicos,
		redis:      redisStub,
		jwt:        auth.NewJWTManager("chave-de-teste-com-32-caracteres!", 15*time.Minute),
		refreshTTL: 24 * time.Hour,
	}
	return svc, sessions, redisStub
}

func TestLoginMasterEmiteSessaoComTenant(t *testing.T) {
	tenantID := uuid.New()
	m := &master.Master{ID: uuid.New(), TenantID: tenantID, Email: "admin@clinica.com", Ativo: true}
	svc, _, redisStub := newTestAuthService(&stubMasters{master: m, senha: "senha-segura"}, &stubMedicos{})

	result, err := svc.LoginMaster(context.Background(), tenantID, "admin@clinica.com", "senha-segura")
	require.NoError(t, err)
	require.Equal(t, AudienceMaster, result.Audience)
	require.Equal(t, m.ID, result.Subject)
	require.NotEmpty(t, result.RefreshToken)

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, tenantID.String(), claims.TenantID)
	require.Equal(t, []string{"MASTER"}, claims.Roles)

	// refresh recém-emitido fica ativo no redis
	hash := auth.HashOpaqueToken(result.RefreshToken)
	require.Equal(t, "active", redisStub.values[auth.RefreshRedisKey(AudienceMaster, hash)])
}

func TestLoginMasterCredenciaisInvalidas(t *testing.T) {
	svc, _, _ := newTestAuthService(&stubMasters{}, &stubMedicos{})

	_, err := svc.LoginMaster(context.Background(), uuid.New(), "admin@clinica.com", "errada")
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", apperr.From(err).Code)
}

func TestRefreshRotacionaToken(t *testing.T) {
	tenantID := uuid.New()
	m := &master.Master{ID: uuid.New(), TenantID: tenantID, Email: "admin@clinica.com", Ativo: true}
	svc, sessions, _ := newTestAuthService(&stubMasters{master: m, senha: "senha-segura"}, &stubMedicos{})

	login, err := svc.LoginMaster(context.Background(), tenantID, "admin@clinica.com", "senha-segura")
	require.NoError(t, err)

	renovado, err := svc.Refresh(context.Background(), AudienceMaster, login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, renovado.RefreshToken)

	// token antigo foi revogado e não pode ser reutilizado
	antigo := sessions.tokens[auth.HashOpaqueToken(login.RefreshToken)]
	require.True(t, antigo.Revogado)

	_, err = svc.Refresh(context.Background(), AudienceMaster, login.RefreshToken)
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", apperr.From(err).Code)
}

func TestRefreshAudienceTrocada(t *testing.T) {
	tenantID := uuid.New()
	m := &master.Master{ID: uuid.New(), TenantID: tenantID, Email: "admin@clinica.com", Ativo: true}
	svc, _, _ := newTestAuthService(&stubMasters{master: m, senha: "senha-segura"}, &stubMedicos{})

	login, err := svc.LoginMaster(context.Background(), tenantID, "admin@clinica.com", "senha-segura")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), AudienceMedico, login.RefreshToken)
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", apperr.From(err).Code)
}

func TestRefreshContaDesativada(t *testing.T) {
	tenantID := uuid.New()
	m := &master.Master{ID: uuid.New(), TenantID: tenantID, Email: "admin@clinica.com", Ativo: true}
	masters := &stubMasters{master: m, senha: "senha-segura"}
	svc, _, _ := newTestAuthService(masters, &stubMedicos{})

	login, err := svc.LoginMaster(context.Background(), tenantID, "admin@clinica.com", "senha-segura")
	require.NoError(t, err)

	m.Ativo = false
	_, err = svc.Refresh(context.Background(), AudienceMaster, login.RefreshToken)
	require.Error(t, err)
	require.Equal(t, "conta desativada", apperr.From(err).Message)
}

func TestLogoutRevogaRefresh(t *testing.T) {
	tenantID := uuid.New()
	m := &master.Master{ID: uuid.New(), TenantID: tenantID, Email: "admin@clinica.com", Ativo: true}
	svc, sessions, redisStub := newTestAuthService(&stubMasters{master: m, senha: "senha-segura"}, &stubMedicos{})

	login, err := svc.LoginMaster(context.Background(), tenantID, "admin@clinica.com", "senha-segura")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), AudienceMaster, login.RefreshToken))

	hash := auth.HashOpaqueToken(login.RefreshToken)
	require.True(t, sessions.tokens[hash].Revogado)
	require.Empty(t, redisStub.values)
}
