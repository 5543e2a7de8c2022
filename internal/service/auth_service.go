package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auth"
	"github.com/escalamedica/plantao/internal/master"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/repo"
)

// Audiences de sessão emitidas pela API.
const (
	AudienceMaster = "master"
	AudienceMedico = "medico"
)

type sessionRepository interface {
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error
}

type masterAuthenticator interface {
	Authenticate(ctx context.Context, tenantID uuid.UUID, email, senha string) (*master.Master, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*master.Master, error)
}

type medicoAuthenticator interface {
	Authenticate(ctx context.Context, tenantID uuid.UUID, login, senha string) (*medico.Medico, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra emissão, rotação e revogação de sessões.
type AuthService struct {
	repo       sessionRepository
	masters    masterAuthenticator
	medicos    medicoAuthenticator
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço de sessões.
func NewAuthService(r sessionRepository, masters masterAuthenticator, medicos medicoAuthenticator, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, masters: masters, medicos: medicos, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe o gerenciador de JWT para os middlewares.
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa o retorno padrão das autenticações.
type LoginResult struct {
	Audience      string
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	TenantID      uuid.UUID
	Roles         []string
	Profile       any
	RefreshExpiry time.Time
}

// LoginMaster autentica o administrador do tenant.
func (s *AuthService) LoginMaster(ctx context.Context, tenantID uuid.UUID, email, senha string) (*LoginResult, error) {
	m, err := s.masters.Authenticate(ctx, tenantID, email, senha)
	if err != nil {
		if apperr.IsForbidden(err) {
			log.Warn().Str("tenant", tenantID.String()).Msg("login master recusado")
			return nil, apperr.Unauthorized("credenciais inválidas")
		}
		return nil, err
	}

	return s.issueSession(ctx, AudienceMaster, tenantID, m.ID, []string{"MASTER"}, m)
}

// LoginMedico autentica o médico por CPF ou e-mail.
func (s *AuthService) LoginMedico(ctx context.Context, tenantID uuid.UUID, login, senha string) (*LoginResult, error) {
	m, err := s.medicos.Authenticate(ctx, tenantID, login, senha)
	if err != nil {
		if apperr.IsForbidden(err) {
			log.Warn().Str("tenant", tenantID.String()).Msg("login médico recusado")
			return nil, apperr.Unauthorized("credenciais inválidas")
		}
		return nil, err
	}

	return s.issueSession(ctx, AudienceMedico, tenantID, m.ID, []string{"MEDICO"}, m)
}

// Refresh rotaciona o refresh token: valida o atual (banco + redis), emite
// novo par de tokens e revoga o anterior.
func (s *AuthService) Refresh(ctx context.Context, audience, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, apperr.Unauthorized("refresh token inválido")
	}

	hash := auth.HashOpaqueToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Unauthorized("refresh token inválido")
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != audience {
		return nil, apperr.Unauthorized("refresh token inválido")
	}

	redisKey := auth.RefreshRedisKey(audience, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, apperr.Unauthorized("refresh token inválido")
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, apperr.Unauthorized("refresh token inválido")
	}

	var result *LoginResult
	switch audience {
	case AudienceMaster:
		m, err := s.masters.GetByID(ctx, record.TenantID, record.Subject)
		if err != nil {
			return nil, err
		}
		if !m.Ativo {
			return nil, apperr.Unauthorized("conta desativada")
		}
		result, err = s.issueSession(ctx, audience, record.TenantID, m.ID, []string{"MASTER"}, m)
		if err != nil {
			return nil, err
		}
	case AudienceMedico:
		m, err := s.medicos.Get(ctx, record.TenantID, record.Subject)
		if err != nil {
			return nil, err
		}
		if !m.Ativo {
			return nil, apperr.Unauthorized("conta desativada")
		}
		result, err = s.issueSession(ctx, audience, record.TenantID, m.ID, []string{"MEDICO"}, m)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Unauthorized("refresh token inválido")
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, audience, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	hash := auth.HashOpaqueToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	redisKey := auth.RefreshRedisKey(audience, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe devolve o perfil do sujeito autenticado.
func (s *AuthService) GetMe(ctx context.Context, audience string, tenantID, subject uuid.UUID) (any, []string, error) {
	switch audience {
	case AudienceMaster:
		m, err := s.masters.GetByID(ctx, tenantID, subject)
		if err != nil {
			return nil, nil, err
		}
		return m, []string{"MASTER"}, nil
	case AudienceMedico:
		m, err := s.medicos.Get(ctx, tenantID, subject)
		if err != nil {
			return nil, nil, err
		}
		return m, []string{"MEDICO"}, nil
	default:
		return nil, nil, apperr.Unauthorized("audience desconhecida")
	}
}

func (s *AuthService) issueSession(ctx context.Context, audience string, tenantID, subject uuid.UUID, roles []string, profile any) (*LoginResult, error) {
	token, _, err := s.jwt.GenerateAccessToken(subject.String(), audience, tenantID.String(), roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if _, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		Audience:  audience,
		TenantID:  tenantID,
		TokenHash: refreshHash,
		Expiracao: expires,
		CriadoEm:  time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, audience, refreshHash); err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, auth.RefreshRedisKey(audience, refreshHash), "active", time.Until(expires)).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		Audience:      audience,
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       subject,
		TenantID:      tenantID,
		Roles:         roles,
		Profile:       profile,
		RefreshExpiry: expires,
	}, nil
}
