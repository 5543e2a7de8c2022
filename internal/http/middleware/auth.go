package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/auth"
)

type contextKey string

const (
	ContextKeySubject  contextKey = "subject"
	ContextKeyAudience contextKey = "audience"
	ContextKeyTenant   contextKey = "tenant"
	ContextKeyRoles    contextKey = "roles"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if len(claims.Audience) == 0 {
				writeError(w, http.StatusUnauthorized, "AUTH", "audience inválida")
				return
			}

			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "tenant inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyAudience, claims.Audience[0])
			ctx = context.WithValue(ctx, ContextKeyTenant, tenantID)
			ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetSubjectID recupera subject como UUID; uuid.Nil quando ausente.
func GetSubjectID(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(GetSubject(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetAudience recupera audience do contexto.
func GetAudience(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAudience).(string)
	return val
}

// GetTenantID recupera o tenant do contexto.
func GetTenantID(ctx context.Context) uuid.UUID {
	val, _ := ctx.Value(ContextKeyTenant).(uuid.UUID)
	return val
}

// GetRoles recupera roles do contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}

// RequireMaster restringe o acesso ao painel administrativo.
func RequireMaster(next http.Handler) http.Handler {
	return requireRole("MASTER", "acesso restrito ao administrador")(next)
}

// RequireMedico restringe o acesso ao aplicativo do médico.
func RequireMedico(next http.Handler) http.Handler {
	return requireRole("MEDICO", "acesso restrito a médicos")(next)
}

func requireRole(role, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, existing := range GetRoles(r.Context()) {
				if strings.EqualFold(existing, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", message)
		})
	}
}

// ModuleChecker resolve se o perfil pode usar um módulo do painel.
type ModuleChecker interface {
	HasAccess(ctx context.Context, tenantID uuid.UUID, perfil, modulo string) (bool, error)
}

// RequireModule nega a rota quando a matriz de acesso desliga o módulo
// para o perfil do chamador. Sem entrada na matriz, o acesso é negado.
func RequireModule(checker ModuleChecker, modulo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles := GetRoles(r.Context())
			if len(roles) == 0 {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "módulo indisponível")
				return
			}

			ok, err := checker.HasAccess(r.Context(), GetTenantID(r.Context()), roles[0], modulo)
			if err != nil || !ok {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "módulo indisponível")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
