package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/escalamedica/plantao/internal/acesso"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/auth"
	"github.com/escalamedica/plantao/internal/config"
	"github.com/escalamedica/plantao/internal/contrato"
	"github.com/escalamedica/plantao/internal/documento"
	"github.com/escalamedica/plantao/internal/escala"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
	"github.com/escalamedica/plantao/internal/master"
	"github.com/escalamedica/plantao/internal/medapp"
	"github.com/escalamedica/plantao/internal/medico"
	"github.com/escalamedica/plantao/internal/ponto"
	"github.com/escalamedica/plantao/internal/repo"
	"github.com/escalamedica/plantao/internal/service"
	"github.com/escalamedica/plantao/internal/storage"
	"github.com/escalamedica/plantao/internal/tenant"
)

// Handler agrega serviços e dependências das rotas HTTP.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	tenants       *tenant.Service
	masters       *master.Service
	medicos       *medico.Service
	contratos     *contrato.Service
	escalas       *escala.Service
	pontos        *ponto.Service
	acessos       *acesso.Service
	documentos    *documento.Service
	auditoria     *auditoria.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter monta os serviços e devolve o roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	auditLogger := log.With().Str("component", "auditoria").Logger()
	auditService := auditoria.NewService(auditoria.NewRepository(pool), auditLogger)

	tenantService := tenant.NewService(tenant.NewRepository(pool))
	masterService := master.NewService(master.NewRepository(pool), auditService)
	medicoService := medico.NewService(medico.NewRepository(pool), auditService, cfg.ConviteTTL)
	contratoService := contrato.NewService(contrato.NewRepository(pool), medicoService, auditService)
	escalaService := escala.NewService(escala.NewRepository(pool), contratoService, medicoService, auditService)
	pontoService := ponto.NewService(ponto.NewRepository(pool), escalaService, auditService)
	acessoService := acesso.NewService(acesso.NewRepository(pool), redisClient, auditService)

	var uploader storage.Uploader = storage.NoopUploader{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// mantém uploader padrão
	case "s3", "r2", "cloudflare-r2":
		s3Uploader, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		uploader = s3Uploader
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}
	documentoService := documento.NewService(documento.NewRepository(pool), uploader, auditService)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repo.NewQueries(pool), masterService, medicoService, redisClient, jwtManager, cfg.JWTRefreshTTL)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		tenants:       tenantService,
		masters:       masterService,
		medicos:       medicoService,
		contratos:     contratoService,
		escalas:       escalaService,
		pontos:        pontoService,
		acessos:       acessoService,
		documentos:    documentoService,
		auditoria:     auditService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	medappHandler := medapp.NewHandler(medapp.NewService(medicoService, escalaService, pontoService, documentoService))

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Get("/tenant", h.TenantConfig)

		public.Route("/auth", func(authRouter chi.Router) {
			authRouter.Post("/master/login", h.LoginMaster)
			authRouter.Post("/medico/login", h.LoginMedico)
			authRouter.Post("/refresh", h.Refresh)
			authRouter.Post("/logout", h.Logout)
		})

		public.Post("/convite/aceitar", h.AceitarConvite)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireMaster)
			admin.Route("/admin", func(ar chi.Router) {
				ar.Route("/medicos", func(m chi.Router) {
					m.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloMedicos))
					m.Get("/", h.ListMedicos)
					m.Post("/", h.CreateMedico)
					m.Get("/{id}", h.GetMedico)
					m.Patch("/{id}", h.UpdateMedico)
					m.Patch("/{id}/ativo", h.SetMedicoAtivo)
					m.Post("/{id}/convite", h.ConvidarMedico)
				})

				ar.Group(func(c chi.Router) {
					c.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloContratos))
					c.Route("/contratos", func(cr chi.Router) {
						cr.Get("/", h.ListContratos)
						cr.Post("/", h.CreateContrato)
						cr.Get("/{id}", h.GetContrato)
						cr.Put("/{id}", h.UpdateContrato)
						cr.Patch("/{id}/ativo", h.SetContratoAtivo)
						cr.Post("/{id}/subgrupos/{subgrupoID}", h.VincularContratoSubgrupo)
						cr.Post("/{id}/equipes/{equipeID}", h.VincularContratoEquipe)
						cr.Get("/{id}/valores", h.ListValoresPlantao)
						cr.Put("/{id}/valores", h.DefinirValorPlantao)
					})
					c.Route("/subgrupos", func(sr chi.Router) {
						sr.Get("/", h.ListSubgrupos)
						sr.Post("/", h.CreateSubgrupo)
						sr.Delete("/{id}", h.DeleteSubgrupo)
						sr.Post("/{id}/medicos/{medicoID}", h.VincularMedicoSubgrupo)
						sr.Delete("/{id}/medicos/{medicoID}", h.RemoverMedicoSubgrupo)
					})
					c.Route("/equipes", func(er chi.Router) {
						er.Get("/", h.ListEquipes)
						er.Post("/", h.CreateEquipe)
						er.Delete("/{id}", h.DeleteEquipe)
						er.Post("/{id}/medicos/{medicoID}", h.VincularMedicoEquipe)
						er.Delete("/{id}/medicos/{medicoID}", h.RemoverMedicoEquipe)
					})
				})

				ar.Route("/escalas", func(er chi.Router) {
					er.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloEscalas))
					er.Get("/", h.ListEscalas)
					er.Post("/", h.CreateEscala)
					er.Get("/{id}", h.GetEscala)
					er.Patch("/{id}/ativo", h.SetEscalaAtivo)
					er.Post("/{id}/subgrupos/{subgrupoID}", h.VincularEscalaSubgrupo)
					er.Post("/{id}/equipes/{equipeID}", h.VincularEscalaEquipe)
					er.Get("/{id}/medicos", h.ListAlocacoes)
					er.Post("/{id}/medicos/{medicoID}", h.AlocarMedico)
					er.Delete("/{id}/medicos/{medicoID}", h.DesalocarMedico)
					er.Get("/{id}/plantoes", h.ListPlantoes)
					er.Post("/{id}/plantoes", h.AtribuirPlantao)
					er.Delete("/{id}/plantoes/{plantaoID}", h.RemoverPlantao)
					er.Post("/{id}/plantoes/replicar-semana", h.ReplicarSemana)
				})

				ar.Route("/ponto", func(pr chi.Router) {
					pr.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloPonto))
					pr.Get("/registros", h.ListRegistrosPonto)
					pr.Get("/configs", h.ListConfigsPonto)
					pr.Put("/configs", h.SalvarConfigPonto)
				})

				ar.Route("/documentos", func(dr chi.Router) {
					dr.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloDocumentos))
					dr.Get("/", h.ListDocumentos)
					dr.Post("/", h.UploadDocumento)
					dr.Delete("/{id}", h.DeleteDocumento)
				})

				ar.Route("/auditoria", func(au chi.Router) {
					au.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloAuditoria))
					au.Get("/", h.ListAuditoria)
				})

				ar.Group(func(cfgRouter chi.Router) {
					cfgRouter.Use(httpmiddleware.RequireModule(acessoService, acesso.ModuloConfiguracoes))
					cfgRouter.Route("/acesso", func(acr chi.Router) {
						acr.Get("/{perfil}", h.GetMatrizAcesso)
						acr.Put("/", h.SalvarMatrizAcesso)
					})
					cfgRouter.Route("/masters", func(mr chi.Router) {
						mr.Get("/", h.ListMasters)
						mr.Post("/", h.CreateMaster)
						mr.Patch("/{id}/ativo", h.SetMasterAtivo)
					})
				})
			})
		})

		private.Group(func(app chi.Router) {
			app.Use(httpmiddleware.RequireMedico)
			app.Route("/medico", func(mr chi.Router) {
				medapp.Mount(mr, medappHandler)
			})
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// TenantConfig devolve informações públicas do tenant pelo slug.
func (h *Handler) TenantConfig(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "slug é obrigatório", nil)
		return
	}

	t, err := h.tenants.Resolve(r.Context(), slug)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, t)
}

// LoginMaster autentica o administrador do tenant.
func (h *Handler) LoginMaster(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Tenant string `json:"tenant"`
		Email  string `json:"email"`
		Senha  string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Tenant) == "" || strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant, email e senha são obrigatórios", nil)
		return
	}

	t, err := h.tenants.Resolve(r.Context(), payload.Tenant)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	result, err := h.authService.LoginMaster(r.Context(), t.ID, payload.Email, payload.Senha)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// LoginMedico autentica o médico por CPF ou e-mail.
func (h *Handler) LoginMedico(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Tenant string `json:"tenant"`
		Login  string `json:"login"`
		Senha  string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Tenant) == "" || strings.TrimSpace(payload.Login) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant, login e senha são obrigatórios", nil)
		return
	}

	t, err := h.tenants.Resolve(r.Context(), payload.Tenant)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	result, err := h.authService.LoginMedico(r.Context(), t.ID, payload.Login, payload.Senha)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// AceitarConvite define a senha do médico a partir do token de convite.
func (h *Handler) AceitarConvite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Tenant string `json:"tenant"`
		Token  string `json:"token"`
		Senha  string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Tenant) == "" || strings.TrimSpace(payload.Token) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant e token são obrigatórios", nil)
		return
	}

	t, err := h.tenants.Resolve(r.Context(), payload.Tenant)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	m, err := h.medicos.AceitarConvite(r.Context(), t.ID, payload.Token, payload.Senha)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"medico": m})
}

// Refresh renova a sessão a partir do cookie de refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	audience, token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), audience, token)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if audience, token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), audience, token)
	}

	h.clearRefreshCookie(w, service.AudienceMaster)
	h.clearRefreshCookie(w, service.AudienceMedico)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me retorna o perfil do chamador autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject := httpmiddleware.GetSubjectID(r.Context())
	if subject == uuid.Nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "subject inválido", nil)
		return
	}

	profile, roles, err := h.authService.GetMe(r.Context(), httpmiddleware.GetAudience(r.Context()), httpmiddleware.GetTenantID(r.Context()), subject)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":  profile,
		"roles": roles,
	})
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.Audience, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user":         result.Profile,
	})
}

func getRefreshFromRequest(r *http.Request) (string, string, error) {
	if c, err := r.Cookie(service.AudienceMaster); err == nil && c.Value != "" {
		return service.AudienceMaster, c.Value, nil
	}
	if c, err := r.Cookie(service.AudienceMedico); err == nil && c.Value != "" {
		return service.AudienceMedico, c.Value, nil
	}
	return "", "", fmt.Errorf("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, audience, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     audience,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter, audience string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     audience,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
