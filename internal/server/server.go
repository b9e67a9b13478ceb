package server

import (
	"context"
	"net/http"
	"time"

	"github.com/baselinedocs/baselinedocs/internal/config"
	identitylocal "github.com/baselinedocs/baselinedocs/internal/identity/local"
	identityoauth "github.com/baselinedocs/baselinedocs/internal/identity/oauth"
	"github.com/baselinedocs/baselinedocs/internal/observability"
	obsmiddleware "github.com/baselinedocs/baselinedocs/internal/observability/logger"
	obsmetrics "github.com/baselinedocs/baselinedocs/internal/observability/metrics"
	obstracing "github.com/baselinedocs/baselinedocs/internal/observability/tracing"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/baselinedocs/baselinedocs/internal/signupintent"
	tenantdomain "github.com/baselinedocs/baselinedocs/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	tenantSvc    tenantdomain.Service
	provisionSvc provdomain.Service
	localSvc     identitylocal.Service
	oauthSvc     identityoauth.Service
	intents      *signupintent.Codec
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	TenantSvc    tenantdomain.Service
	ProvisionSvc provdomain.Service
	LocalSvc     identitylocal.Service
	OAuthSvc     identityoauth.Service
	Intents      *signupintent.Codec
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		tenantSvc:    p.TenantSvc,
		provisionSvc: p.ProvisionSvc,
		localSvc:     p.LocalSvc,
		oauthSvc:     p.OAuthSvc,
		intents:      p.Intents,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/check-subdomain", s.CheckSubdomain)

	// -------- Email/password signup --------
	api.POST("/signup", s.Signup)
	api.POST("/signup/resend", s.ResendConfirmation)
	api.GET("/signup/confirm", s.ConfirmSignup)

	// -------- Federated signup --------
	api.GET("/auth/:provider", s.OAuthRedirect)
	api.GET("/auth/callback", s.OAuthCallback)
	api.POST("/complete-signup", s.CompleteSignup)
}
