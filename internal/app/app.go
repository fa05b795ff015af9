package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vaultgate/card-token-service/internal/config"
	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/handler"
	"github.com/vaultgate/card-token-service/internal/repository"
	"github.com/vaultgate/card-token-service/internal/service"
	"github.com/vaultgate/card-token-service/internal/token"
	"github.com/vaultgate/card-token-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout    = 5 * time.Second
	expirySweepTimeout = 30 * time.Second
)

type App struct {
	infra       Infrastructure
	config      *config.Config
	router      *gin.Engine
	server      *http.Server
	cardService service.CardService
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	tokenManager := token.NewManager(cfg.Token.Secret, cfg.Token.TTL.Duration)

	revocationCache := service.NewRevocationCache(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(repos.User, tokenManager, cfg.Security.BCryptCost)
	cardService := service.NewCardService(repos.CardToken, tokenManager, revocationCache)

	cardMetrics, err := observability.NewCardMetrics(serviceName)
	if err != nil {
		infra.Logger().Warn("failed to register card metrics", zap.Error(err))
	}

	authHandler := handler.NewAuthHandler(authService)
	cardHandler := handler.NewCardHandler(cardService, cardMetrics)

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, authHandler, cardHandler, authService, cardService, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:       infra,
		config:      cfg,
		router:      router,
		server:      srv,
		cardService: cardService,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	authHandler *handler.AuthHandler,
	cardHandler *handler.CardHandler,
	authService service.AuthService,
	cardService service.CardService,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	card := router.Group("/card")
	{
		// Issuance and listing authenticate with the user token; the
		// per-record routes authenticate with the card token itself.
		card.POST("", handler.AuthMiddleware(authService), cardHandler.Issue)
		card.GET("", handler.AuthMiddleware(authService), cardHandler.List)

		card.GET("/:id",
			handler.CardTokenMiddleware(cardService,
				domain.ScopeReadOnly, domain.ScopeFullAccess, domain.ScopeRefreshOnly),
			cardHandler.Get,
		)
		card.PATCH("/:id/revoke",
			handler.CardTokenMiddleware(cardService, domain.ScopeFullAccess),
			cardHandler.Revoke,
		)
		card.DELETE("/:id",
			handler.CardTokenMiddleware(cardService, domain.ScopeFullAccess),
			cardHandler.Delete,
		)
		card.POST("/:id/refresh",
			handler.CardTokenMiddleware(cardService,
				domain.ScopeRefreshOnly, domain.ScopeFullAccess),
			cardHandler.Refresh,
		)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go a.sweepExpired(ctx)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// sweepExpired clears expired ledger rows once at startup. Best effort
// storage hygiene; active tokens are unaffected either way.
func (a *App) sweepExpired(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, expirySweepTimeout)
	defer cancel()

	removed, err := a.cardService.SweepExpired(ctx)
	if err != nil {
		a.infra.Logger().Warn("Expired token sweep failed", zap.Error(err))
		return
	}

	if removed > 0 {
		a.infra.Logger().Info("Removed expired card tokens", zap.Int64("count", removed))
	}
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
