package routes

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "juragites_estimation/docs"
	"juragites_estimation/internal/adapter/http/handlers"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 10 * time.Second

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Estimations *handlers.EstimationHandler
	Payments    *handlers.PaymentHandler
	Webhooks    *handlers.WebhookHandler
	Rules       *handlers.RuleVersionHandler
	Audit       *handlers.AuditHandler
}

// Run will start the server
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to wire the application: %v", err)
	}
	defer app.close()

	if _, err := app.seedRules(ctx); err != nil {
		log.Fatalf("Failed to seed the rule store: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(app.handlers, middleware.NewAuthenticator(cfg.JWTSecret), cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[http][server] shutdown err=%v", err)
		}
	}()

	log.Printf("[http][server] listening addr=%s storage=%s", cfg.ListenAddr, cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

// NewRouter builds the gin API and wraps it in the request id and CORS
// middleware shared by every route.
func NewRouter(h Handlers, auth *middleware.Authenticator, origins []string) http.Handler {
	engine := gin.New()
	setMiddlewares(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := engine.Group("/v1")
	addPingRoutes(v1)
	addWebhookRoutes(v1, h.Webhooks)

	client := v1.Group("", auth.RequireAuth())
	addEstimationRoutes(client, h)

	admin := v1.Group(PathAdmin, auth.RequireAuth(), middleware.RequireAdmin())
	addAdminRoutes(admin, h)

	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/*", engine)
	return mux
}

func setMiddlewares(engine *gin.Engine) {
	engine.Use(gin.Logger())
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	engine.Use(middleware.RequestMeta())
}

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}
