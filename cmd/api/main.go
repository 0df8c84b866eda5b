package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaxtrack/registry-api/internal/config"
	"github.com/vaxtrack/registry-api/internal/handler"
	appointmentHandler "github.com/vaxtrack/registry-api/internal/handler/appointment"
	authHandler "github.com/vaxtrack/registry-api/internal/handler/auth"
	diseaseHandler "github.com/vaxtrack/registry-api/internal/handler/disease"
	requestHandler "github.com/vaxtrack/registry-api/internal/handler/request"
	userHandler "github.com/vaxtrack/registry-api/internal/handler/user"
	vaccineHandler "github.com/vaxtrack/registry-api/internal/handler/vaccine"
	"github.com/vaxtrack/registry-api/internal/middleware"
	"github.com/vaxtrack/registry-api/internal/repository/postgres"
	"github.com/vaxtrack/registry-api/internal/router"
	appointmentService "github.com/vaxtrack/registry-api/internal/service/appointment"
	approvalService "github.com/vaxtrack/registry-api/internal/service/approval"
	authService "github.com/vaxtrack/registry-api/internal/service/auth"
	catalogService "github.com/vaxtrack/registry-api/internal/service/catalog"
	userService "github.com/vaxtrack/registry-api/internal/service/user"
	"github.com/vaxtrack/registry-api/pkg/auth"
	"github.com/vaxtrack/registry-api/pkg/metrics"
	"github.com/vaxtrack/registry-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := middleware.RegisterCustomValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("registry", "api")

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	diseaseRepo := postgres.NewDiseaseRepository(baseRepo)
	diseaseReqRepo := postgres.NewDiseaseRequestRepository(baseRepo)
	vaccineRepo := postgres.NewVaccineRepository(baseRepo)
	vaccineReqRepo := postgres.NewVaccineRequestRepository(baseRepo)
	approvalRepo := postgres.NewApprovalRepository(baseRepo)
	appointmentRepo := postgres.NewAppointmentRepository(baseRepo)

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo, hasher)
	catalogSvc := catalogService.NewService(diseaseRepo, vaccineRepo)
	approvalSvc := approvalService.NewService(diseaseRepo, vaccineRepo, diseaseReqRepo, vaccineReqRepo, approvalRepo, catalogSvc, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, vaccineRepo, m, nil)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler()

	r := router.NewRouter(
		authMiddleware,
		h,
		router.RouterConfig{
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "registry",
		},
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		diseaseHandler.NewHandler(catalogSvc),
		vaccineHandler.NewHandler(catalogSvc),
		requestHandler.NewHandler(approvalSvc),
		appointmentHandler.NewHandler(appointmentSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
