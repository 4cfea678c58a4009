package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tunematch/internal/config"
	apphttp "tunematch/internal/http"
	"tunematch/internal/media"
	"tunematch/internal/repository/sqlite"
	"tunematch/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := sqlite.NewAccountRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	profileRepo := sqlite.NewProfileRepository(db)

	if err := accountRepo.Init(ctx); err != nil {
		logger.Fatalf("init account repository: %v", err)
	}
	if err := sessionRepo.Init(ctx); err != nil {
		logger.Fatalf("init session repository: %v", err)
	}
	if err := profileRepo.Init(ctx); err != nil {
		logger.Fatalf("init profile repository: %v", err)
	}

	pictures, err := media.NewDiskStore(cfg.Media.PicturesDir)
	if err != nil {
		logger.Fatalf("setup picture store: %v", err)
	}

	credentialService := service.NewCredentialService(accountRepo, profileRepo, sessionRepo, pictures)
	sessionService := service.NewSessionService(
		sessionRepo,
		accountRepo,
		time.Duration(cfg.Session.TTLHours)*time.Hour,
		time.Duration(cfg.Session.RememberTTLHours)*time.Hour,
	)
	profileService := service.NewProfileService(profileRepo, pictures)
	matchService := service.NewMatchService(profileRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		credentialService,
		sessionService,
		profileService,
		matchService,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
