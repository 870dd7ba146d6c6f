package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmcgroup/istock-backend/internal/config"
	"github.com/pmcgroup/istock-backend/internal/database"
	"github.com/pmcgroup/istock-backend/internal/handlers"
	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/models"
	"github.com/pmcgroup/istock-backend/internal/nav"
	"github.com/pmcgroup/istock-backend/internal/navcache"
	"github.com/pmcgroup/istock-backend/internal/staging"
)

func main() {
	log := logging.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	err = db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.DocumentProduct{},
		&models.ImageRecord{},
		&models.TransactionHistory{},
		&models.StagingOutbox{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	store, err := navcache.Open(cfg.Cache.Path, cfg.Cache.Timezone)
	if err != nil {
		log.Fatalf("failed to open NAV cache store: %v", err)
	}
	defer store.Close()

	navClient := nav.NewClient(cfg.NAV)

	syncJob := nav.NewSyncJob(navClient, store, cfg.Cache)
	if err := syncJob.Start(); err != nil {
		log.Fatalf("failed to start NAV sync job: %v", err)
	}
	defer syncJob.Stop()

	drainer := staging.NewDrainer(staging.NewBridge(db.DB, navClient))
	drainer.Start()
	defer drainer.Stop()

	router := handlers.NewRouter(db.DB, cfg, navClient, store)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Infof("server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}
