package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acavel/qrservice/cmd"
	"github.com/acavel/qrservice/internal/api"
	"github.com/acavel/qrservice/internal/config"
	"github.com/acavel/qrservice/internal/models"
	"github.com/acavel/qrservice/internal/ratelimit"
	"github.com/acavel/qrservice/internal/repository"
	"github.com/acavel/qrservice/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RunServerCmd is the 'run-server' command: opens the database, wires the
// components in dependency order (config → store → limiter → HTTP) and
// serves until interrupted.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the QR service HTTP server",
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		startTime := time.Now()

		db, err := openDatabase(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}

		trackedRepo := repository.NewTrackedQRRepository(db)
		trackedService := services.NewTrackedQRService(trackedRepo)
		log.Println("Store and services initialized.")

		limiter := ratelimit.New(cfg.RateLimit.Max, time.Duration(cfg.RateLimit.WindowSecs)*time.Second)
		pruneStop := make(chan struct{})
		limiter.StartPruning(time.Duration(cfg.RateLimit.WindowSecs)*time.Second, pruneStop)

		router := gin.Default()
		api.SetupRoutes(router, api.Options{
			BaseURL:        cfg.Server.BaseURL,
			StaticDir:      cfg.Server.StaticDir,
			Limiter:        limiter,
			TrackedService: trackedService,
			StartTime:      startTime,
		})
		log.Println("Routes configured.")

		srv := &http.Server{
			Addr:    cfg.ListenAddr(),
			Handler: router,
		}

		go func() {
			log.Printf("Starting server on %s", cfg.ListenAddr())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received. Stopping server...")

		close(pruneStop)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}

		// Close the store cleanly so the WAL journal is flushed.
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		log.Println("Server stopped.")
	},
}

// openDatabase opens the SQLite file, enables WAL journaling and runs the
// schema migration.
func openDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.TrackedQR{}, &models.ScanEvent{}); err != nil {
		return nil, err
	}
	return db, nil
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
