package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/acavel/qrservice/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Cfg holds the loaded configuration, available to all subcommands.
var Cfg *config.Config

// RootCmd is the base command; subcommands (run-server, migrate, create,
// stats) register themselves via their own init() functions, which keeps
// the packages free of import cycles.
var RootCmd = &cobra.Command{
	Use:   "qrservice",
	Short: "Self-hosted QR code service",
	Long: `A self-hosted QR code service: generate QR codes as PNG, SVG or PDF,
decode QR images, and manage tracked short URLs with scan analytics.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig loads a local .env if present, then the viper configuration.
// Runs before every subcommand.
func initConfig() {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: problem loading configuration: %v. Using defaults.", err)
		Cfg = &config.Config{}
		Cfg.Server.Address = "0.0.0.0"
		Cfg.Server.Port = 8000
		Cfg.Server.BaseURL = "http://localhost:8000"
		Cfg.Database.Path = "qr_service.db"
		Cfg.RateLimit.Max = 100
		Cfg.RateLimit.WindowSecs = 60
	}
}
