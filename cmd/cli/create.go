package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/acavel/qrservice/cmd"
	"github.com/acavel/qrservice/internal/repository"
	"github.com/acavel/qrservice/internal/services"
	"github.com/spf13/cobra"
)

var (
	createTargetURL string
	createShortCode string
	createExpiresAt string
)

// CreateCmd creates a tracked QR from the terminal against the same
// database file the server uses.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tracked QR short URL",
	Run: func(cobraCmd *cobra.Command, args []string) {
		db := openDB()
		service := services.NewTrackedQRService(repository.NewTrackedQRRepository(db))

		var expiresAt *time.Time
		if createExpiresAt != "" {
			t, err := time.Parse(time.RFC3339, createExpiresAt)
			if err != nil {
				log.Fatalf("Invalid --expires-at (want RFC 3339): %v", err)
			}
			utc := t.UTC()
			expiresAt = &utc
		}

		tracked, err := service.Create(createTargetURL, createShortCode, expiresAt)
		if err != nil {
			log.Fatalf("Failed to create tracked QR: %v", err)
		}

		base := cmd.Cfg.Server.BaseURL
		fmt.Printf("Tracked QR created:\n")
		fmt.Printf("  ID:           %s\n", tracked.ID)
		fmt.Printf("  Short URL:    %s/r/%s\n", base, tracked.ShortCode)
		fmt.Printf("  Target:       %s\n", tracked.TargetURL)
		fmt.Printf("  Manage token: %s\n", tracked.ManageToken)
		if tracked.ExpiresAt != nil {
			fmt.Printf("  Expires:      %s\n", tracked.ExpiresAt.Format(time.RFC3339))
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createTargetURL, "target-url", "", "absolute http(s) URL to redirect to (required)")
	CreateCmd.Flags().StringVar(&createShortCode, "short-code", "", "custom short code (3-32 chars, auto-generated if omitted)")
	CreateCmd.Flags().StringVar(&createExpiresAt, "expires-at", "", "optional RFC 3339 expiry timestamp")
	_ = CreateCmd.MarkFlagRequired("target-url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
