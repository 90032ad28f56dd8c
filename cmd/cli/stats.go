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

var statsShortCode string

// StatsCmd prints scan statistics for a tracked QR. Local CLI access reads
// the database directly, so no manage token is involved.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show scan statistics for a tracked QR",
	Run: func(cobraCmd *cobra.Command, args []string) {
		db := openDB()
		service := services.NewTrackedQRService(repository.NewTrackedQRRepository(db))

		tracked, err := service.GetByShortCode(statsShortCode)
		if err != nil {
			log.Fatalf("Failed to look up %q: %v", statsShortCode, err)
		}

		_, scans, err := service.Stats(tracked.ID, 10)
		if err != nil {
			log.Fatalf("Failed to load stats: %v", err)
		}

		fmt.Printf("Short code: %s\n", tracked.ShortCode)
		fmt.Printf("Target:     %s\n", tracked.TargetURL)
		fmt.Printf("Created:    %s\n", tracked.CreatedAt.Format(time.RFC3339))
		if tracked.ExpiresAt != nil {
			fmt.Printf("Expires:    %s\n", tracked.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Printf("Scans:      %d\n", tracked.ScanCount)
		if len(scans) > 0 {
			fmt.Println("Most recent:")
			for _, s := range scans {
				fmt.Printf("  %s  %s\n", s.ScannedAt.Format(time.RFC3339), s.UserAgent)
			}
		}
	},
}

func init() {
	StatsCmd.Flags().StringVar(&statsShortCode, "code", "", "short code to inspect (required)")
	_ = StatsCmd.MarkFlagRequired("code")

	cmd.RootCmd.AddCommand(StatsCmd)
}
