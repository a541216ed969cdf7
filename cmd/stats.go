package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
	"github.com/replycorpus/curator/model"
)

var statsRuns int

func init() {
	statsCmd.Flags().IntVarP(&statsRuns, "runs", "n", 5, "number of recent passes to list")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints corpus status counts and recent pass history",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.FromEnvfile()
		initLogging(cfg)

		ctx := context.Background()
		secretsManagerClient := newSecretsManagerClient(ctx)

		database := database.NewDatabase(resolveDatabaseURL(ctx, cfg, secretsManagerClient))
		if err := database.Connect(ctx); err != nil {
			log.Fatalf("error connecting to database: %v", err)
		}
		defer database.Disconnect()

		counts, err := database.CountByStatus(ctx)
		if err != nil {
			log.Fatalf("error counting replies: %v", err)
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		fmt.Printf("captured replies: %d\n", total)
		for _, status := range []model.Status{model.StatusUnknown, model.StatusLive, model.StatusRemoved} {
			fmt.Printf("  %-8s %d\n", status, counts[status])
		}

		runs, err := database.LatestRuns(ctx, statsRuns)
		if err != nil {
			log.Fatalf("error listing passes: %v", err)
		}
		if len(runs) > 0 {
			fmt.Println("recent passes:")
		}
		for _, run := range runs {
			fmt.Printf("  %s %-6s examined=%d affected=%d\n",
				run.Started.UTC().Format("2006-01-02 15:04:05"), run.Kind, run.Examined, run.Affected)
		}
	},
}
