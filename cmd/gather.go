package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
	"github.com/replycorpus/curator/ingest"
	"github.com/replycorpus/curator/service"
)

var gatherLimit int

func init() {
	gatherCmd.Flags().IntVarP(&gatherLimit, "limit", "l", 100, "number of recent replies to examine")
	rootCmd.AddCommand(gatherCmd)
}

var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Runs one harvest pass over the channel's newest replies",
	Long:  `Runs one harvest pass over the channel's newest replies`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.FromEnvfile()
		initLogging(cfg)

		ctx := context.Background()
		secretsManagerClient := newSecretsManagerClient(ctx)

		forumService := service.NewForumService(ctx, cfg, secretsManagerClient)

		database := database.NewDatabase(resolveDatabaseURL(ctx, cfg, secretsManagerClient))
		if err := database.Connect(ctx); err != nil {
			log.Fatalf("error connecting to database: %v", err)
		}
		defer database.Disconnect()

		pipeline := ingest.NewPipeline(forumService, database, cfg.TestModeEnabled)
		log.Infof("gathering up to %d replies from %s", gatherLimit, forumService.Channel())
		summary, err := pipeline.Ingest(ctx, gatherLimit)
		if err != nil {
			log.Fatalf("harvest pass failed: %v", err)
		}
		log.Infof("number of replies entered into DB: %d", summary.Inserted)
	},
}
