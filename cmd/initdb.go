package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Creates the database schema",
	Long:  `Creates the comments and harvest_runs tables if they do not exist`,
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

		if err := database.CreateSchema(ctx); err != nil {
			log.Fatalf("error creating schema: %v", err)
		}
		log.Info("schema created")
	},
}
