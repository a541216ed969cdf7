package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
	"github.com/replycorpus/curator/reconcile"
	"github.com/replycorpus/curator/service"
)

var staleDays int

func init() {
	checkCmd.Flags().IntVarP(&staleDays, "stale", "s", 7, "only re-check replies captured within this many days (-1 for all)")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-checks captured replies for takedowns",
	Long: `Re-checks captured replies against the live forum and records which
have since been removed. By default only replies captured within the stale
window are considered; pass --stale -1 to re-check everything not already
confirmed removed.`,
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

		reconciler := reconcile.NewReconciler(forumService, database)
		summary, err := reconciler.Reconcile(ctx, reconcile.Window(staleDays))
		if err != nil {
			log.Fatalf("reconciliation pass failed: %v", err)
		}
		log.Infof("total removed replies: %d of %d checked", summary.Removed, summary.Checked)
	},
}
