package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
	"github.com/replycorpus/curator/ingest"
	"github.com/replycorpus/curator/reconcile"
	"github.com/replycorpus/curator/service"
)

var (
	backgroundLimit   int
	backgroundStale   int
	backgroundMinutes int
)

func init() {
	backgroundCmd.Flags().IntVarP(&backgroundLimit, "limit", "l", 100, "number of recent replies to examine per harvest pass")
	backgroundCmd.Flags().IntVarP(&backgroundStale, "stale", "s", 7, "only re-check replies captured within this many days (-1 for all)")
	backgroundCmd.Flags().IntVarP(&backgroundMinutes, "minutes", "t", 0, "stop after this many minutes (0 runs until interrupted)")
	rootCmd.AddCommand(backgroundCmd)
}

var backgroundCmd = &cobra.Command{
	Use:   "background",
	Short: "Runs harvest and re-check passes on an interval",
	Long: `Runs harvest and re-check passes on an interval until interrupted or
until the minute budget runs out.`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg := config.FromEnvfile()
		initLogging(cfg)

		secretsManagerClient := newSecretsManagerClient(context.Background())

		/*
			Graceful shutdown is possible with errgroup + signal.NotifyContext
			NotifyContext returns a context that will close on OS signals to terminate the process
			errgroup uses that context, and also closes it in case a goroutine errors out
		*/
		ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer done()
		if backgroundMinutes > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(backgroundMinutes)*time.Minute)
			defer cancel()
		}
		g, gCtx := errgroup.WithContext(ctx)

		forumService := service.NewForumService(gCtx, cfg, secretsManagerClient)

		database := database.NewDatabase(resolveDatabaseURL(gCtx, cfg, secretsManagerClient))
		if err := database.Connect(gCtx); err != nil {
			log.Fatalf("error connecting to database: %v", err)
		}
		defer database.Disconnect()

		pipeline := ingest.NewPipeline(forumService, database, cfg.TestModeEnabled)
		reconciler := reconcile.NewReconciler(forumService, database)

		healthchecker := service.NewHealthchecker(8080)

		g.Go(func() error {
			defer log.Info("exiting harvester")
			return pipeline.Run(gCtx, cfg.BackgroundInterval, backgroundLimit)
		})

		g.Go(func() error {
			defer log.Info("exiting reconciler")
			return reconciler.Run(gCtx, cfg.BackgroundInterval, reconcile.Window(backgroundStale))
		})

		// For deployed instances, provide a basic healthcheck endpoint to show it's online
		g.Go(func() error {
			if err := healthchecker.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		// ...and shut down the server if the bot needs to terminate
		g.Go(func() error {
			<-gCtx.Done()
			defer log.Info("exiting healthchecker")
			return healthchecker.Server.Shutdown(context.Background())
		})

		err := g.Wait()
		if err != nil {
			log.Errorf("caught error: %v", err)
		}
	},
}
