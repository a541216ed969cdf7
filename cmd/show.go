package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replycorpus/curator/config"
	"github.com/replycorpus/curator/database"
	"github.com/replycorpus/curator/forum"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <reply-id>",
	Short: "Prints one captured reply",
	Args:  cobra.ExactArgs(1),
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

		reply, err := database.GetComment(ctx, args[0])
		if err != nil {
			log.Fatalf("error loading reply: %v", err)
		}

		fmt.Printf("id:           %s\n", reply.ID)
		fmt.Printf("author:       %s\n", reply.Author)
		fmt.Printf("created:      %s\n", reply.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("status:       %s\n", reply.Status)
		fmt.Printf("last checked: %s\n", reply.LastChecked.Format("2006-01-02 15:04:05"))
		fmt.Printf("url:          %s\n", forum.ConstructReplyURL(cfg.Forum.BaseURL.String(), reply.Permalink))
		fmt.Printf("\n%s\n", reply.Text)
	},
}
