package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/output"
	"github.com/draftmill/draftmill/internal/pipeline"
	"github.com/draftmill/draftmill/internal/publish"
	"github.com/draftmill/draftmill/models"
)

func publishCMD() *cobra.Command {
	var cfgPath string

	var pub = &cobra.Command{
		Use:   "publish [file]",
		Short: "Publish the most recent generated article to Blogger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			failOnMissing(cfg, config.OpPublish)

			ctx := context.Background()
			logger := log.New(log.Writer(), "[PUBLISH] ", log.LstdFlags)
			client := publish.NewClient(cfg.Blogger)

			var post models.PublishedPost
			if len(args) == 1 {
				post, err = pipeline.PublishFile(ctx, args[0], client, logger)
			} else {
				post, err = pipeline.PublishLatest(ctx, output.NewWriter(cfg.Output.Dir), client, logger)
			}
			if err != nil {
				return err
			}
			logger.Printf("published: %s", post.URL)
			return nil
		},
	}
	pub.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return pub
}
