package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/draftmill/draftmill/config"
	"github.com/draftmill/draftmill/internal/archive"
	"github.com/draftmill/draftmill/internal/pipeline"
	"github.com/draftmill/draftmill/provider"
)

func runCMD() *cobra.Command {
	var cfgPath string
	var query string
	var topic string
	var publish bool

	var run = &cobra.Command{
		Use:   "run",
		Short: "Generate one article and write it to the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if query != "" {
				cfg.Pipeline.Query = query
				if topic == "" {
					cfg.Pipeline.Topic = query
				}
			}
			if topic != "" {
				cfg.Pipeline.Topic = topic
			}
			if cmd.Flags().Changed("publish") {
				cfg.Pipeline.Publish = publish
			}
			failOnMissing(cfg, config.OpRun)

			prov, err := provider.NewProvider(cfg.OpenAI)
			if err != nil {
				return err
			}

			ctx := context.Background()
			logger := log.New(log.Writer(), "[RUN] ", log.LstdFlags)
			pipe := pipeline.New(cfg, prov)
			st, ix := archive.Open(ctx, cfg.Archive, logger)
			if st != nil {
				defer st.Close()
				pipe.Store = st
			}
			if ix != nil {
				defer ix.Close()
				pipe.Index = ix
			}

			_, err = pipe.Run(ctx)
			return err
		},
	}
	run.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	run.Flags().StringVar(&query, "query", "", "headline search query (overrides config)")
	run.Flags().StringVar(&topic, "topic", "", "article topic (overrides config)")
	run.Flags().BoolVar(&publish, "publish", false, "publish the generated article after writing it")
	return run
}
