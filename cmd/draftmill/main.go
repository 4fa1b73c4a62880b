package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/draftmill/draftmill/config"
)

func main() {
	// a local .env is picked up when present, matching how cron
	// deployments pass credentials
	_ = godotenv.Load()

	var root = &cobra.Command{
		Use:   "draftmill",
		Short: "Generate and publish SEO news articles",
	}
	root.AddCommand(runCMD(), publishCMD(), serveCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// failOnMissing reports every absent required key at once and exits
// before any network call is made.
func failOnMissing(cfg *config.Config, op config.Operation) {
	missing := cfg.Missing(op)
	if len(missing) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "missing required configuration: %s\n", strings.Join(missing, ", "))
	os.Exit(1)
}
