package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

type rootOptions struct {
	api        string
	tokenPath  string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop cart and catalog tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.api, "api", envOr("STOREFRONT_API", defaultBaseURL), "API base URL")
	root.PersistentFlags().StringVar(&opts.tokenPath, "token", defaultTokenPath(), "admin token file")
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "config file for local commands")

	client := func() *apiClient { return newAPIClient(opts.api, opts.tokenPath) }

	root.AddCommand(
		newAuthCmd(client),
		newAdminCmd(opts),
		newCartCmd(client),
		newCatalogCmd(client),
		newSheetCmd(client),
		newMediaCmd(client),
		newWatchCmd(client),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
