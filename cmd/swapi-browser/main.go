// Command swapi-browser browses the Star Wars API one category at a time,
// either as a one-shot terminal listing or as a small HTTP service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sternrassler/swapi-client/pkg/category"
	"github.com/Sternrassler/swapi-client/pkg/client"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalFlags are shared by every subcommand and override the config file
// and environment.
type globalFlags struct {
	configPath string
	logLevel   string
	baseURL    string
	redisURL   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "swapi-browser",
		Short: "Browse Star Wars API categories",
		Long: `swapi-browser pages through the characters, races, starships and planets
of the Star Wars API. Each category keeps its own fetch state, so switching
back to a category that was already loaded is served without a new request.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "SWAPI base URL (overrides SWAPI_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.redisURL, "redis-url", "", "Redis address or URL (overrides REDIS_URL)")

	rootCmd.AddCommand(newListCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))

	return rootCmd
}

// mapErrorToExitCode maps errors to process exit codes.
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, category.ErrInvalidCategory) {
		return 2 // Usage errors
	}

	if errors.Is(err, client.ErrRateLimited) {
		return 3
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Class == client.ErrorClassNetwork {
		return 4 // Network errors
	}

	return 1
}
