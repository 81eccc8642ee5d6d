// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/naka-gawa/github-trophy/internal/config"
	"github.com/naka-gawa/github-trophy/internal/gateway"
	"github.com/naka-gawa/github-trophy/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-trophy",
	Short: "Fetches the GitHub data behind profile trophies.",
	Long: `github-trophy fetches a GitHub user's repositories, activity, issues and
pull requests through the GraphQL API, rotating between the tokens set in
GITHUB_TOKEN1 and GITHUB_TOKEN2 when a request fails.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML settings file")
}

// newLogger builds the logger according to the --verbose flag.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig reads the settings selected by the --config flag.
func loadConfig(cmd *cobra.Command, logger logrus.FieldLogger) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Tokens.Len() == 0 {
		logger.Warnf("No GitHub token set; export %v", config.TokenEnvVars)
	}
	return cfg, nil
}

// newAggregator wires the transport and the token pool together.
func newAggregator(cfg *config.Config, logger logrus.FieldLogger) *usecase.Aggregator {
	transport := gateway.NewGraphQLTransport(cfg.Endpoint, http.DefaultClient, logger)
	return usecase.NewAggregator(transport, cfg.Tokens, cfg.RetryDelay, logger)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
