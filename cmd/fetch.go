package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/naka-gawa/github-trophy/internal/domain"
	"github.com/naka-gawa/github-trophy/internal/errorpage"
	"github.com/naka-gawa/github-trophy/internal/handler"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetches a user's GitHub data and outputs it as JSON",
	Long:  `Fetches repositories, activity, issues and pull requests for a GitHub user and prints them, together with the derived totals, as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		user, _ := cmd.Flags().GetString("user")
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			exitf("Failed to load configuration: %v\n", err)
		}

		info, err := newAggregator(cfg, logger).RequestUserInfo(ctx, user)
		if err != nil {
			svcErr, _ := domain.AsServiceError(err)
			page := errorpage.Classify(svcErr)
			exitf("%d %s: %s\n", page.Status, page.Title, page.Message)
		}

		jsonData, err := json.MarshalIndent(handler.Response{
			Username: user,
			Summary:  domain.Summarize(info, time.Now()),
			Info:     info,
		}, "", "  ")
		if err != nil {
			exitf("Failed to marshal results to JSON: %v\n", err)
		}

		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required)")
	fetchCmd.MarkFlagRequired("user")
}
