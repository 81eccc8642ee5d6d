package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/naka-gawa/github-trophy/internal/gateway"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Reports the owner and remaining quota of every configured token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}

		type report struct {
			Index  int                  `json:"index"`
			Status *gateway.TokenStatus `json:"status,omitempty"`
			Error  string               `json:"error,omitempty"`
		}
		reports := make([]report, 0, cfg.Tokens.Len())
		for i := 0; i < cfg.Tokens.Len(); i++ {
			token, err := cfg.Tokens.At(i)
			if err != nil {
				return err
			}
			inspector, err := gateway.NewInspector(token, cfg.Endpoint, logger)
			if err != nil {
				return fmt.Errorf("failed to create inspector: %w", err)
			}
			status, err := inspector.Inspect(ctx)
			if err != nil {
				logger.WithError(err).WithField("index", i).Error("Token inspection failed")
				reports = append(reports, report{Index: i, Error: err.Error()})
				continue
			}
			reports = append(reports, report{Index: i, Status: status})
		}

		jsonData, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
