package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	refreshAnalysisFlag bool
	narrativeFlag       string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Print the qualitative investment memo for TICKER",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := args[0]

		o, closer, err := buildOrchestrator()
		if err != nil {
			return err
		}
		defer closer()

		ctx := context.Background()

		var m interface{}
		if refreshAnalysisFlag {
			m, err = o.RefreshAnalysis(ctx, ticker, narrativeFlag)
		} else {
			m, err = o.GetAnalysis(ctx, ticker, narrativeFlag)
		}
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("analyze: encode memo: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&refreshAnalysisFlag, "refresh", false, "force a fresh memo, bypassing the cache")
	analyzeCmd.Flags().StringVar(&narrativeFlag, "narrative", "", "free-text analyst context to fold into the memo prompt")
	rootCmd.AddCommand(analyzeCmd)
}
