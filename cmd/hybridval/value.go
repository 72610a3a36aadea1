package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshValuationFlag bool

var valueCmd = &cobra.Command{
	Use:   "value TICKER",
	Short: "Print the DCF/Graham composite valuation for TICKER",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := args[0]

		o, closer, err := buildOrchestrator()
		if err != nil {
			return err
		}
		defer closer()

		ctx := context.Background()

		var result interface{}
		if refreshValuationFlag {
			result, err = o.RefreshValuation(ctx, ticker)
		} else {
			result, err = o.GetValuation(ctx, ticker)
		}
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("value: encode result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	valueCmd.Flags().BoolVar(&refreshValuationFlag, "refresh", false, "force a fresh extraction and revaluation, bypassing the cache")
	rootCmd.AddCommand(valueCmd)
}
