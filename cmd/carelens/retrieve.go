package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/carelens/internal/cli"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Show the guideline excerpts nearest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().Int("k", 0, "number of excerpts (0 = guidelines.top_k)")
	retrieveCmd.Flags().StringP("output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(mustString(cmd, "output"))
	if err != nil {
		return err
	}
	k, _ := cmd.Flags().GetInt("k")
	query := strings.Join(args, " ")

	ctx := cmd.Context()
	comps, err := initializeComponents(ctx, appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	chunks, err := comps.Retriever.Retrieve(ctx, query, k)
	if err != nil {
		return err
	}
	return cli.WriteRetrieval(cmd.OutOrStdout(), query, chunks, format)
}
