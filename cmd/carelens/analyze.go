package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/analyzer"
	"github.com/hyperjump/carelens/internal/cli"
	"github.com/hyperjump/carelens/internal/transcript"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript-file]",
	Short: "Score every conversation in a transcript file",
	Long: `Parse a transcript file, score each conversation for HIV and mental health
risk, and print the per-conversation results followed by a summary table.

The file defaults to analysis.conversations_path from the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("limit", 0, "analyze at most this many conversations (0 = config value, or all)")
	analyzeCmd.Flags().StringP("output", "o", "text", "output format: text, json or table")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(mustString(cmd, "output"))
	if err != nil {
		return err
	}
	path, err := transcriptPath(args, appConfig.Analysis.ConversationsPath)
	if err != nil {
		return err
	}
	limit := appConfig.Analysis.Limit
	if cmd.Flags().Changed("limit") {
		limit, _ = cmd.Flags().GetInt("limit")
	}

	convs, err := transcript.ParseFile(path)
	if err != nil {
		return err
	}
	logger.Info("Loaded conversations", zap.String("path", path), zap.Int("count", len(convs)))

	ctx := cmd.Context()
	comps, err := initializeComponents(ctx, appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	records, err := comps.Analyzer.AnalyzeBatch(ctx, convs, limit)
	if err != nil && len(records) == 0 {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.OutputTable:
		if werr := cli.WriteSummary(out, analyzer.Summarize(records), format); werr != nil {
			return werr
		}
	case cli.OutputJSON:
		if werr := cli.WriteRecords(out, records, format); werr != nil {
			return werr
		}
	default:
		if werr := cli.WriteRecords(out, records, format); werr != nil {
			return werr
		}
		fmt.Fprintln(out, "\nSUMMARY")
		if werr := cli.WriteSummary(out, analyzer.Summarize(records), format); werr != nil {
			return werr
		}
	}
	return err
}

// transcriptPath picks the positional argument over the configured path.
func transcriptPath(args []string, configured string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if configured == "" {
		return "", errors.New("no transcript file given and analysis.conversations_path is not set")
	}
	return configured, nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
