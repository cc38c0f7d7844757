package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/analyzer"
	"github.com/hyperjump/carelens/internal/cli"
	"github.com/hyperjump/carelens/internal/config"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/transcript"
	"github.com/hyperjump/carelens/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory...]",
	Short: "Analyze transcript files as they appear in watched directories",
	Long: `Watch directories for new or changed transcript files and analyze each one
once its writes settle. Directories default to watch.directories from the
config. Existing files are analyzed at startup.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("output", "o", "table", "output format for each analyzed file: text, json or table")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(mustString(cmd, "output"))
	if err != nil {
		return err
	}
	dirs := appConfig.Watch.Directories
	if len(args) > 0 {
		dirs = args
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no directories to watch: pass them as arguments or set watch.directories")
	}

	ctx := cmd.Context()
	comps, err := initializeComponents(ctx, appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	w := newTranscriptWatcher(dirs, &appConfig.Watch, comps.Analyzer, &reportWriter{w: cmd.OutOrStdout(), format: format})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()
	w.SyncExisting()

	logger.Info("Watching for transcripts", zap.Strings("directories", w.Directories()))
	<-ctx.Done()
	logger.Info("Shutting down watcher")
	return nil
}

// reportWriter serializes per-file output from concurrent watch handlers.
type reportWriter struct {
	mu     sync.Mutex
	w      io.Writer
	format cli.OutputFormat
}

func (r *reportWriter) write(path string, records []*models.AnalysisRecord) {
	if r == nil || r.w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	switch r.format {
	case cli.OutputJSON:
		err = cli.WriteRecords(r.w, records, r.format)
	case cli.OutputText:
		fmt.Fprintf(r.w, "\n%s\n", path)
		err = cli.WriteRecords(r.w, records, r.format)
	default:
		fmt.Fprintf(r.w, "\n%s\n", path)
		err = cli.WriteSummary(r.w, analyzer.Summarize(records), r.format)
	}
	if err != nil {
		logger.Warn("Failed to write analysis output", zap.String("path", path), zap.Error(err))
	}
}

func newTranscriptWatcher(dirs []string, cfg *config.WatchConfig, a *analyzer.Analyzer, report *reportWriter) *watcher.Watcher {
	return watcher.New(dirs, cfg.Extensions, cfg.RecursiveOrDefault(),
		func(ctx context.Context, path string) {
			analyzeTranscriptFile(ctx, a, path, report)
		},
		watcher.WithLogger(logger))
}

// analyzeTranscriptFile analyzes every conversation in path. Conversation IDs are
// prefixed with the file name so records from different files stay distinct.
func analyzeTranscriptFile(ctx context.Context, a *analyzer.Analyzer, path string, report *reportWriter) []*models.AnalysisRecord {
	convs, err := transcript.ParseFile(path)
	if err != nil {
		logger.Warn("Failed to parse transcript", zap.String("path", path), zap.Error(err))
		return nil
	}
	if len(convs) == 0 {
		logger.Debug("No conversations in transcript", zap.String("path", path))
		return nil
	}
	prefixConversationIDs(filepath.Base(path), convs)

	records, err := a.AnalyzeBatch(ctx, convs, 0)
	if err != nil {
		logger.Warn("Transcript analysis incomplete", zap.String("path", path), zap.Error(err))
	}
	for _, r := range records {
		logger.Info("Conversation analyzed",
			zap.String("path", path),
			zap.String("conversation_id", r.ConversationID),
			zap.Float64("hiv_score", r.HIV.FinalScore),
			zap.String("hiv_category", string(r.HIV.FinalCategory)),
			zap.Float64("mh_score", r.MentalHealth.FinalScore),
			zap.String("mh_category", string(r.MentalHealth.FinalCategory)),
			zap.Bool("requires_review", r.HIV.RequiresReview || r.MentalHealth.RequiresReview),
		)
	}
	if len(records) > 0 {
		report.write(path, records)
	}
	return records
}

func prefixConversationIDs(prefix string, convs []*models.Conversation) {
	for _, c := range convs {
		c.ID = prefix + "#" + c.ID
	}
}
