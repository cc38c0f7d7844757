package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the guideline index and report its status",
	Long: `Extract the guidelines document, split it into word windows, embed every
window and build the vector index. Embeddings are cached in the storage
database when one is configured, so rebuilding after a restart is cheap.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	comps, err := initializeComponents(ctx, appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	if err := comps.Retriever.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to build guideline index: %w", err)
	}
	st := comps.Retriever.Status()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source:     %s\n", st.Source)
	fmt.Fprintf(out, "Chunks:     %d\n", st.Chunks)
	fmt.Fprintf(out, "Index type: %s\n", st.IndexType)
	if st.Fallback {
		fmt.Fprintln(out, "Note: guidelines document unavailable, indexed the built-in fallback text")
	}
	if comps.Storage != nil {
		docs, err := comps.Storage.CountDocuments(ctx)
		if err != nil {
			return err
		}
		chunks, err := comps.Storage.CountChunks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cache:      %d documents, %d chunks, %d bytes\n", docs, chunks, comps.Storage.SizeBytes())
	}
	return nil
}
