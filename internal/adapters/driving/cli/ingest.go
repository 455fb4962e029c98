package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/loaders/filesystem"
	"github.com/oakum-labs/docq-cli/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest text documents into the index",
	Long: `Ingests .txt and .md files into the local vector index. Each path
may be a file or a directory; directories are walked recursively.

Unchanged documents are detected by content hash and skipped, so
re-running ingest is cheap. With --watch, docq keeps running and
re-ingests files as they appear or change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the paths for changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()

	docs, roots, err := collectDocuments(cmd.Context(), args)
	if err != nil {
		return err
	}

	results := a.ingest.IngestBatch(cmd.Context(), docs)

	var stored, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			cmd.PrintErrf("failed: %s: %v\n", res.SourceID, res.Err)
			continue
		}
		stored += res.ChunksStored
	}

	cmd.Printf("Ingested %d documents (%d chunks) in %s\n",
		len(results)-failed, stored, sinceRounded(start))
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}

	if ingestWatch {
		return watchAndIngest(cmd, a, roots)
	}
	return nil
}

// collectDocuments loads every file or directory argument. Directory
// roots are returned separately for watch mode.
func collectDocuments(ctx context.Context, paths []string) ([]domain.Document, []string, error) {
	var docs []domain.Document
	var roots []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if info.IsDir() {
			loader := filesystem.New(path)
			loaded, err := loader.Load(ctx)
			if err != nil {
				return nil, nil, err
			}
			docs = append(docs, loaded...)
			roots = append(roots, path)
			continue
		}

		loader := filesystem.New(".")
		doc, err := loader.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}

	return docs, roots, nil
}

// watchAndIngest blocks, re-ingesting documents as the watched roots change.
func watchAndIngest(cmd *cobra.Command, a *app, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("--watch requires at least one directory argument")
	}

	ctx := cmd.Context()
	merged := make(chan domain.Document)

	for _, root := range roots {
		docs, err := filesystem.New(root).Watch(ctx)
		if err != nil {
			return err
		}
		go func() {
			for doc := range docs {
				select {
				case merged <- doc:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	cmd.Printf("Watching %d directories, press Ctrl-C to stop\n", len(roots))

	for {
		select {
		case <-ctx.Done():
			return nil
		case doc := <-merged:
			count, err := a.ingest.Ingest(ctx, doc)
			if err != nil {
				logger.Warn("re-ingesting %v: %v", doc.Metadata["filename"], err)
				continue
			}
			cmd.Printf("Ingested %v: %d chunks\n", doc.Metadata["filename"], count)
		}
	}
}
