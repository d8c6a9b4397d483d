// Package index implements the index command: embedding prepared chunks and
// upserting them into the vector store.
package index

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/indexer"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// Command returns the index command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		in        string
		batchSize int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed prepared chunks and upsert them into Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			cfg := deps.Config

			if validateErr := cfg.ValidateIndex(); validateErr != nil {
				return validateErr
			}

			if in == "" {
				in = cfg.Preparer.ChunksFile
			}

			client, err := vectorstore.NewClient(cfg.Elasticsearch, deps.Logger)
			if err != nil {
				return err
			}

			store := vectorstore.NewStore(client, cfg.Elasticsearch.Index, deps.Logger)
			embedder := embedding.NewClient(cfg.Embedding)

			ix := indexer.New(embedder, store, deps.Logger, indexer.Options{
				BatchSize: batchSize,
				Limit:     limit,
			})

			inFile, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer inFile.Close()

			report, err := ix.Run(cmd.Context(), inFile)
			if err != nil {
				// Report partial progress alongside the failure.
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks in %d batches before failure\n",
					report.Indexed, report.Batches)

				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Indexed %d chunks in %d batches (%d empty, %d malformed skipped) into %s\n",
				report.Indexed, report.Batches, report.SkippedEmpty, report.SkippedBad,
				cfg.Elasticsearch.Index)

			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input chunk JSONL (default from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", indexer.DefaultBatchSize, "chunks per embed+upsert batch")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after at least this many chunks (0 = no limit)")

	return cmd
}
