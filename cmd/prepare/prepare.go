// Package prepare implements the prepare command: turning the raw article
// corpus into a filtered, chunked dataset ready for indexing.
package prepare

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/preparer"
)

// Command returns the prepare command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		in      string
		out     string
		noDedup bool
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Filter and chunk the crawled corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			cfg := deps.Config

			if in == "" {
				in = cfg.Crawler.PagesFile
			}

			if out == "" {
				out = cfg.Preparer.ChunksFile
			}

			inFile, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer inFile.Close()

			if mkErr := os.MkdirAll(filepath.Dir(out), 0o755); mkErr != nil {
				return fmt.Errorf("create output dir: %w", mkErr)
			}

			outFile, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer outFile.Close()

			stats, err := preparer.Prepare(inFile, outFile, preparer.Options{
				ChunkSize:            cfg.Preparer.ChunkSize,
				MinChars:             cfg.Preparer.MinChars,
				BoilerplateThreshold: cfg.Preparer.BoilerplateThreshold,
				Dedupe:               cfg.Preparer.Dedupe && !noDedup,
			})
			if err != nil {
				return err
			}

			deps.Logger.Info("Prepared dataset",
				"kept", stats.KeptArticles,
				"skipped_short", stats.SkippedShort,
				"skipped_boiler", stats.SkippedBoiler,
				"chunks", stats.WrittenChunks)

			fmt.Fprintf(cmd.OutOrStdout(),
				"Kept %d articles (%d short, %d boilerplate skipped), wrote %d chunks to %s\n",
				stats.KeptArticles, stats.SkippedShort, stats.SkippedBoiler, stats.WrittenChunks, out)

			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input article JSONL (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "output chunk JSONL (default from config)")
	cmd.Flags().BoolVar(&noDedup, "no-dedupe", false, "disable global chunk deduplication")

	return cmd
}
