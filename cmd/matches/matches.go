// Package matches implements the matches command: extracting structured
// fixtures from the crawled corpus and writing CSV/JSONL outputs.
package matches

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/matches"
)

// previewRows caps the fixtures echoed to the terminal.
const previewRows = 20

// Command returns the matches command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		inputs   []string
		outCSV   string
		outJSONL string
	)

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Extract structured fixtures from the crawled corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			cfg := deps.Config

			if len(inputs) == 0 {
				inputs = []string{cfg.Crawler.PagesFile}
			}

			if outJSONL == "" {
				outJSONL = cfg.Chat.MatchesFile
			}

			rows, err := matches.ExtractFiles(inputs...)
			if err != nil {
				return err
			}

			if err := writeFile(outJSONL, rows, matches.WriteJSONL); err != nil {
				return err
			}

			if outCSV != "" {
				if err := writeFile(outCSV, rows, matches.WriteCSV); err != nil {
					return err
				}
			}

			deps.Logger.Info("Extracted fixtures", "count", len(rows), "out", outJSONL)
			renderTable(cmd, rows)

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d matches to %s\n", len(rows), outJSONL)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&inputs, "in", nil, "input article JSONL files (default from config)")
	cmd.Flags().StringVar(&outCSV, "out-csv", "", "optional CSV output path")
	cmd.Flags().StringVar(&outJSONL, "out", "", "output JSONL path (default from config)")

	return cmd
}

// writeFile writes rows to path with the given writer func.
func writeFile(path string, rows []domain.MatchRecord, write func(w io.Writer, rows []domain.MatchRecord) error) error {
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return fmt.Errorf("create output dir: %w", mkErr)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return write(f, rows)
}

// renderTable prints a preview of the extracted fixtures.
func renderTable(cmd *cobra.Command, rows []domain.MatchRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Date", "Time", "Home", "Away", "Competition"})

	for i, m := range rows {
		if i >= previewRows {
			break
		}

		t.AppendRow(table.Row{m.Date, m.Time, m.Home, m.Away, m.Competition})
	}

	t.Render()
}
