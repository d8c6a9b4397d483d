// Package search implements the search command for querying the indexed
// corpus from the terminal.
package search

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/retriever"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

// snippetRunes caps the text column in the result table.
const snippetRunes = 120

// Command returns the search command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a similarity query against the indexed corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			cfg := deps.Config

			if validateErr := cfg.ValidateIndex(); validateErr != nil {
				return validateErr
			}

			client, err := vectorstore.NewClient(cfg.Elasticsearch, deps.Logger)
			if err != nil {
				return err
			}

			store := vectorstore.NewStore(client, cfg.Elasticsearch.Index, deps.Logger)
			embedder := embedding.NewClient(cfg.Embedding)
			r := retriever.New(embedder, store, deps.Logger)

			query := strings.Join(args, " ")

			results := r.Search(cmd.Context(), query, topK)
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Score", "Text", "Source"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "Score", Transformer: text.NewNumberTransformer("%.4f")},
			})

			for _, res := range results {
				t.AppendRow(table.Row{res.Score, snippet(res.Text), res.Metadata["source"]})
			}

			t.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", retriever.DefaultTopK, "number of results to return")

	return cmd
}

// snippet trims text to a single table-friendly line.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= snippetRunes {
		return s
	}

	return string(runes[:snippetRunes]) + "…"
}
