// Package crawl implements the crawl command for fetching articles into the
// JSONL corpus.
package crawl

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/crawler"
	"github.com/3bdelKhale2/Link-chatbot/internal/fetcher"
	"github.com/3bdelKhale2/Link-chatbot/internal/frontier"
)

const robotsCacheTTL = time.Hour

// Command returns the crawl command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		url      string
		maxPages int
		maxDepth int
		out      string
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl articles into the JSONL corpus",
		Long: `Crawls the configured site breadth-first, persisting article-like pages.
With --start and --end, crawls match-center day listings for the date range
instead, using the persisted seen-URL set to avoid refetching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			cfg := deps.Config

			if url != "" {
				cfg.Crawler.BaseURL = url
			}

			if maxPages > 0 {
				cfg.Crawler.MaxPages = maxPages
			}

			if maxDepth > 0 {
				cfg.Crawler.MaxDepth = maxDepth
			}

			if out != "" {
				cfg.Crawler.PagesFile = out
			}

			if validateErr := cfg.ValidateCrawl(); validateErr != nil {
				return validateErr
			}

			robots := fetcher.NewRobotsChecker(
				&http.Client{Timeout: cfg.Fetcher.Timeout},
				cfg.Crawler.UserAgent,
				robotsCacheTTL,
			)

			f := fetcher.New(cfg.Fetcher, robots, deps.Logger)

			c, err := crawler.New(crawler.Config{
				BaseURL:  cfg.Crawler.BaseURL,
				MaxPages: cfg.Crawler.MaxPages,
				MaxDepth: cfg.Crawler.MaxDepth,
				Delay:    cfg.Crawler.Delay,
			}, f, deps.Logger)
			if err != nil {
				return err
			}

			store, err := crawler.OpenPageStore(cfg.Crawler.PagesFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if start != "" || end != "" {
				return crawlDateRange(cmd, c, cfg.Crawler.SeenFile, start, end, store)
			}

			pages, err := c.Crawl(cmd.Context(), store)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Crawled %d pages into %s\n", pages, cfg.Crawler.PagesFile)

			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "base URL to crawl (overrides config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page budget (overrides config)")
	cmd.Flags().IntVar(&maxDepth, "depth", 0, "depth bound (overrides config)")
	cmd.Flags().StringVar(&out, "out", "", "output JSONL path (overrides config)")
	cmd.Flags().StringVar(&start, "start", "", "date-range mode: first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "date-range mode: last day (YYYY-MM-DD)")

	return cmd
}

// crawlDateRange runs the match-center day-listing crawl.
func crawlDateRange(cmd *cobra.Command, c *crawler.Crawler, seenFile, start, end string, store *crawler.PageStore) error {
	startDay, err := time.Parse("2006-01-02", start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	endDay, err := time.Parse("2006-01-02", end)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	seen, err := frontier.OpenSeenSet(seenFile)
	if err != nil {
		return err
	}
	defer seen.Close()

	written, err := c.CrawlDateRange(cmd.Context(), crawler.DateRangeConfig{
		Start: startDay,
		End:   endDay,
	}, seen, store)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d match pages for %s..%s\n", written, start, end)

	return nil
}
