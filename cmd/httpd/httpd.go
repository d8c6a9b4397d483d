// Package httpd implements the httpd command: the long-running chatbot API
// server wiring crawling, indexing, retrieval, and chat together.
package httpd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/common"
	"github.com/3bdelKhale2/Link-chatbot/internal/api"
	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
	"github.com/3bdelKhale2/Link-chatbot/internal/config"
	"github.com/3bdelKhale2/Link-chatbot/internal/crawler"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/embedding"
	"github.com/3bdelKhale2/Link-chatbot/internal/fetcher"
	"github.com/3bdelKhale2/Link-chatbot/internal/indexer"
	"github.com/3bdelKhale2/Link-chatbot/internal/jsonl"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
	"github.com/3bdelKhale2/Link-chatbot/internal/matches"
	"github.com/3bdelKhale2/Link-chatbot/internal/preparer"
	"github.com/3bdelKhale2/Link-chatbot/internal/retriever"
	"github.com/3bdelKhale2/Link-chatbot/internal/vectorstore"
)

const robotsCacheTTL = time.Hour

// Command returns the httpd command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the chatbot HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.BuildDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}

			return run(cmd.Context(), deps.Config, deps.Logger)
		},
	}
}

func run(parent context.Context, cfg *config.Config, log logger.Interface) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := vectorstore.NewClient(cfg.Elasticsearch, log)
	if err != nil {
		return err
	}

	store := vectorstore.NewStore(client, cfg.Elasticsearch.Index, log)
	embedder := embedding.NewClient(cfg.Embedding)
	rag := retriever.New(embedder, store, log)
	generator := chat.NewHTTPGenerator(cfg.Generation)

	fixtures := loadFixtures(cfg.Chat.MatchesFile, log)

	tickets, err := chat.OpenTicketStore(cfg.Chat.TicketsFile)
	if err != nil {
		return err
	}

	handler := chat.NewHandler(chat.NewSessionMemory(), tickets, rag, fixtures, generator, log, nil)

	crawl := crawlFunc(cfg, embedder, store, log)
	index := indexFunc(cfg, embedder, store, log)

	router := api.SetupRouter(api.Deps{
		Logger:  log,
		Chat:    handler,
		Search:  rag,
		Tickets: tickets,
		Crawl:   crawl,
		Index:   index,
		UIDir:   cfg.Server.UIDir,
	})

	scheduler, err := startRecrawl(ctx, cfg, crawl, log)
	if err != nil {
		return err
	}

	if scheduler != nil {
		defer scheduler.Stop()
	}

	return api.NewServer(cfg.Server, router, log).Start(ctx)
}

// loadFixtures opens the match corpus. A missing or unreadable file starts
// the server with an empty lookup instead of failing.
func loadFixtures(path string, log logger.Interface) *matches.Lookup {
	lookup, err := matches.LoadLookup(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("Match corpus unreadable, starting empty", "path", path, "error", err)
		}

		return matches.NewLookup(nil)
	}

	log.Info("Loaded match corpus", "path", path, "days", lookup.Len())

	return lookup
}

// crawlFunc backs the /crawl endpoint and the scheduled recrawl. Each call
// builds a fresh crawler over the requested base URL, appends the pages to
// the persistent corpus, and indexes the fresh pages so chat answers reflect
// them immediately.
func crawlFunc(
	cfg *config.Config,
	embedder embedding.Embedder,
	store *vectorstore.Store,
	log logger.Interface,
) func(ctx context.Context, url string) (int, error) {
	return func(ctx context.Context, url string) (int, error) {
		if url == "" {
			url = cfg.Crawler.BaseURL
		}

		robots := fetcher.NewRobotsChecker(
			&http.Client{Timeout: cfg.Fetcher.Timeout},
			cfg.Crawler.UserAgent,
			robotsCacheTTL,
		)

		f := fetcher.New(cfg.Fetcher, robots, log)

		c, err := crawler.New(crawler.Config{
			BaseURL:  url,
			MaxPages: cfg.Crawler.MaxPages,
			MaxDepth: cfg.Crawler.MaxDepth,
			Delay:    cfg.Crawler.Delay,
		}, f, log)
		if err != nil {
			return 0, err
		}

		pages, err := crawler.OpenPageStore(cfg.Crawler.PagesFile)
		if err != nil {
			return 0, err
		}
		defer pages.Close()

		var fresh bytes.Buffer
		tee := teeWriter{pages, jsonl.NewWriter(&fresh)}

		written, err := c.Crawl(ctx, tee)
		if err != nil {
			return written, err
		}

		if err := tee.buf.Flush(); err != nil {
			return written, err
		}

		if err := indexPages(ctx, cfg, &fresh, embedder, store, log); err != nil {
			return written, err
		}

		return written, nil
	}
}

// teeWriter feeds crawled pages to the persistent store and an in-memory
// buffer for immediate indexing.
type teeWriter struct {
	store *crawler.PageStore
	buf   *jsonl.Writer
}

func (t teeWriter) WritePage(rec domain.PageRecord) error {
	if err := t.store.WritePage(rec); err != nil {
		return err
	}

	return t.buf.Write(rec)
}

// indexPages prepares and indexes the freshly crawled pages.
func indexPages(
	ctx context.Context,
	cfg *config.Config,
	pages *bytes.Buffer,
	embedder embedding.Embedder,
	store *vectorstore.Store,
	log logger.Interface,
) error {
	var chunks bytes.Buffer

	stats, err := preparer.Prepare(pages, &chunks, preparer.Options{
		ChunkSize:            cfg.Preparer.ChunkSize,
		MinChars:             cfg.Preparer.MinChars,
		BoilerplateThreshold: cfg.Preparer.BoilerplateThreshold,
		Dedupe:               cfg.Preparer.Dedupe,
	})
	if err != nil {
		return err
	}

	if stats.WrittenChunks == 0 {
		return nil
	}

	ix := indexer.New(embedder, store, log, indexer.Options{})

	report, err := ix.Run(ctx, &chunks)
	if err != nil {
		return err
	}

	log.Info("Indexed crawled pages", "chunks", report.Indexed, "batches", report.Batches)

	return nil
}

// indexFunc backs the /index endpoint.
func indexFunc(
	cfg *config.Config,
	embedder embedding.Embedder,
	store *vectorstore.Store,
	log logger.Interface,
) func(ctx context.Context, path string, limit int) (indexer.Report, error) {
	return func(ctx context.Context, path string, limit int) (indexer.Report, error) {
		if path == "" {
			path = cfg.Preparer.ChunksFile
		}

		in, err := os.Open(path)
		if err != nil {
			return indexer.Report{}, fmt.Errorf("open chunks: %w", err)
		}
		defer in.Close()

		ix := indexer.New(embedder, store, log, indexer.Options{Limit: limit})

		return ix.Run(ctx, in)
	}
}

// startRecrawl schedules a recurring crawl of the configured base URL when a
// cron schedule is set. Returns nil when no schedule is configured.
func startRecrawl(
	ctx context.Context,
	cfg *config.Config,
	crawl func(ctx context.Context, url string) (int, error),
	log logger.Interface,
) (*cron.Cron, error) {
	if cfg.Server.RecrawlSchedule == "" {
		return nil, nil
	}

	scheduler := cron.New()

	_, err := scheduler.AddFunc(cfg.Server.RecrawlSchedule, func() {
		written, crawlErr := crawl(ctx, cfg.Crawler.BaseURL)
		if crawlErr != nil {
			log.Error("Scheduled recrawl failed", "error", crawlErr)
			return
		}

		log.Info("Scheduled recrawl complete", "written", written)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid recrawl schedule %q: %w", cfg.Server.RecrawlSchedule, err)
	}

	scheduler.Start()
	log.Info("Recrawl scheduled", "schedule", cfg.Server.RecrawlSchedule)

	return scheduler, nil
}
