// Package api implements the HTTP API for the chatbot service.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/3bdelKhale2/Link-chatbot/internal/chat"
	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
	"github.com/3bdelKhale2/Link-chatbot/internal/indexer"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

const defaultSearchTopK = 5

// ChatResponder handles one chat turn.
type ChatResponder interface {
	Respond(ctx context.Context, sessionID, text string) chat.Reply
}

// TicketLister exposes booked tickets.
type TicketLister interface {
	List() []domain.Ticket
}

// Deps wires the route handlers to the application services. Crawl and Index
// are funcs rather than interfaces: each backs exactly one endpoint.
type Deps struct {
	Logger  logger.Interface
	Chat    ChatResponder
	Search  chat.RAGSearcher
	Tickets TicketLister
	Crawl   func(ctx context.Context, url string) (int, error)
	Index   func(ctx context.Context, path string, limit int) (indexer.Report, error)
	// UIDir serves static files under /ui when non-empty.
	UIDir string
}

// ChatRequest is the incoming chat message payload.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text" binding:"required"`
}

// CrawlRequest asks the service to crawl and persist articles from a URL.
type CrawlRequest struct {
	URL string `json:"url" binding:"required"`
}

// IndexRequest asks the service to index a prepared chunk corpus.
type IndexRequest struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(deps Deps) *gin.Engine {
	// Disable Gin's default logging
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(deps.Logger))
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/chat", handleChat(deps.Chat))
	router.POST("/crawl", handleCrawl(deps))
	router.POST("/index", handleIndex(deps))
	router.GET("/search", handleSearch(deps.Search))
	router.GET("/tickets", handleTickets(deps.Tickets))

	if deps.UIDir != "" {
		router.Static("/ui", deps.UIDir)
	}

	return router
}

func handleChat(responder ChatResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		c.JSON(http.StatusOK, responder.Respond(c.Request.Context(), req.SessionID, req.Text))
	}
}

func handleCrawl(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CrawlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		written, err := deps.Crawl(c.Request.Context(), req.URL)
		if err != nil {
			deps.Logger.Error("Crawl request failed", "url", req.URL, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Crawl failed"})

			return
		}

		c.JSON(http.StatusOK, gin.H{"written": written, "url": req.URL})
	}
}

func handleIndex(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IndexRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		report, err := deps.Index(c.Request.Context(), req.Path, req.Limit)
		if err != nil {
			deps.Logger.Error("Index request failed", "path", req.Path, "error", err)
			// Partial progress is still reported alongside the failure.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Indexing failed", "report": report})

			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func handleSearch(search chat.RAGSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
			return
		}

		topK := defaultSearchTopK
		if raw := c.Query("top_k"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				topK = parsed
			}
		}

		results := search.Search(c.Request.Context(), query, topK)
		if results == nil {
			results = []domain.SearchResult{}
		}

		c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
	}
}

func handleTickets(tickets TicketLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tickets": tickets.List()})
	}
}

// loggingMiddleware logs each HTTP request with latency and status.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// corsMiddleware adds CORS headers to allow frontend access.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
