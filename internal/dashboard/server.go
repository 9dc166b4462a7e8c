// Package dashboard serves the web front end: an HTML leaderboard page and a
// small JSON API over the same aggregation pipeline the Telegram bot uses.
// Responses are served from a short-lived snapshot cache so page refreshes do
// not translate into Kalshi API traffic.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jlow/kalshipulse/internal/logger"
	"github.com/jlow/kalshipulse/internal/models"
)

const (
	defaultLimit = 5
	maxLimit     = 20
)

// EventProvider supplies ranked events for a category. Satisfied by
// markets.Service.
type EventProvider interface {
	TopEventsByCategory(ctx context.Context, category string, topN int, sortBy string) ([]models.Event, error)
}

// Options configures the dashboard server.
type Options struct {
	ListenAddr string
	CacheTTL   time.Duration
	Categories []string
}

// Server is the dashboard HTTP server.
type Server struct {
	router   *gin.Engine
	provider EventProvider
	cache    *snapshotCache
	opts     Options
}

// New builds a Server with its routes and middleware wired up.
func New(provider EventProvider, opts Options) *Server {
	if len(opts.Categories) == 0 {
		opts.Categories = []string{"Politics", "Economics"}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())
	router.SetHTMLTemplate(template.Must(template.New("index").Parse(indexTemplate)))

	s := &Server{
		router:   router,
		provider: provider,
		cache:    newSnapshotCache(opts.CacheTTL),
		opts:     opts,
	}

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealthz)
	router.GET("/api/events", s.handleEvents)

	return s
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Dashboard listening on %s", s.opts.ListenAddr)

	select {
	case <-ctx.Done():
		logger.Info("Dashboard shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server: %w", err)
	}
}

// requestID tags every request with a UUID, echoed in the X-Request-ID
// response header for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per request with status and latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("%s %s -> %d (%s) request_id=%s",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.GetString("request_id"))
	}
}

// queryParams extracts and validates the common leaderboard query parameters.
func (s *Server) queryParams(c *gin.Context) (category string, limit int, sortBy string, err error) {
	category = c.DefaultQuery("category", s.opts.Categories[0])

	sortBy = c.DefaultQuery("sort", models.SortByVolume)
	if !models.ValidSortKey(sortBy) {
		return "", 0, "", fmt.Errorf("unknown sort key %q", sortBy)
	}

	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, convErr := strconv.Atoi(limitStr)
	if convErr != nil || limit < 1 || limit > maxLimit {
		return "", 0, "", fmt.Errorf("limit must be an integer in [1,%d]", maxLimit)
	}

	return category, limit, sortBy, nil
}

// snapshot returns the cached leaderboard for the given key, building it
// through the provider on a miss.
func (s *Server) snapshot(ctx context.Context, category string, limit int, sortBy string) (cacheEntry, error) {
	key := cacheKey{category: category, limit: limit, sortBy: sortBy}
	if entry, ok := s.cache.get(key); ok {
		return entry, nil
	}

	events, err := s.provider.TopEventsByCategory(ctx, category, limit, sortBy)
	if err != nil {
		return cacheEntry{}, err
	}
	return s.cache.put(key, events), nil
}

func (s *Server) handleIndex(c *gin.Context) {
	category, limit, sortBy, err := s.queryParams(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.snapshot(c.Request.Context(), category, limit, sortBy)
	if err != nil {
		logger.Error("Failed to build leaderboard for %s: %v", category, err)
		c.HTML(http.StatusBadGateway, "index", gin.H{
			"Category":   category,
			"Categories": s.opts.Categories,
			"Sort":       sortBy,
			"Error":      "Market data is temporarily unavailable. Please refresh in a moment.",
		})
		return
	}

	c.HTML(http.StatusOK, "index", gin.H{
		"Category":   category,
		"Categories": s.opts.Categories,
		"Sort":       sortBy,
		"Events":     entry.events,
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	category, limit, sortBy, err := s.queryParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := s.snapshot(c.Request.Context(), category, limit, sortBy)
	if err != nil {
		logger.Error("Failed to build leaderboard for %s: %v", category, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":   category,
		"sort":       sortBy,
		"count":      len(entry.events),
		"fetched_at": entry.fetchedAt.UTC().Format(time.RFC3339),
		"events":     entry.events,
	})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
