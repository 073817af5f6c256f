package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

// LatestSource provides the most recently emitted snapshot.
type LatestSource interface {
	Snapshot() (model.StatsSnapshot, bool)
}

// HistoryStore is the narrow history contract required by the HTTP API.
type HistoryStore interface {
	model.HistoryReader
	GetSchemaDescription() string
	TableRowCounts() (map[string]int64, error)
}

// Server provides a read-only HTTP API over the running capture.
type Server struct {
	addr      string
	counters  model.CounterSource
	latest    LatestSource
	history   HistoryStore
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. history may be nil when the run
// keeps no window history.
func NewServer(addr string, counters model.CounterSource, latest LatestSource, history HistoryStore) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		counters: counters,
		latest:   latest,
		history:  history,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/latest", s.handleLatest)
	r.GET("/api/windows", s.handleWindows)
	r.GET("/api/hosts", s.handleHosts)
	r.GET("/api/schema", s.handleSchema)
	r.POST("/api/query", s.handleQuery)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if s.counters != nil {
		body["capture"] = s.counters.Counters()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleLatest(c *gin.Context) {
	if s.latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary emitted yet"})
		return
	}
	snapshot, ok := s.latest.Snapshot()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary emitted yet"})
		return
	}
	if snapshot.Hosts == nil {
		snapshot.Hosts = map[string]model.HostRecord{}
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) requireHistory(c *gin.Context) bool {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "window history is disabled"})
		return false
	}
	return true
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(model.DefaultHistoryLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return limit, true
}

func (s *Server) handleWindows(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	windows, err := s.history.Windows(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read window history"})
		return
	}
	if windows == nil {
		windows = []model.WindowSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

func (s *Server) handleHosts(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	totals, err := s.history.HostTotals(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read host totals"})
		return
	}
	if totals == nil {
		totals = []model.DimensionCount{}
	}
	c.JSON(http.StatusOK, gin.H{"hosts": totals})
}

func (s *Server) handleSchema(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	counts, err := s.history.TableRowCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read table row counts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"description": s.history.GetSchemaDescription(),
		"row_counts":  counts,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.history.ExecuteQuery(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}
