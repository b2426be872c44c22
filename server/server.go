// Package server exposes the linker over HTTP.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/siherrmann/linker/core/digest"
	"github.com/siherrmann/linker/core/graph"
	"github.com/siherrmann/linker/model"
)

// Store is the subset of the linker facade the API serves.
type Store interface {
	Search(query string, config model.SearchConfig) ([]*model.SearchResult, error)
	Stats(detailed bool) (*model.Stats, error)
	RelatedEntities(ctx context.Context, entityKey string, maxHops int) ([]*graph.RelatedEntity, error)
	GenerateDigest(ctx context.Context, opts digest.Options) (*digest.Digest, error)
	Ping() error
}

// Config holds server settings.
type Config struct {
	// Addr is the listen address, for example ":8080".
	Addr string
}

// Server serves the linker HTTP API.
type Server struct {
	store  Store
	config Config
	router *gin.Engine
	log    *slog.Logger
}

// New creates a server with all routes registered.
func New(store Store, config Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		store:  store,
		config: config,
		router: gin.New(),
		log:    slog.Default(),
	}

	server.router.Use(gin.Recovery())
	server.router.Use(corsMiddleware())
	server.registerRoutes()

	return server
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/search", s.handleSearch)
		v1.GET("/stats", s.handleStats)
		v1.GET("/digest", s.handleDigest)
		v1.GET("/entities/:key/related", s.handleRelatedEntities)
	}
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	addr := s.config.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.log.Info("starting api server", slog.String("addr", addr))
	return s.router.Run(addr)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type searchRequest struct {
	Query         string  `json:"query"`
	Limit         int     `json:"limit"`
	MinSimilarity float64 `json:"min_similarity"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var request searchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if request.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	config := model.DefaultSearchConfig()
	if request.Limit > 0 {
		config.Limit = request.Limit
	}
	if request.MinSimilarity > 0 {
		config.MinSimilarity = request.MinSimilarity
	}

	results, err := s.store.Search(request.Query, config)
	if err != nil {
		s.log.Error("search failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed: " + err.Error()})
		return
	}
	if results == nil {
		results = []*model.SearchResult{}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   request.Query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	detailed := c.Query("detailed") == "true"

	stats, err := s.store.Stats(detailed)
	if err != nil {
		s.log.Error("stats failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDigest(c *gin.Context) {
	days, err := intQuery(c, "days", digest.DefaultWindowDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "markdown" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or markdown"})
		return
	}

	result, err := s.store.GenerateDigest(c.Request.Context(), digest.Options{WindowDays: days})
	if err != nil {
		s.log.Error("digest failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest failed: " + err.Error()})
		return
	}

	if format == "markdown" {
		c.String(http.StatusOK, result.RenderMarkdown())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRelatedEntities(c *gin.Context) {
	key := c.Param("key")

	depth, err := intQuery(c, "depth", 2)
	if err != nil || depth < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid depth parameter"})
		return
	}

	related, err := s.store.RelatedEntities(c.Request.Context(), key, depth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entity not found: " + key})
			return
		}
		s.log.Error("related entities failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "related entities failed: " + err.Error()})
		return
	}
	if related == nil {
		related = []*graph.RelatedEntity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_key": key,
		"depth":      depth,
		"related":    related,
	})
}

// handleHealth reports liveness. A failing database ping degrades the
// status but keeps the endpoint at 200 so load balancers see the
// process itself as up.
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	database := "connected"
	if err := s.store.Ping(); err != nil {
		status = "degraded"
		database = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"database": database,
	})
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	value := c.Query(name)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
