// Package api provides rest-like server for search and download requests
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-pkgz/lcw/v2"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"

	"github.com/umputun/tube-relay/app/delivery"
	"github.com/umputun/tube-relay/app/extractor"
)

//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor
//go:generate moq -out mocks/delivery.go -pkg mocks -skip-ensure -fmt goimports . Delivery

const serviceName = "tube-relay"

// Server provides HTTP API
type Server struct {
	Version       string
	Extractor     Extractor
	Delivery      Delivery
	DefaultLimit  int           // search results if limit not requested
	MaxLimit      int           // upper bound for requested limit
	AwaitDelivery bool          // wait for delivery before responding to download, can be requested per call
	CacheTTL      time.Duration // search results cache, 0 disables caching

	httpServer *http.Server
	cache      lcw.LoadingCache[[]extractor.Track]
}

// Extractor searches tracks and downloads transcoded audio
type Extractor interface {
	Search(ctx context.Context, query string, limit int) ([]extractor.Track, error)
	Download(ctx context.Context, link string) (extractor.Download, error)
}

// Delivery accepts files for delivery to users
type Delivery interface {
	Submit(ctx context.Context, job delivery.Job) (*delivery.Ticket, error)
	Stats() delivery.Stats
}

// Run starts http server for API with all routes, blocks until ctx is done
func (s *Server) Run(ctx context.Context, port int) {
	log.Printf("[INFO] starting server on port %d", port)
	// no write timeout, download requests last as long as the extractor works
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http server shutdown, %v", err)
		}
	}()

	err := s.httpServer.ListenAndServe()
	log.Printf("[WARN] http server terminated, %s", err)
}

func (s *Server) router() http.Handler {
	if s.cache == nil {
		s.cache = s.makeCache()
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP, recoverer)
	router.Use(rest.AppInfo(serviceName, "umputun", s.Version), rest.Ping)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Group(func(r chi.Router) {
		l := logger.New(logger.Log(log.Default()), logger.Prefix("[INFO]"))
		r.Use(l.Handler)
		r.Get("/search", s.searchCtrl)
		r.Post("/download", s.downloadCtrl)
	})

	router.Get("/health", s.healthCtrl)
	return router
}

func (s *Server) makeCache() lcw.LoadingCache[[]extractor.Track] {
	if s.CacheTTL <= 0 {
		return lcw.NewNopCache[[]extractor.Track]()
	}
	o := lcw.NewOpts[[]extractor.Track]()
	cache, err := lcw.NewExpirableCache(o.TTL(s.CacheTTL), o.MaxKeys(1000))
	if err != nil {
		log.Printf("[WARN] can't make search cache, caching disabled: %v", err)
		return lcw.NewNopCache[[]extractor.Track]()
	}
	return cache
}

// GET /search?q=<text|link>&limit=<n> - returns list of tracks
func (s *Server) searchCtrl(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		sendError(w, r, http.StatusBadRequest, ErrCodeMissingInput, errors.New("empty q"), "query parameter q is required")
		return
	}

	limit, err := s.limit(r.URL.Query().Get("limit"))
	if err != nil {
		sendError(w, r, http.StatusBadRequest, ErrCodeInvalidInput, err, "limit should be a number")
		return
	}

	key := strconv.Itoa(limit) + ":" + query
	tracks, err := s.cache.Get(key, func() ([]extractor.Track, error) {
		return s.Extractor.Search(r.Context(), query, limit)
	})
	if err != nil {
		sendError(w, r, http.StatusInternalServerError, ErrCodeExtractFailed, err, "search failed")
		return
	}
	if tracks == nil {
		tracks = []extractor.Track{}
	}
	render.JSON(w, r, tracks)
}

// GET /health - always active, doesn't check extractor or telegram
func (s *Server) healthCtrl(w http.ResponseWriter, r *http.Request) {
	resp := rest.JSON{"status": "active", "service": serviceName, "version": s.Version}
	if s.Delivery != nil {
		resp["delivery"] = s.Delivery.Stats()
	}
	render.JSON(w, r, resp)
}

// limit parses requested limit and clamps it to [1, MaxLimit]
func (s *Server) limit(val string) (int, error) {
	res := s.DefaultLimit
	if res < 1 {
		res = 1
	}
	if val != "" {
		v, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("bad limit %q: %w", val, err)
		}
		res = v
	}
	if res < 1 {
		res = 1
	}
	if s.MaxLimit > 0 && res > s.MaxLimit {
		res = s.MaxLimit
	}
	return res, nil
}
