// Package server exposes content listings and run history as a JSON API.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/runlog"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

const shutdownTimeout = 10 * time.Second

// Content is the CMS surface the API reads from; *wordpress.Client implements it.
type Content interface {
	browse.PostSource
	browse.ProjectSource
	GetPost(ctx context.Context, identifier string, bySlug bool) (*wordpress.Post, error)
	GetProject(ctx context.Context, identifier string, bySlug bool) (*wordpress.Project, error)
	ListTags(ctx context.Context, perPage int) ([]wordpress.Term, error)
}

// Server wires the gin engine to the content client, the project catalog
// and, when configured, the run log and metrics registry.
type Server struct {
	content   Content
	catalog   *browse.ProjectCatalog
	runs      runlog.Store
	registry  *prom.Registry
	staticDir string
	logger    *slog.Logger
	engine    *gin.Engine
	now       func() time.Time

	// Categories for the post listing, shared across requests.
	categoriesMu sync.Mutex
	categories   []wordpress.Term
	categoriesAt time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithRunLog(store runlog.Store) Option {
	return func(s *Server) { s.runs = store }
}

func WithRegistry(reg *prom.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithStaticDir serves sitemap.xml and robots.txt from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the server and its routes.
func New(content Content, catalog *browse.ProjectCatalog, opts ...Option) *Server {
	s := &Server{
		content: content,
		catalog: catalog,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = browse.NewProjectCatalog(content, browse.WithCatalogLogger(s.logger))
	}
	s.engine = s.routes()
	return s
}

// cachedCategories returns the shared category list, or nil when it has
// not been loaded or is older than browse.DefaultCatalogMaxAge.
func (s *Server) cachedCategories() []wordpress.Term {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	if s.categories == nil || s.now().Sub(s.categoriesAt) >= browse.DefaultCatalogMaxAge {
		return nil
	}
	return s.categories
}

func (s *Server) storeCategories(terms []wordpress.Term) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	s.categories = terms
	s.categoriesAt = s.now()
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogging(s.logger), panicRecovery(s.logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.HTTPHandler(s.registry)))
	}
	if s.staticDir != "" {
		r.StaticFile("/"+sitemap.SitemapFile, filepath.Join(s.staticDir, sitemap.SitemapFile))
		r.StaticFile("/"+sitemap.RobotsFile, filepath.Join(s.staticDir, sitemap.RobotsFile))
	}

	api := r.Group("/api")
	{
		api.GET("/posts", s.listPosts)
		api.GET("/posts/:slug", s.getPost)
		api.GET("/categories", s.listCategories)
		api.GET("/tags", s.listTags)
		api.GET("/projects", s.listProjects)
		api.GET("/projects/:slug", s.getProject)
		api.GET("/runs", s.listRuns)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
