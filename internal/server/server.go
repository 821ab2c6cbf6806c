package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/database"
	"github.com/wtsks/propsync/internal/display"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/listing"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/pipeline"
	"github.com/wtsks/propsync/internal/shortcode"
	"github.com/wtsks/propsync/internal/synctool"
)

//go:embed templates/*.html
var templateFS embed.FS

// readHeaderTimeout bounds slow clients.
const readHeaderTimeout = 10 * time.Second

// Server is the admin HTTP server.
type Server struct {
	cfg      *config.Config
	store    *database.Store
	labels   *label.Cache
	tools    map[model.Kind]*synctool.Tool
	listings *listing.Service
	expander *shortcode.Expander
	display  *display.Processor
	nonces   *NonceService
	logger   *slog.Logger
	renderer shortcode.Renderer
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer sets the renderer for the delegate listings shortcode.
func WithRenderer(r shortcode.Renderer) Option {
	return func(s *Server) {
		s.renderer = r
	}
}

// New wires the server around store. cfg should already have passed
// ValidateServe.
func New(cfg *config.Config, store *database.Store, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		store:  store,
		tools:  make(map[model.Kind]*synctool.Tool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.labels = label.NewCache(label.LogConflicts(label.SourceLoader(store), s.logger), cfg.LabelCacheTTL)
	for _, kind := range model.Kinds() {
		s.tools[kind] = synctool.New(store, s.labels, cfg.Profile(kind),
			synctool.WithBatchSize(cfg.BatchSize),
			synctool.WithLogger(s.logger),
		)
	}
	s.listings = listing.NewService(store, pipeline.NewSaveHooks(cfg, s.labels, s.logger), cfg.FieldPrefix, s.logger)
	s.expander = shortcode.NewExpander(cfg.Shortcodes(), s.profiles(), shortcode.WithRenderer(s.renderer))
	s.display = display.NewProcessor(cfg.DisplayTemplate)
	s.nonces = NewNonceService(cfg.NonceSecret, cfg.NonceTTL)

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(s.logger))
	engine.SetHTMLTemplate(tmpl)
	s.engine = engine
	s.routes()

	return s, nil
}

func (s *Server) profiles() []config.Profile {
	kinds := model.Kinds()
	out := make([]config.Profile, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, s.cfg.Profile(kind))
	}
	return out
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	auth := BasicAuth(s.cfg.AdminUser, s.cfg.AdminPasswordHash)

	admin := s.engine.Group("/admin", auth)
	admin.GET("", s.adminIndex)
	admin.GET("/tools/:slug", s.toolPage)
	admin.POST("/tools/:slug", s.runTool)
	admin.GET("/listings/:id/edit", s.editListing)
	admin.POST("/listings/:id", s.saveListing)

	api := s.engine.Group("/api", auth)
	api.GET("/entities/:kind", s.listEntities)
	api.POST("/entities", s.saveEntity)
	api.DELETE("/entities/:id", s.deleteEntity)
	api.GET("/labels/:kind", s.getLabels)
	api.GET("/choices/:kind", s.getChoices)
	api.GET("/listings", s.listListings)
	api.GET("/listings/:id", s.getListing)
	api.POST("/listings", s.createListing)
	api.PUT("/listings/:id", s.updateListing)
	api.POST("/sync/:kind", s.runSync)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
	api.POST("/render", s.render)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Labels returns the server's label cache.
func (s *Server) Labels() *label.Cache {
	return s.labels
}

// Run listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. In-flight requests get
// cfg.ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("admin server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down admin server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
