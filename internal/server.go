package internal

import (
	"context"
	"fmt"
	"net/http"

	"item-catalog/internal/auth"
	"item-catalog/internal/config"
	"item-catalog/internal/handlers"
	"item-catalog/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Server struct {
	Store      store.ItemStore
	Router     *chi.Mux
	Renderer   Renderer
	Metrics    *Metrics
	Logger     *zap.Logger
	JWTManager *auth.JWTManager

	// ImportMapping is the YAML column mapping for Excel imports; empty
	// uses the built-in mapping.
	ImportMapping string
}

func NewServer(st store.ItemStore, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		Store:    st,
		Router:   chi.NewRouter(),
		Renderer: renderer,
		Metrics:  NewMetrics(),
		Logger:   logger.Named("http"),

		ImportMapping: cfg.ImportMapping,
	}

	if cfg.AuthEnabled {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
		if err := jwtManager.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("jwt configuration: %w", err)
		}
		s.JWTManager = jwtManager
	}

	// chi requires every middleware to be registered before the first route.
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(RequestLogger(s.Logger))
	s.Router.Use(middleware.Recoverer)
	if cfg.RateLimitRPS > 0 {
		s.Router.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)))
	}
	if cfg.EnableMetrics {
		if err := s.Metrics.WatchItems(st); err != nil {
			return nil, fmt.Errorf("register item gauge: %w", err)
		}
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.Store.Count(r.Context()); err != nil {
			s.serverError(w, r, err)
			return
		}
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	s.mountHTMLRoutes(s.Router)
	s.Router.Route("/api", s.mountAPIRoutes)

	return s, nil
}

// Close releases the item store.
func (s *Server) Close(ctx context.Context) error {
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}

// writeGuard protects mutating routes. It is a no-op when auth is disabled.
func (s *Server) writeGuard() func(http.Handler) http.Handler {
	return auth.RequireRole(s.JWTManager, auth.RoleEditor)
}

func (s *Server) mountHTMLRoutes(r chi.Router) {
	list := mustURLFor(RouteItemList)
	r.Get("/", redirectTo(list))
	r.Get("/items", redirectTo(list))

	r.Get(routePatterns[RouteItemList], s.itemListView)

	r.Get(routePatterns[RouteItemCreate], s.itemCreateView)
	r.With(s.writeGuard()).Post(routePatterns[RouteItemCreate], s.itemCreateView)

	r.Get(routePatterns[RouteItemUpdate], s.itemUpdateView)
	r.With(s.writeGuard()).Post(routePatterns[RouteItemUpdate], s.itemUpdateView)

	r.Get(routePatterns[RouteItemDelete], s.itemDeleteView)
	r.With(s.writeGuard()).Post(routePatterns[RouteItemDelete], s.itemDeleteView)
}

func (s *Server) mountAPIRoutes(r chi.Router) {
	r.Get("/items", s.listItems)
	r.Get("/items/{id}", s.getItem)

	r.Group(func(r chi.Router) {
		r.Use(s.writeGuard())
		r.Post("/items", s.createItem)
		r.Put("/items/{id}", s.updateItem)
		r.Delete("/items/{id}", s.deleteItem)

		importsHandler := handlers.NewImportsHandler(s.Store, s.Logger)
		importsHandler.MappingPath = s.ImportMapping
		r.Post("/imports/excel", importsHandler.UploadExcel)
	})
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// serverError logs err and replies 500 without leaking details.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.Logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
