package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/hnsearch/pkg/api"
	"github.com/rubiojr/hnsearch/pkg/config"
	"github.com/rubiojr/hnsearch/pkg/log"
	"github.com/rubiojr/hnsearch/pkg/search"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/version"
	"github.com/rubiojr/hnsearch/pkg/views"
)

const sessionReapInterval = 5 * time.Minute

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides config)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "Drop sessions idle for longer than this",
				Value: 24 * time.Hour,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, webOptions{
				configPath: c.String("config"),
				host:       c.String("host"),
				port:       c.String("port"),
				sessionTTL: c.Duration("session-ttl"),
			})
		},
	}
}

type webOptions struct {
	configPath string
	host       string
	port       string
	sessionTTL time.Duration
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	sessions  *session.Manager
	apiServer *api.Server
	logger    *log.Logger
}

func NewWebServer(sessions *session.Manager) *WebServer {
	return &WebServer{
		sessions:  sessions,
		apiServer: api.NewServer(sessions),
		logger:    log.ForService("web"),
	}
}

// Handler returns the complete HTTP handler: UI, API, WebSocket and
// metrics. Everything but the WebSocket is gzip-compressed.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.apiServer.RegisterRoutes(mux)

	// Web UI routes
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST "+views.SearchAction, s.handleSearch)
	mux.HandleFunc("POST "+views.MoreAction, s.handleMore)
	mux.HandleFunc("POST "+views.DismissAction, s.handleDismiss)

	mux.Handle("GET /metrics", promhttp.Handler())

	root := http.NewServeMux()
	s.apiServer.RegisterSocketRoute(root)
	root.Handle("/", gzhttp.GzipHandler(mux))

	return api.CorsMiddleware(root)
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, opts webOptions) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.host != "" {
		cfg.Web.Host = opts.host
	}
	if opts.port != "" {
		cfg.Web.Port = opts.port
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(ctx, client, cfg.DefaultQuery)
	defer sessions.Close()

	webServer := NewWebServer(sessions)
	server := &http.Server{
		Addr:    cfg.Web.Addr(),
		Handler: webServer.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		webServer.logger.Infof("Starting web server on http://%s", server.Addr)
		webServer.logger.Infof("Available endpoints:")
		webServer.logger.Infof("  Web UI:")
		webServer.logger.Infof("    GET / - Search page for the current session")
		webServer.logger.Infof("    POST /search, /more, /dismiss - Form actions")
		webServer.logger.Infof("  API:")
		webServer.logger.Infof("    GET /api/session - Current session snapshot")
		webServer.logger.Infof("    POST /api/search - Submit a query")
		webServer.logger.Infof("    POST /api/more - Load the next page")
		webServer.logger.Infof("    POST /api/dismiss/{id} - Dismiss a hit")
		webServer.logger.Infof("    GET /api/ws - Snapshot stream (WebSocket)")
		webServer.logger.Infof("    GET /health - Health check")
		webServer.logger.Infof("    GET /metrics - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		webServer.logger.Infof("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		reapSessions(gctx, sessions, opts.sessionTTL)
		return nil
	})

	g.Go(func() error {
		watchConfig(gctx, opts.configPath, sessions)
		return nil
	})

	return g.Wait()
}

func reapSessions(ctx context.Context, sessions *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(sessionReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Reap(ttl)
		}
	}
}

// watchConfig reloads the configuration whenever the file changes. New
// sessions pick up the reloaded API settings; the listen address only
// changes on restart.
func watchConfig(ctx context.Context, configPath string, sessions *session.Manager) {
	logger := log.ForService("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
		return
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf("failed to close config file watcher: %v", err)
		}
	}()

	if err := watcher.Add(configPath); err != nil {
		logger.Warnf("failed to watch config file %s: %v", configPath, err)
		return
	}
	logger.Infof("Watching config file for changes: %s", configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Editors often replace the file instead of writing it in place.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Infof("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())

			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}

			if err := reloadConfiguration(configPath, sessions); err != nil {
				logger.Errorf("Failed to reload configuration: %v", err)
			} else {
				logger.Infof("Configuration reloaded successfully")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("Config file watcher error: %v", err)
		}
	}
}

func reloadConfiguration(configPath string, sessions *session.Manager) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading new config: %w", err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	sessions.Configure(client, cfg.DefaultQuery)
	return nil
}

// Web UI Handlers

// handleHome renders the caller's session
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.FromRequest(w, r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusServiceUnavailable)
		return
	}

	data := views.PageData{
		Title:      "hnsearch",
		Snapshot:   sess.Controller.Snapshot(),
		Version:    version.APIVersion(),
		SocketPath: "/api/ws",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Page(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleSearch applies the submitted text as the draft term and commits it
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctrl *search.Controller) error {
		if err := ctrl.InputChange(r.Context(), r.FormValue("q")); err != nil {
			return err
		}
		return ctrl.Submit(r.Context())
	})
}

func (s *WebServer) handleMore(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctrl *search.Controller) error {
		return ctrl.LoadMore(r.Context())
	})
}

func (s *WebServer) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctrl *search.Controller) error {
		err := ctrl.Dismiss(r.Context(), r.FormValue("id"))
		if errors.Is(err, search.ErrInvalidState) {
			// Stale page from an expired session; nothing to remove.
			s.logger.Debugf("ignoring dismiss: %v", err)
			return nil
		}
		return err
	})
}

// withSession runs op against the caller's session and sends the browser
// back to the results page.
func (s *WebServer) withSession(w http.ResponseWriter, r *http.Request, op func(*search.Controller) error) {
	_, err := s.sessions.Do(w, r, func(sess *session.Session) error {
		return op(sess.Controller)
	})
	switch {
	case errors.Is(err, session.ErrClosed), errors.Is(err, search.ErrStopped):
		s.logger.Warnf("session unavailable: %v", err)
		http.Error(w, "Session unavailable, please reload the page", http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
