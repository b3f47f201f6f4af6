// Package server serves the resume editor: the editor page and its static
// files, the WebSocket that streams edits in and pages out, the realm host
// document for the pagination browser, and the export endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/store"
)

// Route prefixes.
const (
	RealmPath  = "/realm"
	FilesPath  = "/files/"
	StaticPath = "/static/"
	SocketPath = "/ws"
)

// shutdownTimeout bounds graceful shutdown of open requests.
const shutdownTimeout = 5 * time.Second

// Sentinel errors for server setup.
var (
	ErrMissingDependency = errors.New("server dependency missing")
)

// PDFRenderer prints a standalone HTML document to PDF.
// *resumd.ExporterPool satisfies it.
type PDFRenderer interface {
	Render(ctx context.Context, document string) ([]byte, error)
}

// Config holds server settings.
type Config struct {
	RateLimit     float64 // edits and export requests per second; <= 0 disables
	Burst         int
	EngineURL     string                // served in the realm host document
	AssetDir      string                // served under FilesPath; empty disables
	Page          *resumd.PageSettings  // baseline @page rule for exports
	ExportTimeout time.Duration         // bounds one PDF export
	InitialZoom   int                   // zoom "reset" target
	SaveDelay     time.Duration         // debounce before edits are stored
	Logger        zerolog.Logger
}

// Deps are the collaborators a Server drives.
type Deps struct {
	Session   *resumd.Session
	Shortcuts *resumd.Shortcuts
	Exporter  PDFRenderer       // nil disables PDF export
	Store     *store.Store
	Assets    assets.AssetLoader
}

// Server is the editor HTTP server. One Server edits one document.
type Server struct {
	cfg     Config
	deps    Deps
	log     zerolog.Logger
	hub     *hub
	limiter *rateLimiter
	saver   *store.Saver
	decoder *decoder

	editorPage string
	hostPage   string
	printPage  string

	upgrader websocket.Upgrader
	handler  http.Handler

	mu     sync.Mutex
	unsubs []func()
}

// New creates a Server and subscribes it to the session's events.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Session == nil || deps.Shortcuts == nil || deps.Store == nil || deps.Assets == nil {
		return nil, ErrMissingDependency
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = resumd.DefaultExportTimeout
	}
	if cfg.InitialZoom <= 0 {
		cfg.InitialZoom = resumd.DefaultZoom
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		log:     cfg.Logger,
		hub:     newHub(cfg.Logger),
		limiter: newRateLimiter(cfg.RateLimit, cfg.Burst),
		saver:   store.NewSaver(deps.Store, cfg.SaveDelay, cfg.Logger),
		decoder: newDecoder(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}

	var err error
	if s.editorPage, err = deps.Assets.LoadTemplate(assets.EditorTemplate); err != nil {
		return nil, fmt.Errorf("loading editor page: %w", err)
	}
	if s.hostPage, err = deps.Assets.LoadTemplate(assets.HostTemplate); err != nil {
		return nil, fmt.Errorf("loading realm host page: %w", err)
	}
	if s.printPage, err = deps.Assets.LoadTemplate(assets.PrintTemplate); err != nil {
		return nil, fmt.Errorf("loading print template: %w", err)
	}

	s.handler = accessLog(s.log, s.routes())
	s.subscribe()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleEditor)
	mux.Handle("GET "+StaticPath, http.StripPrefix(StaticPath, http.FileServerFS(assets.Static())))
	mux.HandleFunc("GET "+RealmPath, s.handleRealm)
	mux.HandleFunc("GET "+SocketPath, s.handleSocket)
	mux.Handle("GET /export/pdf", s.limiter.middleware(http.HandlerFunc(s.handlePDF)))
	mux.Handle("GET /export/zip", s.limiter.middleware(http.HandlerFunc(s.handleZIP)))
	if s.cfg.AssetDir != "" {
		mux.Handle("GET "+FilesPath, http.StripPrefix(FilesPath, http.FileServer(http.Dir(s.cfg.AssetDir))))
	}
	return mux
}

// subscribe forwards scheduler, zoom and metadata events to active clients.
func (s *Server) subscribe() {
	sess := s.deps.Session
	sched := sess.Scheduler()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubs = append(s.unsubs,
		sched.Subscribe(func(f resumd.Frame) {
			s.hub.broadcastFrame(f)
		}),
		sched.OnFailure(func(f resumd.Failure) {
			s.hub.broadcast(statusOut{Type: outStatus, State: "error", RequestID: f.RequestID, Error: f.Err.Error()})
		}),
		sched.OnStateChange(func(st resumd.State) {
			s.hub.broadcast(s.statusMessage(st))
		}),
		sess.Zoom().Subscribe(func(p int) {
			s.hub.broadcast(zoomOut{Type: outZoom, Percent: p})
		}),
		sess.OnMetadata(func(m resumd.Metadata) {
			s.hub.broadcast(metadataMessage(m))
		}),
	)
}

func (s *Server) statusMessage(st resumd.State) statusOut {
	msg := statusOut{Type: outStatus, State: st.String()}
	if st == resumd.StateFailed {
		msg.Error = "preview unavailable: pagination engine failed to load"
	}
	return msg
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ApplyDocument feeds doc through the preview pipeline, stores it, and
// pushes it into the open editor. Watch mode and GitHub fetch use it.
func (s *Server) ApplyDocument(ctx context.Context, doc resumd.Document) error {
	if err := s.apply(ctx, doc); err != nil {
		return err
	}
	s.hub.broadcast(documentMessage(doc))
	return nil
}

// Run serves on ln until ctx is done, then shuts down gracefully and
// flushes the pending save.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("editor server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.limiter.sweep(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("editor server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.hub.closeAll()
		if ferr := s.saver.Flush(shutdownCtx); ferr != nil {
			s.log.Warn().Err(ferr).Msg("saving document on shutdown failed")
		}
		return err
	})
	return g.Wait()
}

// Close unsubscribes from session events and closes open connections.
func (s *Server) Close() error {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
	s.hub.closeAll()
	return s.saver.Flush(context.Background())
}

// sameOrigin accepts WebSocket handshakes from the page's own origin and
// from non-browser clients that send no Origin header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	return strings.EqualFold(host, r.Host)
}
