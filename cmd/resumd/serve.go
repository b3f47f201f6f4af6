package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/hints"
	"github.com/alnah/go-resumd/internal/server"
	"github.com/alnah/go-resumd/internal/store"
	"github.com/alnah/go-resumd/internal/watch"
)

// runServe runs the editor server until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: serve takes no arguments", ErrUsage)
	}

	envCfg := loadEnvConfig()
	log := newLogger(env.Stderr, resolveLogLevel(flags.common, envCfg.LogLevel, env.Stderr))

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeServeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setMaxProcs(log)

	loader, err := env.assetLoader(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	page, err := pageSettings(cfg.Preview.Page)
	if err != nil {
		return err
	}
	zoomOpts := resumd.ZoomOptions{
		Initial:     cfg.Zoom.Initial,
		Min:         cfg.Zoom.Min,
		Max:         cfg.Zoom.Max,
		WheelFactor: cfg.Zoom.WheelFactor,
	}
	if err := zoomOpts.Validate(); err != nil {
		return err
	}
	renderTimeout := cfg.Preview.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = resumd.DefaultRenderTimeout
	}

	st, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer closeLogged(log, "store", st.Close)

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrListen, err, hints.ForAddressInUse())
	}
	defer func() { _ = ln.Close() }()

	realm := resumd.NewRodRealm(resumd.RodRealmOptions{
		EngineURL: cfg.Preview.EngineURL,
		HostURL:   localURL(ln.Addr(), server.RealmPath),
		Logger:    &log,
	})
	sched := resumd.NewScheduler(realm,
		resumd.WithRenderTimeout(renderTimeout),
		resumd.WithPageSettings(page),
		resumd.WithSchedulerLogger(log),
	)
	zoom := resumd.NewZoom(zoomOpts)
	conv := resumd.NewConverter(converterOptions(cfg.Preview, cfg.Watch.Dir, server.FilesPath)...)
	sess := resumd.NewSession(conv, sched, zoom,
		resumd.WithSessionLogger(log),
		resumd.WithFitInterval(cfg.Preview.PollInterval),
	)
	defer closeLogged(log, "preview session", sess.Close)

	pool := resumd.NewExporterPool(resumd.ResolvePoolSize(cfg.Export.Workers), cfg.Export.Timeout)
	defer closeLogged(log, "exporter pool", pool.Close)
	log.Debug().Int("workers", pool.Size()).Msg("PDF exporter pool sized")

	srv, err := server.New(server.Config{
		RateLimit:     cfg.Server.RateLimit,
		Burst:         cfg.Server.Burst,
		EngineURL:     cfg.Preview.EngineURL,
		AssetDir:      cfg.Watch.Dir,
		Page:          page,
		ExportTimeout: cfg.Export.Timeout,
		InitialZoom:   zoom.Percent(),
		SaveDelay:     store.DefaultSaveDelay,
		Logger:        log,
	}, server.Deps{
		Session:   sess,
		Shortcuts: resumd.NewShortcuts(zoom, resumd.WithRequireModifier(cfg.Zoom.RequireModifier)),
		Exporter:  pool,
		Store:     st,
		Assets:    loader,
	})
	if err != nil {
		return err
	}
	defer closeLogged(log, "server", srv.Close)

	var watcher *watch.Watcher
	if cfg.Watch.Dir != "" {
		watcher, err = watch.New(watch.Config{
			Dir:      cfg.Watch.Dir,
			Markdown: cfg.Watch.Markdown,
			CSS:      cfg.Watch.CSS,
			Debounce: cfg.Watch.Debounce,
			Logger:   log,
		}, func(f watch.Files) {
			if err := srv.ApplyDocument(ctx, resumd.Document{Markdown: f.Markdown, CSS: f.CSS}); err != nil {
				log.Warn().Err(err).Msg("applying watched files failed")
			}
		})
		if err != nil {
			return err
		}
	}

	doc, source, err := initialDocument(ctx, env, cfg, flags, st, loader, watcher, log)
	if err != nil {
		return err
	}
	if err := srv.ApplyDocument(ctx, doc); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("initial document not rendered")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, ln) })
	sess.Start(gctx)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	log.Info().Str("source", source).Msg("document loaded")
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "resumd editor at %s\n", localURL(ln.Addr(), "/"))
	}
	return g.Wait()
}

// mergeServeFlags applies serve flags over the config.
func mergeServeFlags(f *serveFlags, cfg *config.Config) error {
	mergePageFlags(f.page, &cfg.Preview.Page)
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{f.host, &cfg.Server.Host},
		{f.storage, &cfg.Storage.Path},
		{f.engineURL, &cfg.Preview.EngineURL},
		{f.watchDir, &cfg.Watch.Dir},
		{f.assetPath, &cfg.Assets.BasePath},
	} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.workers != 0 {
		cfg.Export.Workers = f.workers
	}
	if f.sanitize {
		cfg.Preview.Sanitize = true
	}

	timeout, err := parseDurationFlag("render-timeout", f.renderTimeout)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Preview.RenderTimeout = timeout
	}
	return nil
}

// initialDocument picks the document the editor opens with, by priority:
// explicit starter, watched files, GitHub, stored document, default starter.
// It also reports where the document came from.
func initialDocument(ctx context.Context, env *Environment, cfg *config.Config, f *serveFlags,
	st *store.Store, loader assets.AssetLoader, w *watch.Watcher, log zerolog.Logger,
) (resumd.Document, string, error) {
	if f.starter != "" {
		s, err := loadStarter(loader, f.starter)
		if err != nil {
			return resumd.Document{}, "", err
		}
		return resumd.Document{Markdown: s.Markdown, CSS: s.CSS}, "starter " + s.Name, nil
	}

	if w != nil {
		files, err := w.Read()
		if err == nil {
			return resumd.Document{Markdown: files.Markdown, CSS: files.CSS}, "watch " + cfg.Watch.Dir, nil
		}
		log.Warn().Err(err).Str("dir", cfg.Watch.Dir).Msg("watched files unreadable, falling back")
	}

	if f.fromGitHub {
		files, err := fetchFromGitHub(ctx, env, cfg.GitHub)
		if err != nil {
			return resumd.Document{}, "", err
		}
		return resumd.Document{Markdown: files.Markdown, CSS: files.CSS}, "github " + cfg.GitHub.Owner + "/" + cfg.GitHub.Repo, nil
	}

	stored, err := st.LoadDocument(ctx)
	switch {
	case err == nil:
		return resumd.Document{Markdown: stored.Markdown, CSS: stored.CSS}, "store", nil
	case !errors.Is(err, store.ErrNotStored):
		return resumd.Document{}, "", err
	}

	s, err := loadStarter(loader, "")
	if err != nil {
		return resumd.Document{}, "", err
	}
	return resumd.Document{Markdown: s.Markdown, CSS: s.CSS}, "starter " + s.Name, nil
}

// localURL returns an http URL for path on addr. Wildcard listen addresses
// are reached through loopback.
func localURL(addr net.Addr, path string) string {
	host, port := "127.0.0.1", "0"
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
		if tcp.IP != nil && !tcp.IP.IsUnspecified() {
			host = tcp.IP.String()
		}
	}
	return "http://" + net.JoinHostPort(host, port) + path
}

func closeLogged(log zerolog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn().Err(err).Msgf("closing %s failed", what)
	}
}
