package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/store"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// stubRealm lays every pass out as one page holding the HTML it was given.
type stubRealm struct {
	mu    sync.Mutex
	html  map[uint64]string
	shown uint64
}

func newStubRealm() *stubRealm { return &stubRealm{html: make(map[uint64]string)} }

func (r *stubRealm) Load(context.Context) error { return nil }

func (r *stubRealm) Paginate(_ context.Context, t resumd.Target, html, _ string) (resumd.Layout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.html[t.RequestID] = html
	return resumd.Layout{Pages: 1, Height: 1123}, nil
}

func (r *stubRealm) Show(_ context.Context, t resumd.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = t.RequestID
	return nil
}

func (r *stubRealm) Discard(_ context.Context, t resumd.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.html, t.RequestID)
	return nil
}

func (r *stubRealm) Snapshot(_ context.Context, t resumd.Target) (resumd.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return resumd.Snapshot{HTML: r.html[t.RequestID], Pages: 1, Height: 1123}, nil
}

func (r *stubRealm) Measure(context.Context, resumd.Target) (*resumd.PageGeometry, error) {
	return &resumd.PageGeometry{Width: 794, Height: 1123}, nil
}

func (r *stubRealm) Close() error { return nil }

// fakeExporter returns the document it was asked to print as the PDF body.
type fakeExporter struct {
	err error

	mu   sync.Mutex
	docs []string
}

func (f *fakeExporter) Render(_ context.Context, doc string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7\n" + doc), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	server  *Server
	http    *httptest.Server
	session *resumd.Session
	store   *store.Store
}

func newTestEnv(t *testing.T, cfg Config, exporter PDFRenderer, opts ...store.Option) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st, err := store.Open(ctx, "", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	zoom := resumd.NewZoom(resumd.ZoomOptions{})
	sess := resumd.NewSession(resumd.NewConverter(), resumd.NewScheduler(newStubRealm()), zoom)
	sess.Start(ctx)
	t.Cleanup(func() { _ = sess.Close() })

	cfg.Logger = zerolog.Nop()
	srv, err := New(cfg, Deps{
		Session:   sess,
		Shortcuts: resumd.NewShortcuts(zoom),
		Exporter:  exporter,
		Store:     st,
		Assets:    assets.NewEmbeddedLoader(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: srv, http: ts, session: sess, store: st}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + SocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// readUntil reads messages until one of type kind arrives and returns it.
func readUntil(t *testing.T, conn *websocket.Conn, kind string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q message", kind)

		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == kind {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func edit(t *testing.T, conn *websocket.Conn, markdown, css string) {
	t.Helper()
	send(t, conn, map[string]any{"type": "edit", "markdown": markdown, "css": css})
}

// ---------------------------------------------------------------------------
// HTTP routes
// ---------------------------------------------------------------------------

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestEditorPage(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	resp := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "/static/editor.js")
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	resp := env.get(t, "/static/editor.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/static/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRealmPage(t *testing.T) {
	env := newTestEnv(t, Config{EngineURL: "http://engine.test/paged.js"}, nil)

	resp := env.get(t, RealmPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http://engine.test/paged.js")
	assert.NotContains(t, string(body), "{{ENGINE_URL}}")
}

func TestFilesRoute(t *testing.T) {
	t.Run("disabled without asset dir", func(t *testing.T) {
		env := newTestEnv(t, Config{}, nil)
		resp := env.get(t, FilesPath+"photo.png")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("serves asset dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte("png"), 0o600))
		env := newTestEnv(t, Config{AssetDir: dir}, nil)

		resp := env.get(t, FilesPath+"photo.png")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "png", string(body))
	})
}

// ---------------------------------------------------------------------------
// WebSocket
// ---------------------------------------------------------------------------

func TestSocket_InitialState(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)

	doc := readUntil(t, conn, outDocument)
	assert.Equal(t, "", doc["markdown"])

	starters := readUntil(t, conn, outStarters)
	assert.Contains(t, starters["names"], assets.DefaultStarterName)

	zoom := readUntil(t, conn, outZoom)
	assert.EqualValues(t, resumd.DefaultZoom, zoom["percent"])
}

func TestSocket_EditProducesFrameAndMetadata(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	edit(t, conn, "---\ntitle: Jane Doe\n---\n# Jane", "h1{color:red}")

	frame := readUntil(t, conn, outFrame)
	assert.Contains(t, frame["html"], "<h1")
	assert.EqualValues(t, 1, frame["pages"])
	assert.Greater(t, frame["requestId"], float64(0))

	assert.Equal(t, "Jane Doe", env.session.Metadata().Title)
	assert.Equal(t, "h1{color:red}", env.session.Document().CSS)
}

func TestSocket_EditIsStored(t *testing.T) {
	env := newTestEnv(t, Config{SaveDelay: 10 * time.Millisecond}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	edit(t, conn, "# Stored", "p{}")

	assert.Eventually(t, func() bool {
		doc, err := env.store.LoadDocument(context.Background())
		return err == nil && doc.Markdown == "# Stored" && doc.CSS == "p{}"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSocket_SecondEditorBlocked(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	first := env.dial(t)
	readUntil(t, first, outStarters)

	second := env.dial(t)
	readUntil(t, second, outBlocked)

	edit(t, second, "# intruder", "")
	readUntil(t, second, outBlocked)
	assert.Empty(t, env.session.Document().Markdown, "blocked editor must not change the document")

	require.NoError(t, first.Close())
	assert.Eventually(t, func() bool {
		holder, err := env.store.Holder(context.Background())
		return err == nil && holder == ""
	}, 5*time.Second, 10*time.Millisecond, "lock released on disconnect")

	send(t, second, map[string]string{"type": "claim"})
	readUntil(t, second, outActive)
	readUntil(t, second, outDocument)
}

func TestSocket_TakeoverAfterStaleLock(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	env := newTestEnv(t, Config{}, nil, store.WithClock(clock))

	// Another tab holds the lock, then stops sending heartbeats.
	ok, err := env.store.Claim(context.Background(), "other-tab")
	require.NoError(t, err)
	require.True(t, ok)

	conn := env.dial(t)
	readUntil(t, conn, outBlocked)

	mu.Lock()
	now = now.Add(store.StaleAfter + time.Second)
	mu.Unlock()

	send(t, conn, map[string]string{"type": "claim"})
	readUntil(t, conn, outActive)
	readUntil(t, conn, outDocument)

	holder, err := env.store.Holder(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "other-tab", holder)

	edit(t, conn, "# Taken over", "")
	assert.Eventually(t, func() bool {
		return env.session.Document().Markdown == "# Taken over"
	}, 5*time.Second, 10*time.Millisecond, "new holder can edit")
}

func TestSocket_EditBurstCollapsesToNewest(t *testing.T) {
	env := newTestEnv(t, Config{RateLimit: 2, Burst: 1}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	for i := 1; i <= 10; i++ {
		edit(t, conn, fmt.Sprintf("# Draft %d", i), "")
	}

	assert.Eventually(t, func() bool {
		return env.session.Document().Markdown == "# Draft 10"
	}, 5*time.Second, 10*time.Millisecond)
	assert.LessOrEqual(t, env.session.Scheduler().Latest(), uint64(3),
		"a burst of edits should reach the pipeline as at most a few renders")
}

func TestSocket_Zoom(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)
	readUntil(t, conn, outZoom)

	send(t, conn, map[string]string{"type": "zoom", "action": "in"})
	assert.EqualValues(t, 110, readUntil(t, conn, outZoom)["percent"])

	send(t, conn, map[string]any{"type": "key", "key": "-", "ctrl": true})
	assert.EqualValues(t, 100, readUntil(t, conn, outZoom)["percent"])

	send(t, conn, map[string]any{"type": "wheel", "deltaY": -100, "meta": true})
	assert.EqualValues(t, 120, readUntil(t, conn, outZoom)["percent"])

	send(t, conn, map[string]string{"type": "zoom", "action": "reset"})
	assert.EqualValues(t, 100, readUntil(t, conn, outZoom)["percent"])
}

func TestSocket_InvalidMessages(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	tests := []struct {
		name string
		msg  string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"explode"}`},
		{"missing type", `{}`},
		{"bad zoom action", `{"type":"zoom","action":"sideways"}`},
		{"empty key", `{"type":"key","key":""}`},
		{"negative viewport", `{"type":"viewport","width":-1,"height":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
			msg := readUntil(t, conn, outError)
			assert.Contains(t, msg["message"], ErrBadMessage.Error())
		})
	}
}

func TestSocket_OversizedDocumentRejected(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	edit(t, conn, strings.Repeat("a", resumd.MaxFieldSize+1), "")
	msg := readUntil(t, conn, outError)
	assert.Contains(t, msg["message"], resumd.ErrDocumentTooLarge.Error())
	assert.Empty(t, env.session.Document().Markdown)
}

func TestSocket_Starter(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	send(t, conn, map[string]string{"type": "starter", "name": "classic"})
	doc := readUntil(t, conn, outDocument)
	assert.NotEmpty(t, doc["markdown"])
	assert.NotEmpty(t, doc["css"])

	send(t, conn, map[string]string{"type": "starter", "name": "nope"})
	msg := readUntil(t, conn, outError)
	assert.Contains(t, msg["message"], assets.ErrStarterNotFound.Error())
	assert.Contains(t, msg["message"], "available:")
}

func TestSocket_Viewport(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	send(t, conn, map[string]any{"type": "viewport", "width": 400, "height": 600})
	edit(t, conn, "# fit", "")

	// 400/794 = 0.5038 -> 0.4937 after padding -> 49%.
	for {
		if readUntil(t, conn, outZoom)["percent"] == float64(49) {
			break
		}
	}
	assert.True(t, env.session.FitDone())
}

func TestApplyDocument(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)
	conn := env.dial(t)
	readUntil(t, conn, outStarters)

	require.NoError(t, env.server.ApplyDocument(context.Background(), resumd.Document{Markdown: "# From disk"}))

	doc := readUntil(t, conn, outDocument)
	for doc["markdown"] != "# From disk" {
		doc = readUntil(t, conn, outDocument)
	}
	assert.Eventually(t, func() bool {
		f, ok := env.session.Scheduler().Frame()
		return ok && strings.Contains(f.HTML, "From disk")
	}, 5*time.Second, 10*time.Millisecond)
}

// ---------------------------------------------------------------------------
// Exports
// ---------------------------------------------------------------------------

func TestExportZIP(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	resp := env.get(t, "/export/zip")
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "nothing converted yet")

	require.NoError(t, env.server.ApplyDocument(context.Background(),
		resumd.Document{Markdown: "---\ntitle: Jane Doe\n---\n# Jane", CSS: "h1{}"}))

	resp = env.get(t, "/export/zip")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="Jane Doe.zip"`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		files[f.Name] = string(data)
	}
	assert.Equal(t, "h1{}", files[assets.CSSFile])
	assert.Contains(t, files[assets.MarkdownFile], "# Jane")
}

func TestExportPDF(t *testing.T) {
	exporter := &fakeExporter{}
	env := newTestEnv(t, Config{}, exporter)

	require.NoError(t, env.server.ApplyDocument(context.Background(),
		resumd.Document{Markdown: "---\ntitle: Jane <Doe>\nlang: fr\n---\n# Jane", CSS: "h1{color:red}"}))

	resp := env.get(t, "/export/pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".pdf")

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	require.Len(t, exporter.docs, 1)
	doc := exporter.docs[0]
	assert.Contains(t, doc, `lang="fr"`)
	assert.Contains(t, doc, "Jane &lt;Doe&gt;")
	assert.Contains(t, doc, "h1{color:red}")
	assert.Contains(t, doc, env.http.URL+"/", "print document carries the server base URL")
}

func TestExportPDF_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, Config{}, nil)
		resp := env.get(t, "/export/pdf")
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("nothing to export", func(t *testing.T) {
		env := newTestEnv(t, Config{}, &fakeExporter{})
		resp := env.get(t, "/export/pdf")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("renderer failure", func(t *testing.T) {
		env := newTestEnv(t, Config{}, &fakeExporter{err: errors.New("chrome crashed")})
		require.NoError(t, env.server.ApplyDocument(context.Background(), resumd.Document{Markdown: "# x"}))
		resp := env.get(t, "/export/pdf")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		env := newTestEnv(t, Config{}, &fakeExporter{err: context.DeadlineExceeded})
		require.NoError(t, env.server.ApplyDocument(context.Background(), resumd.Document{Markdown: "# x"}))
		resp := env.get(t, "/export/pdf")
		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	})
}

func TestExportRateLimited(t *testing.T) {
	env := newTestEnv(t, Config{RateLimit: 0.001, Burst: 1}, nil)

	first := env.get(t, "/export/zip")
	assert.Equal(t, http.StatusConflict, first.StatusCode)

	second := env.get(t, "/export/zip")
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "1", second.Header.Get("Retry-After"))
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestRun_ShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t, Config{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Run(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "localhost:8080", true},
		{"same host", "http://localhost:8080", "localhost:8080", true},
		{"https same host", "https://resume.test", "resume.test", true},
		{"other host", "http://evil.test", "localhost:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, sameOrigin(r))
		})
	}
}
