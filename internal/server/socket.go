package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/hints"
	"github.com/alnah/go-resumd/internal/store"
)

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(store.NewHolderID(), conn, s.limiter.connection())
	s.hub.add(c)
	go c.writeLoop()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.remove(c)
		c.close()
		if c.isActive() {
			if err := s.deps.Store.Release(context.Background(), c.id); err != nil {
				s.log.Warn().Err(err).Msg("releasing editor lock failed")
			}
		}
	}()

	go s.editLoop(ctx, c)
	s.claim(ctx, c)
	s.readLoop(ctx, c)
}

// readLoop handles client messages until the connection closes.
func (s *Server) readLoop(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("client", c.id).Msg("editor connection closed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := s.dispatch(ctx, c, data); err != nil {
			c.sendJSON(errorMessage(err))
		}
	}
}

// dispatch handles one client message. Only claim and heartbeat are
// accepted from a blocked client.
func (s *Server) dispatch(ctx context.Context, c *client, data []byte) error {
	kind, err := s.decoder.kind(data)
	if err != nil {
		return err
	}

	switch kind {
	case msgClaim:
		s.claim(ctx, c)
		return nil
	case msgHeartbeat:
		return s.heartbeat(ctx, c)
	}

	if !c.isActive() {
		c.sendJSON(messageOut{Type: outBlocked})
		return nil
	}

	switch kind {
	case msgEdit:
		var m editMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		return s.edit(c, resumd.Document{Markdown: m.Markdown, CSS: m.CSS})
	case msgViewport:
		var m viewportMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		s.deps.Session.SetViewport(resumd.Viewport{Width: m.Width, Height: m.Height})
	case msgKey:
		var m keyMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		s.deps.Shortcuts.HandleKey(resumd.KeyEvent{Key: m.Key, Modifiers: m.Modifiers})
	case msgWheel:
		var m wheelMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		s.deps.Shortcuts.HandleWheel(resumd.WheelEvent{DeltaY: m.DeltaY, Modifiers: m.Modifiers})
	case msgZoom:
		var m zoomMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		s.zoom(m.Action)
	case msgStarter:
		var m starterMessage
		if err := s.decoder.decode(data, &m); err != nil {
			return err
		}
		return s.starter(c, m.Name)
	}
	return nil
}

// claim tries to take the editor lock for c and sends either an active
// notice followed by the editor state, or a blocked notice.
func (s *Server) claim(ctx context.Context, c *client) {
	ok, err := s.deps.Store.Claim(ctx, c.id)
	if err != nil {
		s.log.Warn().Err(err).Msg("claiming editor lock failed")
		c.sendJSON(errorMessage(err))
		return
	}
	if !ok {
		c.setActive(false)
		c.sendJSON(messageOut{Type: outBlocked})
		return
	}

	c.setActive(true)
	c.sendJSON(messageOut{Type: outActive})
	s.sendState(c)
}

func (s *Server) heartbeat(ctx context.Context, c *client) error {
	if !c.isActive() {
		return nil
	}
	alive, err := s.deps.Store.Heartbeat(ctx, c.id)
	if err != nil {
		return err
	}
	if !alive {
		c.setActive(false)
		c.sendJSON(messageOut{Type: outBlocked})
	}
	return nil
}

// sendState sends everything a freshly active editor needs.
func (s *Server) sendState(c *client) {
	sess := s.deps.Session
	c.sendJSON(documentMessage(sess.Document()))
	c.sendJSON(startersOut{Type: outStarters, Names: assets.StarterNames()})
	c.sendJSON(zoomOut{Type: outZoom, Percent: sess.Zoom().Percent()})
	c.sendJSON(metadataMessage(sess.Metadata()))
	c.sendJSON(s.statusMessage(sess.Scheduler().State()))
	if f, ok := sess.Scheduler().Frame(); ok {
		data, err := json.Marshal(frameOut{Type: outFrame, Frame: f})
		if err == nil {
			c.offerFrame(f.RequestID, data)
		}
	}
}

// edit queues doc for the edit loop, replacing an edit still waiting there.
// Oversized documents are rejected without being queued.
func (s *Server) edit(c *client, doc resumd.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	c.edits.put(doc)
	return nil
}

// editLoop runs queued edits through the pipeline, one per slot of the
// connection's edit budget. Edits arriving while it waits collapse into
// the newest one.
func (s *Server) editLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.edits.ready:
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		doc, ok := c.edits.take()
		if !ok || !c.isActive() {
			continue
		}
		if err := s.apply(ctx, doc); err != nil {
			c.sendJSON(errorMessage(err))
		}
	}
}

// apply runs doc through the pipeline and schedules it for saving.
func (s *Server) apply(ctx context.Context, doc resumd.Document) error {
	if _, err := s.deps.Session.Update(ctx, doc); err != nil {
		return err
	}
	s.saver.Save(store.Document{Markdown: doc.Markdown, CSS: doc.CSS})
	return nil
}

func (s *Server) zoom(action string) {
	z := s.deps.Session.Zoom()
	switch action {
	case "in":
		z.In()
	case "out":
		z.Out()
	case "reset":
		z.Set(s.cfg.InitialZoom)
	}
}

// starter replaces the document with a starter template and echoes it to c.
func (s *Server) starter(c *client, name string) error {
	st, err := s.deps.Assets.LoadStarter(name)
	if err != nil {
		if errors.Is(err, assets.ErrStarterNotFound) {
			return fmt.Errorf("%w%s", err, hints.ForStarterNotFound(assets.StarterNames()))
		}
		return err
	}

	doc := resumd.Document{Markdown: st.Markdown, CSS: st.CSS}
	if err := s.edit(c, doc); err != nil {
		return err
	}
	c.sendJSON(documentMessage(doc))
	return nil
}
