package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alnah/go-resumd"
)

func (s *Server) handleEditor(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, s.editorPage)
}

// handleRealm serves the pagination host document. The realm browser
// loads it from here so that served asset paths resolve.
func (s *Server) handleRealm(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, resumd.HostDocument(s.hostPage, s.cfg.EngineURL))
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		http.Error(w, "PDF export disabled", http.StatusNotImplemented)
		return
	}

	c, err := s.deps.Session.Exportable()
	if err != nil {
		s.exportError(w, err)
		return
	}

	doc := resumd.PrintDocument(c, resumd.PrintOptions{
		Template: s.printPage,
		Page:     s.cfg.Page,
		BaseURL:  baseURL(r),
	})

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExportTimeout)
	defer cancel()
	pdf, err := s.deps.Exporter.Render(ctx, doc)
	if err != nil {
		s.exportError(w, err)
		return
	}

	s.log.Info().Int("bytes", len(pdf)).Str("title", resumd.ExportTitle(c.Metadata)).Msg("PDF exported")
	writeAttachment(w, "application/pdf", resumd.ExportFilename(c.Metadata, "pdf"), pdf)
}

func (s *Server) handleZIP(w http.ResponseWriter, _ *http.Request) {
	c, err := s.deps.Session.Exportable()
	if err != nil {
		s.exportError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := resumd.WriteZIP(&buf, s.deps.Session.Document()); err != nil {
		s.exportError(w, err)
		return
	}
	writeAttachment(w, "application/zip", resumd.ExportFilename(c.Metadata, "zip"), buf.Bytes())
}

func (s *Server) exportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resumd.ErrNothingToExport):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "export timed out", http.StatusGatewayTimeout)
	case errors.Is(err, resumd.ErrPoolClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg("export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}

// baseURL is the origin the request was addressed to, used to resolve
// served asset paths inside exported documents.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, page)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}
