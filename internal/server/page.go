package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"facade/internal/logging"
	"facade/internal/streetview"
)

//go:embed web/index.html.tmpl web/app.js web/style.css
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html.tmpl"))

type pageData struct {
	Title          string
	MapsConfigured bool
	CaptureWidth   int
	CaptureHeight  int
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data := pageData{
		Title:          "Madrid Facade Makeover",
		MapsConfigured: s.cfg.MapsConfigured(),
		CaptureWidth:   streetview.CaptureWidth,
		CaptureHeight:  streetview.CaptureHeight,
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render page", logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
