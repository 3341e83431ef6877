package server

import (
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
)

// Portal stylesheets, served from /css
//
//go:embed static/*
var staticFiles embed.FS

// StaticFilesFS is the embedded asset tree with the static/ prefix stripped,
// so /css/portal.css maps to css/portal.css.
var StaticFilesFS = sync.OnceValue(func() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("static assets: " + err.Error())
	}
	return sub
})

// StreamFile writes an embedded asset with a content type taken from its
// extension. Text assets are always sent as UTF-8.
func StreamFile(w http.ResponseWriter, _ *http.Request, name string) error {
	data, err := fs.ReadFile(StaticFilesFS(), name)
	if err != nil {
		return fmt.Errorf("asset %s: %w", name, err)
	}

	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("asset %s: %w", name, err)
	}
	return nil
}
