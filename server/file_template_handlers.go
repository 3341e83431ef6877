package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// TemplateFilesFS is the embedded page tree with the templates/ prefix stripped
var TemplateFilesFS = sync.OnceValue(func() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("page templates: " + err.Error())
	}
	return sub
})

// ParseTemplate parses a page from the embedded filesystem together with the
// shared layout. The page defines "content" and may define "head".
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

func renderPage(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Str("template", tmpl.Name()).Msg("Failed to render page")
	}
}
