// Package dispatch maps incoming request paths onto files under a web root
// and hands them to a resolver.
package dispatch

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/wangshuonpu/webserver/internal/resolver"
)

type Resolver interface {
	ServeFile(w http.ResponseWriter, r *http.Request, localPath, ext string) resolver.Response
}

type Outcome struct {
	LocalPath string
	// Skipped is set for extensionless paths, which are answered with an
	// empty response without touching the filesystem.
	Skipped  bool
	Response resolver.Response
}

type Dispatcher struct {
	root      string
	indexFile string
	resolver  Resolver
	// OnDispatch, when set, observes every request after it was answered.
	OnDispatch func(r *http.Request, o Outcome)
}

func New(root, indexFile string, rv Resolver) *Dispatcher {
	if root == "" {
		root = "."
	}
	if indexFile == "" {
		indexFile = "index.html"
	}
	return &Dispatcher{
		root:      root,
		indexFile: strings.TrimPrefix(indexFile, "/"),
		resolver:  rv,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o := d.dispatch(w, r)
	if d.OnDispatch != nil {
		d.OnDispatch(r, o)
	}
}

func (d *Dispatcher) dispatch(w http.ResponseWriter, r *http.Request) Outcome {
	urlPath := r.URL.Path
	if urlPath == "/" || urlPath == "" {
		urlPath = "/" + d.indexFile
	}

	ext := Ext(urlPath)
	if ext == "" {
		return Outcome{Skipped: true}
	}

	localPath := d.LocalPath(urlPath)
	resp := d.resolver.ServeFile(w, r, localPath, ext)
	return Outcome{LocalPath: localPath, Response: resp}
}

// LocalPath joins urlPath onto the root. The path is cleaned as if rooted at
// "/" first, so ".." segments stop at the root.
func (d *Dispatcher) LocalPath(urlPath string) string {
	cleaned := path.Clean("/" + urlPath)
	return filepath.Join(d.root, filepath.FromSlash(cleaned))
}

// Ext returns the extension of the last path segment, dot included. Dotfiles
// and ".." have none.
func Ext(urlPath string) string {
	base := path.Base(urlPath)
	if base == ".." {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}
