// Package resolver decides how a local file is served: whether it exists,
// which content type and cache headers it gets, and whether the client's
// cached copy can be reused.
package resolver

import (
	"fmt"
	"net/http"
	"time"
)

const (
	htmlExt = ".html"

	validatedMaxAge = 10 * time.Minute
	expiredOffset   = time.Hour
)

// Response is the complete outcome of one resolution. Header is final before
// anything reaches the client.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// Err holds the filesystem failure behind a 500.
	Err error
}

// Write sends r to w. A Content-Type entry holding nil stays absent on the
// wire instead of being sniffed from the body.
func (r Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for name, values := range r.Header {
		h[name] = values
	}
	w.WriteHeader(r.Status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

type Resolver struct {
	fsys        FileSystem
	types       ContentTypes
	fresh       Comparator
	defaultType string
	now         func() time.Time
}

type Option func(*Resolver)

// WithComparator replaces ExactMatch as the freshness comparator.
func WithComparator(c Comparator) Option {
	return func(rv *Resolver) {
		if c != nil {
			rv.fresh = c
		}
	}
}

// WithDefaultType sets the Content-Type used for extensions missing from the
// table. Without it such files go out with no Content-Type at all.
func WithDefaultType(mimeType string) Option {
	return func(rv *Resolver) { rv.defaultType = mimeType }
}

func WithClock(now func() time.Time) Option {
	return func(rv *Resolver) { rv.now = now }
}

func New(fsys FileSystem, types ContentTypes, opts ...Option) *Resolver {
	rv := &Resolver{
		fsys:  fsys,
		types: types,
		fresh: ExactMatch,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(rv)
	}
	return rv
}

// resolution carries one request through the states below.
type resolution struct {
	rv        *Resolver
	localPath string
	ext       string
	reqHeader http.Header
	head      http.Header
	resp      Response
}

type stateFunc func(*resolution) stateFunc

// Resolve runs the existence, type, freshness and send steps in order and
// returns exactly one of 200, 304, 404 or 500.
func (rv *Resolver) Resolve(localPath, ext string, reqHeader http.Header) Response {
	res := &resolution{
		rv:        rv,
		localPath: localPath,
		ext:       ext,
		reqHeader: reqHeader,
	}
	for state := checkExistence; state != nil; {
		state = state(res)
	}
	return res.resp
}

func (rv *Resolver) ServeFile(w http.ResponseWriter, r *http.Request, localPath, ext string) Response {
	resp := rv.Resolve(localPath, ext, r.Header)
	if err := resp.Write(w); err != nil && resp.Err == nil {
		resp.Err = fmt.Errorf("write %s: %w", localPath, err)
	}
	return resp
}

func checkExistence(res *resolution) stateFunc {
	exists, err := res.rv.fsys.Exists(res.localPath)
	if err != nil {
		return res.fail(fmt.Errorf("check %s: %w", res.localPath, err))
	}
	if !exists {
		res.resp = Response{Status: http.StatusNotFound, Header: http.Header{}}
		return nil
	}
	return resolveType
}

func resolveType(res *resolution) stateFunc {
	res.head = http.Header{}
	if mimeType, ok := res.rv.types.Lookup(res.ext); ok {
		res.head.Set("Content-Type", mimeType)
	} else if res.rv.defaultType != "" {
		res.head.Set("Content-Type", res.rv.defaultType)
	} else {
		res.head["Content-Type"] = nil
	}
	if res.ext == htmlExt {
		return noCache
	}
	return validate
}

func noCache(res *resolution) stateFunc {
	res.head.Set("Cache-Control", "max-age=0")
	res.head.Set("Expires", FormatTime(res.rv.now().Add(-expiredOffset)))
	return send
}

func validate(res *resolution) stateFunc {
	info, err := res.rv.fsys.Stat(res.localPath)
	if err != nil {
		return res.fail(fmt.Errorf("stat %s: %w", res.localPath, err))
	}
	modTime := info.ModTime()
	if res.rv.fresh(res.reqHeader.Get("If-Modified-Since"), modTime) {
		res.resp = Response{Status: http.StatusNotModified, Header: http.Header{}}
		return nil
	}
	res.head.Set("Last-Modified", FormatTime(modTime))
	res.head.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(validatedMaxAge.Seconds())))
	res.head.Set("Expires", FormatTime(res.rv.now().Add(validatedMaxAge)))
	return send
}

func send(res *resolution) stateFunc {
	body, err := res.rv.fsys.ReadFile(res.localPath)
	if err != nil {
		return res.fail(fmt.Errorf("read %s: %w", res.localPath, err))
	}
	res.resp = Response{Status: http.StatusOK, Header: res.head, Body: body}
	return nil
}

func (res *resolution) fail(err error) stateFunc {
	res.resp = Response{Status: http.StatusInternalServerError, Header: http.Header{}, Err: err}
	return nil
}
