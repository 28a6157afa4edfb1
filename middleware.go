package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wangshuonpu/webserver/internal/database"
	"github.com/wangshuonpu/webserver/internal/dispatch"
)

const hitRecordTimeout = 2 * time.Second

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(requestIDKey).(uuid.UUID)
	return id
}

// statusRecorder remembers the status written through it. Handlers that
// never call WriteHeader answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func middlewareLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.New()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		log.Printf("[%s] %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (cfg *apiConfig) middlewareMetricsInc(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg.fileServerHits.Add(1)
		next.ServeHTTP(w, r)
	})
}

// middlewareRecordHits persists every request in the background; the
// response never waits for the store.
func (cfg *apiConfig) middlewareRecordHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		if cfg.db == nil {
			return
		}
		id := requestID(r.Context())
		if id == uuid.Nil {
			id = uuid.New()
		}
		ctx := context.WithoutCancel(r.Context())
		cfg.pendingHits.Add(1)
		go func() {
			defer cfg.pendingHits.Done()
			cfg.recordHit(ctx, id, r.URL.Path, rec.status)
		}()
	})
}

// logDispatchError is hooked into the dispatcher so filesystem failures
// behind a 500 end up in the log.
func (cfg *apiConfig) logDispatchError(r *http.Request, o dispatch.Outcome) {
	if o.Response.Err != nil {
		log.Printf("[%s] Error serving %s: %v", requestID(r.Context()), o.LocalPath, o.Response.Err)
	}
}

func (cfg *apiConfig) recordHit(ctx context.Context, id uuid.UUID, path string, status int) {
	ctx, cancel := context.WithTimeout(ctx, hitRecordTimeout)
	defer cancel()

	err := cfg.db.RecordHit(ctx, database.RecordHitParams{
		ID:     id,
		Path:   path,
		Status: int32(status),
	})
	if err != nil {
		log.Printf("[%s] Couldn't record hit: %v", id, err)
	}
}
