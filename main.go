package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/net/netutil"

	"github.com/wangshuonpu/webserver/internal/config"
	"github.com/wangshuonpu/webserver/internal/database"
	"github.com/wangshuonpu/webserver/internal/dispatch"
	"github.com/wangshuonpu/webserver/internal/resolver"
)

// hitStore is the subset of *database.Queries the handlers use.
type hitStore interface {
	RecordHit(ctx context.Context, arg database.RecordHitParams) error
	CountHits(ctx context.Context) (int64, error)
	CountHitsByStatus(ctx context.Context) ([]database.CountHitsByStatusRow, error)
	DeleteHits(ctx context.Context) error
}

type apiConfig struct {
	fileServerHits    atomic.Int64
	pendingHits       sync.WaitGroup
	db                hitStore
	platform          string
	jwtSecret         string
	adminPasswordHash string
	adminID           uuid.UUID
}

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file (overrides CONFIG_FILE)")
	envFile := flag.String("env", ".env", "Path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile, *configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	apiCfg := &apiConfig{
		platform:          cfg.Platform,
		jwtSecret:         cfg.JWTSecret,
		adminPasswordHash: cfg.AdminPasswordHash,
		adminID:           uuid.New(),
	}
	if cfg.DBURL != "" {
		dbConn, err := sql.Open("postgres", cfg.DBURL)
		if err != nil {
			log.Fatalf("Error connecting to database: %v", err)
		}
		defer dbConn.Close()
		apiCfg.db = database.New(dbConn)
	}

	handler, err := newStaticHandler(cfg, apiCfg)
	if err != nil {
		log.Fatalf("Error building static handler: %v", err)
	}

	if cfg.AdminEnabled() {
		adminSrv := &http.Server{
			Addr:    ":" + cfg.AdminPort,
			Handler: apiCfg.adminMux(),
		}
		go func() {
			log.Printf("Admin API on port %s", cfg.AdminPort)
			log.Fatal(adminSrv.ListenAndServe())
		}()
	}

	ln, err := listen(":"+cfg.Port, cfg.MaxConns)
	if err != nil {
		log.Fatalf("Error listening on port %s: %v", cfg.Port, err)
	}

	root := cfg.WebRoot
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	color.New(color.FgGreen, color.Bold).Printf("Serving %s at http://localhost:%s\n", root, cfg.Port)
	log.Printf("Serving files from %s on port %s", root, cfg.Port)

	srv := &http.Server{Handler: handler}
	log.Fatal(srv.Serve(ln))
}

func newStaticHandler(cfg config.Config, apiCfg *apiConfig) (http.Handler, error) {
	compare, err := resolver.ComparatorByName(cfg.Freshness)
	if err != nil {
		return nil, err
	}
	rv := resolver.New(
		resolver.OSFileSystem{},
		resolver.DefaultContentTypes.Merge(cfg.ContentTypes),
		resolver.WithComparator(compare),
		resolver.WithDefaultType(cfg.DefaultType),
	)
	d := dispatch.New(cfg.WebRoot, cfg.IndexFile, rv)
	d.OnDispatch = apiCfg.logDispatchError
	return middlewareLog(apiCfg.middlewareMetricsInc(apiCfg.middlewareRecordHits(d))), nil
}

func (cfg *apiConfig) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/healthz", handlerHealthz)
	mux.HandleFunc("POST /api/login", cfg.handlerLogin)
	mux.HandleFunc("GET /admin/metrics", cfg.handlerAdminMetrics)
	mux.HandleFunc("POST /admin/reset", cfg.handlerReset)
	return mux
}

// listen opens addr, capped at maxConns concurrent connections when it is
// positive.
func listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}
