package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wangshuonpu/webserver/internal/auth"
)

func (cfg *apiConfig) handlerAdminMetrics(w http.ResponseWriter, r *http.Request) {
	hits := cfg.fileServerHits.Load()

	var persisted strings.Builder
	if cfg.db != nil {
		total, err := cfg.db.CountHits(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Database error. Couldn't count hits", err)
			return
		}
		byStatus, err := cfg.db.CountHitsByStatus(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Database error. Couldn't count hits", err)
			return
		}
		fmt.Fprintf(&persisted, "\n                  <p>%d requests recorded in total.</p>\n                  <ul>", total)
		for _, row := range byStatus {
			fmt.Fprintf(&persisted, "\n                    <li>%d: %d</li>", row.Status, row.Hits)
		}
		persisted.WriteString("\n                  </ul>")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(
		`<html>
                <body>
                  <h1>Welcome, Webserver Admin</h1>
                  <p>Static files have been requested %d times!</p>%s
                </body>
              </html>`, hits, persisted.String())))
}

// handlerReset needs an admin token, except on the dev platform.
func (cfg *apiConfig) handlerReset(w http.ResponseWriter, r *http.Request) {
	if cfg.platform != "dev" {
		accessToken, err := auth.GetBearerToken(r.Header)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Missing or invalid authorization header", err)
			return
		}
		if _, err := auth.ValidateJWT(accessToken, cfg.jwtSecret); err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}
	}

	cfg.fileServerHits.Store(0)
	if cfg.db != nil {
		if err := cfg.db.DeleteHits(r.Context()); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Database error. Couldn't reset hits", err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hits reset successfully"))
}
