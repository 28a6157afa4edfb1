package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wangshuonpu/webserver/internal/auth"
)

const adminTokenLifetime = time.Hour

func (cfg *apiConfig) handlerLogin(w http.ResponseWriter, r *http.Request) {
	type parameters struct {
		Password string `json:"password"`
	}
	type response struct {
		Token string `json:"token"`
	}

	if cfg.adminPasswordHash == "" || cfg.jwtSecret == "" {
		respondWithError(w, http.StatusForbidden, "Admin login is not configured", nil)
		return
	}

	decoder := json.NewDecoder(r.Body)
	params := parameters{}
	if err := decoder.Decode(&params); err != nil {
		respondWithError(w, http.StatusBadRequest, "Couldn't decode parameters", err)
		return
	}

	if err := auth.CheckPasswordHash(params.Password, cfg.adminPasswordHash); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Incorrect password", err)
		return
	}

	token, err := auth.MakeJWT(cfg.adminID, cfg.jwtSecret, adminTokenLifetime)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Couldn't create token", err)
		return
	}
	respondWithJSON(w, http.StatusOK, response{Token: token})
}

func handlerHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
