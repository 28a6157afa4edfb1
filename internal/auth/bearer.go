package auth

import (
	"errors"
	"net/http"
	"strings"
)

var ErrNoBearer = errors.New("no bearer token in Authorization header")

func GetBearerToken(headers http.Header) (string, error) {
	bearerStr := strings.Split(headers.Get("Authorization"), " ")
	if len(bearerStr) != 2 || bearerStr[0] != "Bearer" {
		return "", ErrNoBearer
	}
	return bearerStr[1], nil
}
