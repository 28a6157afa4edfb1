package auth

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword returns an argon2id hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func CheckPasswordHash(password, hash string) error {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return ErrPasswordMismatch
	}
	return nil
}
