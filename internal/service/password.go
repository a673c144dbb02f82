package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher abstrae el hash unidireccional de passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify devuelve nil si password corresponde al hash almacenado.
	Verify(password, hash string) error
}

// ErrPasswordMismatch indica que el password no corresponde al hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// BcryptHasher implementa PasswordHasher con bcrypt.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	if hash == "" {
		return ErrPasswordMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
