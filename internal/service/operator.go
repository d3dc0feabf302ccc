package service

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid operator name or access code")

// OperatorService проверяет код доступа оператора по bcrypt-хэшу.
type OperatorService struct {
	hash []byte
}

// NewOperatorService принимает bcrypt-хэш кода доступа. Пустой хэш отключает проверку.
func NewOperatorService(hash string) *OperatorService {
	return &OperatorService{hash: []byte(strings.TrimSpace(hash))}
}

// Enabled reports whether operators must log in.
func (s *OperatorService) Enabled() bool { return len(s.hash) > 0 }

// Login checks the access code and returns the normalized operator name.
func (s *OperatorService) Login(name, code string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBadCredentials
	}
	if !s.Enabled() {
		return name, nil
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(code)); err != nil {
		return "", ErrBadCredentials
	}
	return name, nil
}

// HashAccessCode returns the bcrypt hash to put into ACCESS_CODE_HASH.
func HashAccessCode(code string) (string, error) {
	if code == "" {
		return "", errors.New("access code is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
