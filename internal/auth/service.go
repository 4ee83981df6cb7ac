package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned when a publish token does not verify.
var ErrInvalidToken = errors.New("invalid token")

// SecretSource resolves an application's signing secret.
type SecretSource interface {
	Secret(appID string) (string, error)
}

// Service authenticates trusted publish callers.
type Service struct {
	secrets SecretSource
}

// NewService creates a new authentication service.
func NewService(secrets SecretSource) *Service {
	return &Service{secrets: secrets}
}

// Authenticate verifies tokenString for appID. Lookup errors from the secret
// source (an unknown app) are returned unchanged.
func (s *Service) Authenticate(appID, tokenString string) (*Claims, error) {
	secret, err := s.secrets.Secret(appID)
	if err != nil {
		return nil, err
	}
	claims, err := ValidateToken(appID, secret, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
