package service

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/pkg/config"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// TokenService validates access tokens issued by the external identity
// service. This API never issues tokens itself.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService constructs the validator.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// ValidateToken parses and verifies a bearer token into claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if s.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != s.issuer {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token issuer")
		}
	}
	if claims.UserID == "" || claims.Role == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing identity claims")
	}
	return claims, nil
}
