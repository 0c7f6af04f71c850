package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/config"
	appErrors "github.com/YousefElmenshawy/University-Course-Registration-Website/pkg/errors"
)

// AuthService verifies access tokens minted by the campus identity
// provider. Issuing and refreshing tokens happens upstream.
type AuthService struct {
	secret   []byte
	issuer   string
	audience []string
}

// NewAuthService constructs AuthService from the JWT configuration.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	for _, aud := range s.audience {
		opts = append(opts, jwt.WithAudience(aud))
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
