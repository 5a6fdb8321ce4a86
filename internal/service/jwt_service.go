package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"papaya-users/internal/domain"
)

const (
	DefaultTokenTTL   = time.Hour
	DefaultIssuer     = "papaya-users"
	DefaultAuthCookie = "Authentication"
)

var ErrTokenExpired = errors.New("token expired")

// Claims es el payload del access token: sub = id del usuario.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer emite y valida access tokens HS256.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(secret string, ttl time.Duration, issuer string) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", domain.ErrConfiguration)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = DefaultIssuer
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

func (s *TokenIssuer) TTL() time.Duration {
	return s.ttl
}

func (s *TokenIssuer) Issue(subjectID, email string) (string, error) {
	return s.IssueWithTTL(subjectID, email, s.ttl)
}

func (s *TokenIssuer) IssueWithTTL(subjectID, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify devuelve ErrAuthenticationFailed para cualquier token invalido;
// si expiro, el error tambien envuelve ErrTokenExpired.
func (s *TokenIssuer) Verify(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, domain.ErrAuthenticationFailed
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, ErrTokenExpired)
		}
		return Claims{}, domain.ErrAuthenticationFailed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, domain.ErrAuthenticationFailed
	}
	return claims, nil
}

// TokenFromRequest toma el bearer del header Authorization y, solo si no hay
// header, cae a la cookie indicada.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if cookieName == "" {
		cookieName = DefaultAuthCookie
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
