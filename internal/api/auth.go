package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RoleAdmin may save and restore sessions.
	RoleAdmin = "admin"

	// AdminTokenTTL is how long issued tokens stay valid.
	AdminTokenTTL = 24 * time.Hour

	minSecretLength = 32
)

// ErrWeakSecret is returned for signing secrets shorter than 32 characters.
var ErrWeakSecret = errors.New("admin secret must be at least 32 characters")

// Claims are the JWT claims carried by admin tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth issues and verifies HS256 admin tokens.
type AdminAuth struct {
	secret []byte
	now    func() time.Time
}

// NewAdminAuth creates an authenticator for secret.
func NewAdminAuth(secret string) (*AdminAuth, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &AdminAuth{secret: []byte(secret), now: time.Now}, nil
}

// IssueToken signs a token for subject with the given role.
func (a *AdminAuth) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token.
func (a *AdminAuth) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Middleware requires a bearer token with the admin role.
// Missing or invalid tokens get 401, other roles get 403.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		claims, err := a.Validate(tokenString)
		if err != nil {
			log.Printf("🔒 Rejected admin token from %s: %v", GetClientIP(r), err)
			RecordConnectionRejected("auth")
			writeError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if claims.Role != RoleAdmin {
			writeError(w, "Admin role required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
