package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FetchScope is the only scope a fetch token carries.
const FetchScope = "fetch"

// Claims represents the JWT payload of a fetch token.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken signs a fetch token with secret, valid for ttl.
func GenerateToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("fetch secret is not configured")
	}
	now := time.Now()
	claims := &Claims{
		Scope: FetchScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "robonews",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// requireFetchAuth admits a request carrying the secret as ?key= or a valid
// fetch token as a Bearer header. With no secret configured every request
// is admitted.
func (s *Server) requireFetchAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.fetchSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.URL.Query().Get("key"); key != "" {
			if subtle.ConstantTimeCompare([]byte(key), s.fetchSecret) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := s.verifyToken(strings.TrimPrefix(authHeader, "Bearer ")); err != nil {
			s.logger.Debug("rejected fetch token", "error", err)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verifyToken(tokenString string) error {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.fetchSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	if claims.Scope != FetchScope {
		return fmt.Errorf("unexpected scope %q", claims.Scope)
	}
	return nil
}
