package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"go-sse-broadcast/internal/infrastructure/logger"
)

// Resolver extracts an optional user identity from an inbound request. A
// missing, malformed or unverifiable token resolves to the anonymous
// identity, never to an error: identity is best-effort at this boundary.
type Resolver struct {
	secret []byte
	logger logger.Logger
}

// NewResolver creates a resolver verifying HMAC-signed bearer tokens with the
// given secret. An empty secret disables resolution entirely.
func NewResolver(secret string, log logger.Logger) *Resolver {
	return &Resolver{
		secret: []byte(secret),
		logger: log.WithField("component", "auth"),
	}
}

// UserID returns the subject claim of a valid bearer token, or "" for an
// anonymous caller.
func (r *Resolver) UserID(req *http.Request) string {
	if len(r.secret) == 0 {
		return ""
	}

	const prefix = "Bearer "
	header := req.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		r.logger.Debugf("bearer token rejected, connection is anonymous: %v", err)
		return ""
	}

	return claims.Subject
}
