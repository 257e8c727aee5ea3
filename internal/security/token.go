package security

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserIDHeader carries the caller's id when header identity is enabled (local development)
const UserIDHeader = "X-User-ID"

var (
	ErrMissingIdentity = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
)

// Claims are the platform's access token claims
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier resolves the calling user from a platform-issued HS256 bearer token
type TokenVerifier struct {
	hmac        []byte
	allowHeader bool
}

// NewTokenVerifier creates a verifier. With allowHeader set, requests without a
// bearer token may name their user in the X-User-ID header instead.
func NewTokenVerifier(secret string, allowHeader bool) *TokenVerifier {
	return &TokenVerifier{hmac: []byte(secret), allowHeader: allowHeader}
}

// IssueToken signs a token for a user. The platform normally issues tokens; this
// exists for tooling and tests.
func (v *TokenVerifier) IssueToken(sub, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(v.hmac)
}

// Parse validates a token and returns its claims
func (v *TokenVerifier) Parse(tokenStr string) (*Claims, error) {
	if len(v.hmac) == 0 {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.Sub == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// Identify returns the user id of a request
func (v *TokenVerifier) Identify(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		c, err := v.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return "", err
		}
		return c.Sub, nil
	}

	if v.allowHeader {
		if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
			return id, nil
		}
	}
	return "", ErrMissingIdentity
}
