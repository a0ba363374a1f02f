package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultHeader = "X-User-Id"

	ModeHeader = "header"
	ModeJWT    = "jwt"
)

var (
	ErrNoCredentials      = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Resolver extracts the acting user from a request
type Resolver interface {
	// Resolve returns ErrNoCredentials when the request carries none
	Resolve(r *http.Request) (int64, error)
}

// NewResolver returns the resolver for one of the supported modes
func NewResolver(mode, header string, secret []byte) (Resolver, error) {
	switch strings.ToLower(mode) {
	case "", ModeHeader:
		return NewHeaderResolver(header), nil
	case ModeJWT:
		if len(secret) == 0 {
			return nil, errors.New("jwt auth requires a secret")
		}
		return NewJWTResolver(secret), nil
	}
	return nil, fmt.Errorf("unsupported auth mode '%s'", mode)
}

// HeaderResolver trusts a user id set by an upstream proxy
type HeaderResolver struct {
	header string
}

func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderResolver{header: header}
}

func (h *HeaderResolver) Resolve(r *http.Request) (int64, error) {
	value := strings.TrimSpace(r.Header.Get(h.header))
	if value == "" {
		return 0, ErrNoCredentials
	}
	return parseActor(value)
}

// Claims are the claims of the bearer tokens issued to mailbox users
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// JWTResolver reads the user from an HS256 bearer token
type JWTResolver struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (j *JWTResolver) Resolve(r *http.Request) (int64, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, ErrNoCredentials
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return 0, ErrInvalidCredentials
	}

	claims := &Claims{}
	token, err := j.parser.ParseWithClaims(strings.TrimPrefix(header, prefix), claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.secret, nil
		})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.UserID <= 0 {
		return 0, ErrInvalidCredentials
	}
	return claims.UserID, nil
}

// NewToken signs a token for the user, a zero expiry issues a token that never expires
func NewToken(secret []byte, userID int64, expiry time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no secret configured")
	}
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if expiry != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseActor(value string) (int64, error) {
	actor, err := strconv.ParseInt(value, 10, 64)
	if err != nil || actor <= 0 {
		return 0, ErrInvalidCredentials
	}
	return actor, nil
}
