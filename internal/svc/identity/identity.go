package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrTokenRequired = errors.New("identity: a token is required")
	ErrInvalidToken  = errors.New("identity: invalid token")
	ErrNoSecret      = errors.New("identity: no jwt secret configured")
)

// Handshake is what a realtime client presents when it connects.
type Handshake struct {
	UserID string
	Token  string
}

// Resolver turns a handshake into the identity a connection is registered under.
// An empty identity with a nil error means the connection is anonymous.
type Resolver interface {
	Resolve(ctx context.Context, h Handshake) (string, error)
	VerifyToken(token string) (string, error)
}

type Options struct {
	JWTSecret string
	// RequireToken refuses handshakes that only claim a user id
	RequireToken bool
}

type resolver struct {
	secret       []byte
	requireToken bool

	verified *cache.Cache
}

func New(opt Options) Resolver {
	return &resolver{
		secret:       []byte(opt.JWTSecret),
		requireToken: opt.RequireToken,
		verified:     cache.New(time.Minute*5, time.Minute*10),
	}
}

type Claims struct {
	UserID string `json:"u"`

	jwt.RegisteredClaims
}

func (c *Claims) identity() string {
	if c.UserID != "" {
		return c.UserID
	}

	return c.Subject
}

func (r *resolver) Resolve(ctx context.Context, h Handshake) (string, error) {
	if h.Token != "" {
		return r.VerifyToken(h.Token)
	}

	if r.requireToken {
		return "", ErrTokenRequired
	}

	return strings.TrimSpace(h.UserID), nil
}

// VerifyToken validates a signed token and returns the user it was issued for.
func (r *resolver) VerifyToken(token string) (string, error) {
	if len(r.secret) == 0 {
		return "", ErrNoSecret
	}

	if v, ok := r.verified.Get(token); ok {
		return v.(string), nil
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return r.secret, nil
	})
	if err != nil {
		zap.S().Debugw("token verification failed",
			"error", err,
		)

		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	userID := claims.identity()
	if userID == "" {
		return "", fmt.Errorf("%w: missing user", ErrInvalidToken)
	}

	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		if until := time.Until(claims.ExpiresAt.Time); until < time.Minute*5 {
			ttl = until
		}
	}

	r.verified.Set(token, userID, ttl)

	return userID, nil
}
