// Package auth is the single shared password gate: a bcrypt hash checked at login
// and a long-lived HS256 token proving it afterwards.
package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/cuaderno/core"
)

const audience = "cuaderno"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrPasswordTooLong = errors.New("password too long")
)

// Claims of the session token; the subject is always the teacher.
type Claims struct {
	jwt.StandardClaims
}

type Gate struct {
	hash   []byte
	secret []byte
	issuer string
	ttl    time.Duration
}

// HashPassword returns the bcrypt hash to put in auth.passwordHash.
func HashPassword(pwd string) (string, error) {
	if len(pwd) > 72 {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

// NewGate prefers the configured hash; a plain password is hashed once here.
// Without either, the gate is open.
func NewGate(conf *core.Config) (*Gate, error) {
	g := &Gate{
		secret: []byte(conf.SecretKey),
		issuer: conf.AppName,
		ttl:    conf.Auth.JWTExpirationDelta,
	}
	switch {
	case conf.Auth.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(conf.Auth.PasswordHash)); err != nil {
			return nil, errors.Wrap(err, "invalid auth.passwordHash")
		}
		g.hash = []byte(conf.Auth.PasswordHash)
	case conf.Auth.Password != "":
		hash, err := HashPassword(conf.Auth.Password)
		if err != nil {
			return nil, err
		}
		g.hash = []byte(hash)
	}
	if g.ttl <= 0 {
		g.ttl = 365 * 24 * time.Hour
	}
	return g, nil
}

// Enabled reports whether a password is required at all.
func (g *Gate) Enabled() bool { return len(g.hash) > 0 }

func (g *Gate) TTL() time.Duration { return g.ttl }

func (g *Gate) CheckPassword(pwd string) error {
	if !g.Enabled() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(pwd)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Login checks pwd and issues a signed session token.
func (g *Gate) Login(pwd string) (token string, expiresAt time.Time, err error) {
	if err = g.CheckPassword(pwd); err != nil {
		return "", time.Time{}, err
	}
	now := NowFunc()
	expiresAt = now.Add(g.ttl)
	claims := &Claims{StandardClaims: jwt.StandardClaims{
		Issuer:    g.issuer,
		Subject:   "teacher",
		Audience:  audience,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return token, expiresAt, nil
}

// Verify parses a session token; only HS256 tokens signed with the secret key are accepted.
func (g *Gate) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyAudience(audience, true) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
