// Package auth checks Subsonic credentials against the bridge's
// configured account.
package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Verification failures. Handlers map these onto protocol error codes.
var (
	ErrMissing          = errors.New("auth: required parameter is missing")
	ErrWrongCredentials = errors.New("auth: wrong username or password")
)

// Config is the single account the bridge serves.
type Config struct {
	Username string
	Password string
}

// Credentials are the auth parameters of one request. Clients send
// either a password (plain or hex-armored with an enc: prefix) or a
// salted token, t = md5(password + s).
type Credentials struct {
	Username string
	Password string
	Token    string
	Salt     string
}

// FromQuery extracts the auth parameters of one request.
func FromQuery(q url.Values) Credentials {
	return Credentials{
		Username: q.Get("u"),
		Password: q.Get("p"),
		Token:    q.Get("t"),
		Salt:     q.Get("s"),
	}
}

// Gate verifies credentials. Comparisons are constant-time so timing
// reveals nothing about the configured account.
type Gate struct {
	log      *zap.Logger
	username string
	password string
}

// New returns a gate for the configured account.
func New(log *zap.Logger, cfg Config) (*Gate, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Username == "" {
		return nil, errors.New("username required")
	}
	if cfg.Password == "" {
		return nil, errors.New("password required")
	}
	return &Gate{log: log, username: cfg.Username, password: cfg.Password}, nil
}

// Username returns the account name the gate accepts.
func (g *Gate) Username() string { return g.username }

// Verify checks one request's credentials. The token scheme wins when a
// client sends both a token and a password.
func (g *Gate) Verify(c Credentials) error {
	if c.Username == "" {
		return ErrMissing
	}
	switch {
	case c.Token != "" && c.Salt != "":
		return g.verifyToken(c)
	case c.Password != "":
		return g.verifyPassword(c)
	default:
		return ErrMissing
	}
}

func (g *Gate) verifyPassword(c Credentials) error {
	pass := c.Password
	if armored, ok := strings.CutPrefix(pass, "enc:"); ok {
		raw, err := hex.DecodeString(armored)
		if err != nil {
			return ErrWrongCredentials
		}
		pass = string(raw)
	}
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(g.username))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(g.password))
	if userOK&passOK == 1 {
		return nil
	}
	return ErrWrongCredentials
}

func (g *Gate) verifyToken(c Credentials) error {
	sum := md5.Sum([]byte(g.password + c.Salt))
	want := hex.EncodeToString(sum[:])
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(g.username))
	tokenOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(c.Token)), []byte(want))
	if userOK&tokenOK == 1 {
		return nil
	}
	return ErrWrongCredentials
}
