package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials mirrors the teacher's server.ErrBadCredentials: the
// supplied API key does not match any hashed key on file.
var ErrBadCredentials = errors.New("the supplied API key is not recognized")

// APIKey is one credential allowed to request a token, identified by name for
// logging/correlation (there is no user/account model here, unlike the
// teacher's dao.User — only bearer tokens gating /v1/compile and /v1/run).
type APIKey struct {
	Name string
	Hash string // bcrypt hash of the raw key
}

// HashAPIKey bcrypt-hashes a raw API key for use as an APIKey's Hash (the
// keys passed to New), exactly as the teacher hashes account passwords
// before persisting.
func HashAPIKey(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("server: could not hash API key: %w", err)
	}
	return string(h), nil
}

// authenticator issues and verifies JWTs against a fixed set of bcrypt-hashed
// API keys, mirroring the teacher's login-issues-JWT flow minus its user
// database: here the "identity" is just the API key's Name.
type authenticator struct {
	secret []byte
	keys   []APIKey
}

// authenticate checks rawKey against every registered key's bcrypt hash and
// returns its Name on a match.
func (a *authenticator) authenticate(rawKey string) (string, error) {
	for _, k := range a.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(rawKey)) == nil {
			return k.Name, nil
		}
	}
	return "", ErrBadCredentials
}

// issueToken generates a signed bearer token for the named identity, valid
// for one hour, the same HS512/one-hour shape as the teacher's
// generateJWTForUser.
func (a *authenticator) issueToken(name string) (string, error) {
	claims := jwt.MapClaims{
		"iss": "eacd",
		"sub": name,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(a.secret)
}

// verifyToken parses and validates tok, returning the subject identity it was
// issued for.
func (a *authenticator) verifyToken(tok string) (string, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("eacd"), jwt.WithLeeway(time.Minute))
	if err != nil {
		return "", fmt.Errorf("server: invalid token: %w", err)
	}
	subj, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("server: token has no subject: %w", err)
	}
	return subj, nil
}
