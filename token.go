package photoapi

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSubject is the constant subject claim carried by every issued token.
const TokenSubject = "mays-photo"

// TokenTTL is the fixed lifetime of an issued token.
const TokenTTL = 7 * 24 * time.Hour

// VerifyStatus classifies the outcome of token verification. Callers outside
// this package should use TokenAuthority.Verify; the finer-grained statuses
// exist so each failure branch stays independently testable.
type VerifyStatus int

const (
	// TokenValid means the signature matched and the token has not expired.
	TokenValid VerifyStatus = iota
	// TokenMalformed covers every structural anomaly: wrong part count,
	// undecodable base64, or unparsable claims.
	TokenMalformed
	// TokenSignatureMismatch means the token parsed but the signature did
	// not verify under the configured secret, or the token claims an
	// algorithm other than HS256.
	TokenSignatureMismatch
	// TokenExpired means the signature verified but the expiry has passed.
	TokenExpired
)

// TokenAuthority issues and verifies the gateway's bearer tokens: HS256 JWTs
// with a constant subject, an issued-at claim, and a seven-day expiry.
// Tokens are immutable once issued and there is no revocation; validity is
// purely a function of the signature and the clock.
type TokenAuthority struct {
	secret []byte
}

// NewTokenAuthority creates a TokenAuthority signing with the credential's
// signing secret.
func NewTokenAuthority(cred Credential) *TokenAuthority {
	return &TokenAuthority{secret: cred.SigningSecret()}
}

// Issue mints a new signed token. It is a pure function of the secret and
// the current time.
func (a *TokenAuthority) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   TokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Check verifies a candidate token and reports why verification failed, if
// it did. It fails closed: anything the parser cannot make sense of is
// TokenMalformed rather than an error to the caller. The signature is
// verified before any claim is consulted, so a forged payload can never
// influence the outcome.
func (a *TokenAuthority) Check(token string) VerifyStatus {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
		return TokenValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return TokenSignatureMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenExpired
	default:
		return TokenMalformed
	}
}

// Verify collapses Check to the boolean contract used at the request
// boundary.
func (a *TokenAuthority) Verify(token string) bool {
	return a.Check(token) == TokenValid
}

// Authenticator binds the shared credential to a TokenAuthority: it checks
// login passwords and mints tokens for successful logins.
type Authenticator struct {
	cred   Credential
	tokens *TokenAuthority
}

// NewAuthenticator creates an Authenticator for the given credential.
func NewAuthenticator(cred Credential) *Authenticator {
	return &Authenticator{cred: cred, tokens: NewTokenAuthority(cred)}
}

// Login exchanges the shared password for a fresh bearer token. A wrong
// password yields ErrInvalidCredentials and no token.
func (a *Authenticator) Login(password string) (string, error) {
	if !equalSecrets(password, a.cred.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue()
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	return token, nil
}

// Verify reports whether the given bearer token is currently valid.
func (a *Authenticator) Verify(token string) bool {
	return a.tokens.Verify(token)
}

func equalSecrets(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
