// Package jwt issues and validates the signed session tokens returned on
// successful login. Tokens are standard JWTs whose subject is the account ID;
// everything else about a session lives server-side.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrTokenInvalid covers every parse failure: bad signature, wrong algorithm,
// expired, malformed, or missing subject.
var ErrTokenInvalid = errors.New("invalid session token")

// Config for the issuer. HS256 uses PrivateKey as the shared secret; Ed25519
// uses PrivateKey (seed or full key) for signing and PublicKey for
// verification.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Issuer mints and parses session tokens. Safe for concurrent use.
type Issuer struct {
	config     Config
	signKey    any
	verifyKey  any
	signMethod jwt.SigningMethod
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("session token TTL must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	iss := &Issuer{config: cfg}

	switch cfg.SigningMethod {
	case MethodHS256, "":
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires a signing secret")
		}
		iss.signMethod = jwt.SigningMethodHS256
		iss.signKey = cfg.PrivateKey
		iss.verifyKey = cfg.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		iss.signMethod = jwt.SigningMethodEdDSA
		iss.signKey = priv
		iss.verifyKey = pub
	default:
		return nil, errors.New("unsupported signing method")
	}

	return iss, nil
}

// Issue mints a token for accountID valid from now for the configured TTL.
func (i *Issuer) Issue(accountID string, now time.Time) (string, error) {
	if accountID == "" {
		return "", errors.New("account id required")
	}

	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    i.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TTL)),
	}

	return jwt.NewWithClaims(i.signMethod, claims).SignedString(i.signKey)
}

// Parse validates signature, algorithm, and expiry, and returns the subject
// account ID.
func (i *Issuer) Parse(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.signMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if i.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.config.Issuer))
	}
	if i.config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(i.config.Leeway))
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return i.verifyKey, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func parseEdPrivateKey(raw []byte) (ed25519.PrivateKey, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, errors.New("ed25519 private key must be a 32-byte seed or 64-byte key")
	}
}

func parseEdPublicKey(raw []byte) (ed25519.PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.New("ed25519 public key must be 32 bytes")
	}
	return ed25519.PublicKey(raw), nil
}
