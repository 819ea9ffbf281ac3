package auth

import (
	"errors"
	"time"

	"weeklychef/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies claim sets with HS256 and a shared secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTIssuer == "" {
		return nil, errors.New("JWT_ISSUER is required")
	}
	return &Codec{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		leeway: cfg.Leeway,
	}, nil
}

func (c *Codec) Issuer() string { return c.issuer }

// Encode signs the claim set. An empty issuer is filled with the configured one.
// iat and exp are NumericDates, so CreatedAt and ExpiresAt keep whole seconds only.
func (c *Codec) Encode(cl Claims) (string, error) {
	if cl.Issuer == "" {
		cl.Issuer = c.issuer
	}
	cl.CreatedAt = truncateSeconds(cl.CreatedAt)
	cl.ExpiresAt = truncateSeconds(cl.ExpiresAt)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, toWire(cl))
	return t.SignedString(c.secret)
}

// Decode verifies the token and returns its claims.
//
// An exp in the past yields ErrExpired even when the signature does not verify.
// An issuer other than the configured one yields ErrInvalidSignature.
func (c *Codec) Decode(token string, now time.Time) (Claims, error) {
	var wc wireClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &wc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// Claims are decoded before the signature check, so exp is usable here.
			if c.expired(wc, now) {
				return Claims{}, ErrExpired
			}
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, ErrMalformedToken
		}
	}

	validator := jwt.NewValidator(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(c.leeway),
		jwt.WithIssuer(c.issuer),
	)
	if err := validator.Validate(wc); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, ErrMalformedToken
		}
	}

	if wc.UserID <= 0 {
		return Claims{}, ErrMalformedToken
	}
	return fromWire(wc), nil
}

func (c *Codec) expired(wc wireClaims, now time.Time) bool {
	if wc.ExpiresAt == nil {
		return false
	}
	return !now.Before(wc.ExpiresAt.Time.Add(c.leeway))
}
