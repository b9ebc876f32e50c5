// Package tokens encodes and decodes the signed, expiring credentials handed
// to clients as access and refresh tokens.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned by Decode when the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by Decode for bad signatures, malformed
	// payloads and missing or unknown fields.
	ErrTokenInvalid = errors.New("invalid token")

	ErrEmptySecret          = errors.New("token secret must not be empty")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// DefaultAlgorithm is used when Config.Algorithm is empty.
const DefaultAlgorithm = "HS256"

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// SupportedAlgorithm reports whether alg can be used by a Codec.
func SupportedAlgorithm(alg string) bool {
	_, ok := signingMethods[alg]
	return ok
}

// Config configures a Codec.
type Config struct {
	Secret    string
	Algorithm string
	Issuer    string
	// Now is the clock used to check expiry. Defaults to time.Now.
	Now func() time.Time
}

// Codec signs and verifies tokens with a shared HMAC secret. It is safe for
// concurrent use.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	issuer string
	parser *jwt.Parser
}

// NewCodec returns a Codec for cfg.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now().UTC() }),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Codec{
		secret: []byte(cfg.Secret),
		method: method,
		issuer: cfg.Issuer,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Algorithm returns the JWT "alg" name used for signing.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Encode signs claims. The issuer is taken from the codec, not from
// claims.Issuer. The result is deterministic for identical claims.
func (c *Codec) Encode(claims Claims) (string, error) {
	if claims.ExpiresAt.IsZero() {
		return "", errors.New("failed to encode token: missing expiry")
	}
	if !claims.Class.Valid() {
		return "", fmt.Errorf("failed to encode token: unknown class %q", claims.Class)
	}

	w := claims.toWire(c.issuer)
	if field := w.missingField(); field != "" {
		return "", fmt.Errorf("failed to encode token: missing %s", field)
	}

	signed, err := jwt.NewWithClaims(c.method, w).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of token and returns its claims.
// Expiry yields ErrTokenExpired, every other failure ErrTokenInvalid.
func (c *Codec) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	var w wireClaims
	_, err := c.parser.ParseWithClaims(token, &w, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if field := w.missingField(); field != "" {
		return nil, fmt.Errorf("%w: missing %s", ErrTokenInvalid, field)
	}
	if !w.Class.Valid() {
		return nil, fmt.Errorf("%w: unknown class %q", ErrTokenInvalid, w.Class)
	}

	return w.toClaims(), nil
}
