package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Class discriminates access tokens from refresh tokens.
type Class string

const (
	// ClassAccess tokens are short-lived and authorize ordinary requests.
	ClassAccess Class = "access"
	// ClassRefresh tokens are long-lived and only mint new access tokens.
	ClassRefresh Class = "refresh"
)

// Valid reports whether c is a known token class.
func (c Class) Valid() bool {
	return c == ClassAccess || c == ClassRefresh
}

func (c Class) String() string {
	return string(c)
}

// Claims is the typed content of a signed token. Email and Role are copies
// taken at issuance and are never re-validated against the user record.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	Class     Class
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// wireClaims is the JWT payload. Field names are part of the token format.
type wireClaims struct {
	Email string `json:"email"`
	Role  string `json:"type"`
	Class Class  `json:"token_type"`
	jwt.RegisteredClaims
}

func (c Claims) toWire(issuer string) wireClaims {
	w := wireClaims{
		Email: c.Email,
		Role:  c.Role,
		Class: c.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if !c.IssuedAt.IsZero() {
		w.IssuedAt = jwt.NewNumericDate(c.IssuedAt)
	}
	return w
}

func (w *wireClaims) toClaims() *Claims {
	c := &Claims{
		Subject: w.Subject,
		Email:   w.Email,
		Role:    w.Role,
		Class:   w.Class,
		Issuer:  w.Issuer,
	}
	if w.ExpiresAt != nil {
		c.ExpiresAt = w.ExpiresAt.UTC()
	}
	if w.IssuedAt != nil {
		c.IssuedAt = w.IssuedAt.UTC()
	}
	return c
}

// missingField returns the name of the first absent required field, or "".
func (w *wireClaims) missingField() string {
	switch {
	case w.Subject == "":
		return "sub"
	case w.Email == "":
		return "email"
	case w.Role == "":
		return "type"
	case w.ExpiresAt == nil:
		return "exp"
	case w.Class == "":
		return "token_type"
	}
	return ""
}
