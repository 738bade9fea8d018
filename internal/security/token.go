package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gymsync/internal/ids"
	"gymsync/internal/models"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// MockTokenPrefix marks the legacy debug token format "mock-token-<role>".
const MockTokenPrefix = "mock-token-"

type Format int

const (
	FormatSigned Format = iota + 1
	FormatLegacyMock
)

func (f Format) String() string {
	switch f {
	case FormatSigned:
		return "signed"
	case FormatLegacyMock:
		return "legacy-mock"
	}
	return "unknown"
}

type Claims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	jwt.RegisteredClaims
}

// Token is the decoded form of either credential format. Claims is set only
// for FormatSigned; a legacy mock token carries nothing but a role.
type Token struct {
	Format Format
	Claims *Claims
	Role   models.Role
}

func (t Token) SubjectID() string {
	if t.Claims == nil {
		return ""
	}
	return t.Claims.Subject
}

func (t Token) ExpiresAt() time.Time {
	if t.Claims == nil || t.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.Claims.ExpiresAt.Time
}

type Codec struct {
	secret    []byte
	ttl       time.Duration
	allowMock bool
	now       func() time.Time
}

func NewCodec(secret string, ttl time.Duration, allowMock bool) *Codec {
	return &Codec{
		secret:    []byte(secret),
		ttl:       ttl,
		allowMock: allowMock,
		now:       time.Now,
	}
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Issue(account models.Account) (string, Claims, error) {
	now := c.now()
	claims := Claims{
		Role:  account.Role,
		Email: account.Email,
		Name:  account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        ids.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, claims, nil
}

// Decode is the single entry point for both credential formats.
func (c *Codec) Decode(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Token{}, ErrTokenMalformed
	}

	if strings.HasPrefix(raw, MockTokenPrefix) {
		return c.decodeMock(strings.TrimPrefix(raw, MockTokenPrefix))
	}
	return c.decodeSigned(raw)
}

func (c *Codec) decodeMock(rawRole string) (Token, error) {
	if !c.allowMock {
		return Token{}, ErrTokenMalformed
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return Token{}, ErrTokenMalformed
	}
	return Token{Format: FormatLegacyMock, Role: role}, nil
}

func (c *Codec) decodeSigned(raw string) (Token, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Token{}, classify(err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Token{}, ErrTokenMalformed
	}
	return Token{Format: FormatSigned, Claims: claims, Role: claims.Role}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
