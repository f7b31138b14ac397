package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Issuer marks tokens minted by this server; those are backed by a row in
// the sessions table.
const Issuer = "absensi"

type Claims struct {
	UserID    string `json:"uid,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the user id, falling back to the subject for tokens
// issued by an external identity provider.
func (c *Claims) Principal() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return errors.New("password must contain upper and lower case letters and a number")
	}
	return nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verifier checks locally signed HS256 tokens and, when configured, tokens
// signed by an external identity provider published as a JWKS.
type Verifier struct {
	secret []byte
	jwks   keyfunc.Keyfunc
}

func NewVerifier(ctx context.Context, secret, jwksURL string) (*Verifier, error) {
	v := &Verifier{secret: []byte(secret)}
	if jwksURL == "" {
		return v, nil
	}
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	v.jwks = k
	return v, nil
}

// NewVerifierWithKeyfunc is used when the key set is already at hand.
func NewVerifierWithKeyfunc(secret string, k keyfunc.Keyfunc) *Verifier {
	return &Verifier{secret: []byte(secret), jwks: k}
}

func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.key, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Principal() == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *Verifier) key(token *jwt.Token) (any, error) {
	if token.Method == jwt.SigningMethodHS256 {
		if len(v.secret) == 0 {
			return nil, errors.New("local tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}
	return nil, errors.New("unexpected signing method")
}
