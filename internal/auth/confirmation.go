package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"reviewhub/internal/models"
)

var (
	ErrCodeExpired  = errors.New("confirmation code has expired")
	ErrCodeInvalid  = errors.New("confirmation code is malformed or has a bad signature")
	ErrCodeMismatch = errors.New("confirmation code was not issued for this user")
	ErrCodeConsumed = errors.New("confirmation code has already been used")
)

// ConsumedCodeStore records confirmation codes that have been exchanged so
// each code can be used only once. Consume returns false when the code was
// already present.
type ConsumedCodeStore interface {
	Consume(ctx context.Context, codeID string, ttl time.Duration) (bool, error)
}

// ConfirmationCodes issues and verifies the single-use codes mailed out
// during signup. A code is bound to the user's current state: changing the
// password, role or last-login timestamp invalidates every outstanding code.
type ConfirmationCodes struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	consumed ConsumedCodeStore
}

func NewConfirmationCodes(secret string, ttl time.Duration, consumed ConsumedCodeStore, now func() time.Time) *ConfirmationCodes {
	if now == nil {
		now = time.Now
	}
	return &ConfirmationCodes{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      now,
		consumed: consumed,
	}
}

// Issue signs a fresh confirmation code for the user.
func (c *ConfirmationCodes) Issue(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"state": stateDigest(user),
		"jti":   uuid.New().String(),
		"exp":   c.now().Add(c.ttl).Unix(),
		"iat":   c.now().Unix(),
		"type":  "confirmation",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks that code was issued for user, is unexpired, matches the
// user's current state, and has not been used before. On success the code
// is marked consumed.
func (c *ConfirmationCodes) Verify(ctx context.Context, user *models.User, code string) error {
	token, err := jwt.Parse(code, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrCodeExpired
		}
		return ErrCodeInvalid
	}
	if !token.Valid {
		return ErrCodeInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrCodeInvalid
	}
	if typ, _ := claims["type"].(string); typ != "confirmation" {
		return ErrCodeInvalid
	}

	sub, _ := claims["sub"].(string)
	state, _ := claims["state"].(string)
	if sub != user.ID || state != stateDigest(user) {
		return ErrCodeMismatch
	}

	codeID, _ := claims["jti"].(string)
	if codeID == "" {
		return ErrCodeInvalid
	}
	fresh, err := c.consumed.Consume(ctx, codeID, c.ttl)
	if err != nil {
		return fmt.Errorf("consume confirmation code: %w", err)
	}
	if !fresh {
		return ErrCodeConsumed
	}
	return nil
}

// stateDigest derives the state fingerprint a code is bound to.
func stateDigest(user *models.User) string {
	lastLogin := int64(0)
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.Unix()
	}
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", user.PasswordHash, user.Role, lastLogin))
	return hex.EncodeToString(h[:])
}
