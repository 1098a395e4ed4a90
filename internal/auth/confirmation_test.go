package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/models"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testUser() *models.User {
	return &models.User{
		ID:       "4e8f2b1a-0000-0000-0000-000000000001",
		Username: "reader",
		Email:    "reader@example.com",
		Role:     "user",
	}
}

func TestConfirmationCodeRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))
	user := testUser()

	code, err := codes.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	assert.NoError(t, codes.Verify(context.Background(), user, code))
}

func TestConfirmationCodeSingleUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))
	user := testUser()

	code, err := codes.Issue(user)
	require.NoError(t, err)

	require.NoError(t, codes.Verify(context.Background(), user, code))
	assert.ErrorIs(t, codes.Verify(context.Background(), user, code), ErrCodeConsumed)
}

func TestConfirmationCodeWrongUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))

	code, err := codes.Issue(testUser())
	require.NoError(t, err)

	other := testUser()
	other.ID = "4e8f2b1a-0000-0000-0000-000000000002"
	assert.ErrorIs(t, codes.Verify(context.Background(), other, code), ErrCodeMismatch)
}

func TestConfirmationCodeInvalidatedByStateChange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))
	user := testUser()

	code, err := codes.Issue(user)
	require.NoError(t, err)

	// A later login changes the user's state and must void the code.
	login := now.Add(-time.Minute)
	user.LastLogin = &login
	assert.ErrorIs(t, codes.Verify(context.Background(), user, code), ErrCodeMismatch)
}

func TestConfirmationCodeExpiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := testUser()

	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(issued)), fixedClock(issued))
	code, err := codes.Issue(user)
	require.NoError(t, err)

	// Same secret, clock moved past the TTL.
	later := issued.Add(2 * time.Hour)
	expired := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(later)), fixedClock(later))
	assert.ErrorIs(t, expired.Verify(context.Background(), user, code), ErrCodeExpired)
}

func TestConfirmationCodeGarbage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))

	assert.ErrorIs(t, codes.Verify(context.Background(), testUser(), "not-a-code"), ErrCodeInvalid)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewAccessTokens(testSecret, 15*time.Minute, fixedClock(now))
	user := testUser()
	user.Role = "moderator"

	signed, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "reader", claims.Username)
	assert.Equal(t, "moderator", claims.Role)
}

func TestAccessTokenExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewAccessTokens(testSecret, 15*time.Minute, fixedClock(issued))

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	later := NewAccessTokens(testSecret, 15*time.Minute, fixedClock(issued.Add(time.Hour)))
	_, err = later.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmationCodeNotAcceptedAsAccessToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := NewConfirmationCodes(testSecret, time.Hour, NewMemoryCodeStore(fixedClock(now)), fixedClock(now))
	tokens := NewAccessTokens(testSecret, 15*time.Minute, fixedClock(now))

	code, err := codes.Issue(testUser())
	require.NoError(t, err)

	_, err = tokens.Parse(code)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
