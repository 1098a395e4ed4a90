package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/auth"
	"reviewhub/internal/mailer"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

type AuthService interface {
	// Register finds or creates the user and emails a confirmation code.
	Register(ctx context.Context, username, email string) (*models.User, error)
	// IssueToken exchanges a valid confirmation code for an access token.
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
}

type authService struct {
	userRepo repository.UserRepository
	codes    *auth.ConfirmationCodes
	tokens   *auth.AccessTokens
	mail     mailer.Mailer
	now      func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *auth.ConfirmationCodes,
	tokens *auth.AccessTokens,
	mail mailer.Mailer,
	now func() time.Time,
) AuthService {
	if now == nil {
		now = time.Now
	}
	return &authService{
		userRepo: userRepo,
		codes:    codes,
		tokens:   tokens,
		mail:     mail,
		now:      now,
	}
}

// Register implements the signup half of the two-step flow. Registering an
// already-known (username, email) pair is idempotent; a pair that collides
// with an existing user on only one of the two fields is rejected.
func (s *authService) Register(ctx context.Context, username, email string) (*models.User, error) {
	if strings.EqualFold(username, "me") {
		return nil, ErrReservedUsername
	}

	user, err := s.findOrCreate(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue confirmation code: %w", err)
	}

	// Email is the only channel the user has for the code, so a delivery
	// failure fails the whole registration.
	body := fmt.Sprintf(
		"Welcome, %s!\n\nYour confirmation code:\n\n%s\n\nExchange it at /v1/auth/token to receive an access token.\nDo not share this code with anyone.",
		user.Username, code,
	)
	if err := s.mail.Send(ctx, user.Email, "Your ReviewHub confirmation code", body); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) findOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Email != email {
			return nil, ErrUsernameMismatch
		}
		return existing, nil
	}

	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if byEmail != nil {
		// username differed, or FindByUsername above would have matched
		return nil, ErrEmailMismatch
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent signup; reclassify
			return s.classifyConflict(ctx, username, email)
		}
		return nil, err
	}
	return user, nil
}

// classifyConflict re-runs the lookups after a unique-constraint loss so a
// concurrent identical signup stays idempotent and a partial collision gets
// the matching mismatch error.
func (s *authService) classifyConflict(ctx context.Context, username, email string) (*models.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		if existing.Email == email {
			return existing, nil
		}
		return nil, ErrUsernameMismatch
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, ErrEmailMismatch
}

// IssueToken implements the token-exchange half of the flow.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if err := s.codes.Verify(ctx, user, confirmationCode); err != nil {
		return "", err
	}

	// Refresh last_login before issuing the token. This also rotates the
	// state every outstanding confirmation code is bound to.
	login := s.now()
	user.LastLogin = &login
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	return s.tokens.Issue(user)
}
