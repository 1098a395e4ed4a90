package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/auth"
	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/service"
)

func TestAuthHandler_Signup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authSvc.On("Register", mock.Anything, "alice", "alice@example.com").
			Return(&models.User{Username: "alice", Email: "alice@example.com"}, nil).Once()

		w := f.do(http.MethodPost, "/v1/auth/signup", "",
			dto.SignupRequest{Username: "alice", Email: "alice@example.com"})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, "alice", resp["username"])
		assert.Equal(t, "alice@example.com", resp["email"])
		// the code travels by email only
		assert.NotContains(t, resp, "confirmation_code")
	})

	t.Run("BadUsernamePattern", func(t *testing.T) {
		f := newRouterFixture(t)
		w := f.do(http.MethodPost, "/v1/auth/signup", "",
			map[string]string{"username": "has spaces", "email": "x@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.authSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReservedUsername", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authSvc.On("Register", mock.Anything, "me", "me@example.com").
			Return(nil, service.ErrReservedUsername).Once()

		w := f.do(http.MethodPost, "/v1/auth/signup", "",
			dto.SignupRequest{Username: "me", Email: "me@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmailMismatch", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authSvc.On("Register", mock.Anything, "alicia", "alice@example.com").
			Return(nil, service.ErrEmailMismatch).Once()

		w := f.do(http.MethodPost, "/v1/auth/signup", "",
			dto.SignupRequest{Username: "alicia", Email: "alice@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Token(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authSvc.On("IssueToken", mock.Anything, "alice", "code123").
			Return("signed-token", nil).Once()

		w := f.do(http.MethodPost, "/v1/auth/token", "",
			dto.TokenRequest{Username: "alice", ConfirmationCode: "code123"})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, "signed-token", resp["token"])
	})

	t.Run("UnknownUser404", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authSvc.On("IssueToken", mock.Anything, "ghost", "code123").
			Return("", service.ErrUserNotFound).Once()

		w := f.do(http.MethodPost, "/v1/auth/token", "",
			dto.TokenRequest{Username: "ghost", ConfirmationCode: "code123"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadCode400", func(t *testing.T) {
		f := newRouterFixture(t)
		for _, codeErr := range []error{auth.ErrCodeInvalid, auth.ErrCodeExpired, auth.ErrCodeConsumed, auth.ErrCodeMismatch} {
			f.authSvc.On("IssueToken", mock.Anything, "alice", "bad").
				Return("", codeErr).Once()

			w := f.do(http.MethodPost, "/v1/auth/token", "",
				dto.TokenRequest{Username: "alice", ConfirmationCode: "bad"})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})

	t.Run("MissingFields400", func(t *testing.T) {
		f := newRouterFixture(t)
		w := f.do(http.MethodPost, "/v1/auth/token", "", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
