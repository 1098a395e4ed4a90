package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/auth"
	"reviewhub/internal/models"
)

func TestAuthenticateOptional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewAccessTokens("test-secret", time.Hour, time.Now)

	r := gin.New()
	r.GET("/read", AuthenticateOptional(tokens), func(c *gin.Context) {
		userID, role, ok := Actor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role.String(), "resolved": ok})
	})

	hit := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/read", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("AnonymousPassesThrough", func(t *testing.T) {
		w := hit("")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"resolved":false`)
	})

	t.Run("BearerResolvesActor", func(t *testing.T) {
		token, err := tokens.Issue(&models.User{ID: "42a0", Username: "alice", Role: models.RoleModerator})
		require.NoError(t, err)

		w := hit("Bearer " + token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"resolved":true`)
		assert.Contains(t, w.Body.String(), `"user_id":"42a0"`)
		assert.Contains(t, w.Body.String(), `"role":"moderator"`)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		w := hit("Bearer not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
