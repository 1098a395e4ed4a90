package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"reviewhub/internal/auth"
	"reviewhub/internal/dto"
	"reviewhub/internal/middleware"
	"reviewhub/internal/policy"
)

// RouterDeps bundles everything the HTTP router needs.
type RouterDeps struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Categories *CategoryHandler
	Genres     *GenreHandler
	Titles     *TitleHandler
	Reviews    *ReviewHandler
	Comments   *CommentHandler

	Tokens *auth.AccessTokens

	CORSOrigins []string
	AuthRPS     float64
	AuthBurst   int
}

// NewRouter assembles the /v1 route table.
func NewRouter(deps RouterDeps) *gin.Engine {
	dto.RegisterValidators()

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = deps.CORSOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
		r.Use(cors.New(corsCfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authn := middleware.Authenticate(deps.Tokens)
	authOpt := middleware.AuthenticateOptional(deps.Tokens)
	admin := middleware.RequireRole(policy.RoleAdmin)

	v1 := r.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		if deps.AuthRPS > 0 {
			authGroup.Use(middleware.RateLimit(deps.AuthRPS, deps.AuthBurst))
		}
		{
			authGroup.POST("/signup", deps.Auth.Signup)
			authGroup.POST("/token", deps.Auth.Token)
		}

		users := v1.Group("/users")
		{
			// the self-service path is open to any authenticated user
			users.GET("/me", authn, deps.Users.GetProfile)
			users.PATCH("/me", authn, deps.Users.UpdateProfile)

			users.GET("", authn, admin, deps.Users.List)
			users.POST("", authn, admin, deps.Users.Create)
			users.GET("/:username", authn, admin, deps.Users.Get)
			users.PATCH("/:username", authn, admin, deps.Users.Update)
			users.DELETE("/:username", authn, admin, deps.Users.Delete)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", authOpt, deps.Categories.List)
			categories.POST("", authn, admin, deps.Categories.Create)
			categories.DELETE("/:slug", authn, admin, deps.Categories.Delete)
		}

		genres := v1.Group("/genres")
		{
			genres.GET("", authOpt, deps.Genres.List)
			genres.POST("", authn, admin, deps.Genres.Create)
			genres.DELETE("/:slug", authn, admin, deps.Genres.Delete)
		}

		titles := v1.Group("/titles")
		{
			titles.GET("", authOpt, deps.Titles.List)
			titles.POST("", authn, admin, deps.Titles.Create)
			titles.GET("/:title_id", authOpt, deps.Titles.Get)
			titles.PATCH("/:title_id", authn, admin, deps.Titles.Update)
			titles.DELETE("/:title_id", authn, admin, deps.Titles.Delete)

			reviews := titles.Group("/:title_id/reviews")
			{
				reviews.GET("", authOpt, deps.Reviews.List)
				reviews.POST("", authn, deps.Reviews.Create)
				reviews.GET("/:review_id", authOpt, deps.Reviews.Get)
				// ownership is checked per object in the service
				reviews.PATCH("/:review_id", authn, deps.Reviews.Update)
				reviews.DELETE("/:review_id", authn, deps.Reviews.Delete)

				comments := reviews.Group("/:review_id/comments")
				{
					comments.GET("", authOpt, deps.Comments.List)
					comments.POST("", authn, deps.Comments.Create)
					comments.GET("/:comment_id", authOpt, deps.Comments.Get)
					comments.PATCH("/:comment_id", authn, deps.Comments.Update)
					comments.DELETE("/:comment_id", authn, deps.Comments.Delete)
				}
			}
		}
	}

	return r
}
