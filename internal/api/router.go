// Package api exposes the HTTP surface: POS settlement, auth, recipes,
// onboarding preferences and the debug endpoints.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakutaro/tanabota/internal/auth"
	"github.com/sakutaro/tanabota/internal/middleware"
	"github.com/sakutaro/tanabota/internal/service"
	"github.com/sakutaro/tanabota/internal/storage"
	"github.com/sakutaro/tanabota/internal/tanabota"
)

// Deps bundles everything the router needs.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	POS           *service.POSService
	Recipes       *service.RecipeService
	Preferences   *service.PreferenceService
}

func init() {
	// dateonly validates profile dates like birthdate ("1995-04-01").
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
	}
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := &AuthHandler{Authenticator: deps.Authenticator, JWT: deps.JWT, Store: deps.Store}
	posHandler := &POSHandler{POS: deps.POS}
	recipeHandler := &RecipeHandler{Recipes: deps.Recipes}
	prefHandler := &PreferenceHandler{Preferences: deps.Preferences}
	debugHandler := &DebugHandler{Store: deps.Store}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.GET("/logout", authHandler.Logout)
	router.GET("/me", middleware.RequireAuth(deps.JWT), authHandler.Me)

	router.POST("/pos/execute", posHandler.Execute)

	router.GET("/recipe-templates", recipeHandler.ListTemplates)
	router.POST("/recipes", middleware.RequireAuth(deps.JWT), recipeHandler.CopyTemplate)
	router.GET("/recipes", middleware.RequireAuth(deps.JWT), recipeHandler.ListRecipes)

	router.POST("/preferences", middleware.RequireAuth(deps.JWT), prefHandler.CreateBatch)
	router.GET("/preferences", middleware.RequireAuth(deps.JWT), prefHandler.List)

	debug := router.Group("/debug")
	{
		debug.GET("/users", debugHandler.ListUsers)
		debug.POST("/create-test-user", debugHandler.CreateTestUser)
	}

	return router
}

// respondError maps service errors onto HTTP statuses. Unknown errors
// become a generic 500 so internals never leak into responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, tanabota.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid email or password"})
	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email already registered"})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
