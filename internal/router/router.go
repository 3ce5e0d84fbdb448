package router

import (
	"net/http"

	"github.com/bizcribe/bizcribe-backend/config"
	"github.com/bizcribe/bizcribe-backend/internal/app/controller"
	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Auth       *controller.AuthController
	Business   *controller.BusinessController
	Submission *controller.SubmissionController
	Import     *controller.ImportController
}

// Setup wires all routes onto a gin engine.
func Setup(cfg *config.Config, ctrls Controllers) *gin.Engine {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrls.Auth.Register)
		auth.POST("/login", ctrls.Auth.Login)
		auth.POST("/refresh", ctrls.Auth.Refresh)
		auth.GET("/me", middleware.Authenticate(cfg.JWT.Secret), ctrls.Auth.Me)
		auth.PATCH("/me", middleware.Authenticate(cfg.JWT.Secret), ctrls.Auth.UpdateProfile)
	}

	businesses := api.Group("/businesses")
	{
		businesses.GET("", ctrls.Business.List)
		businesses.GET("/mine", middleware.Authenticate(cfg.JWT.Secret), ctrls.Business.Mine)
		businesses.GET("/pending",
			middleware.Authenticate(cfg.JWT.Secret),
			middleware.RequireRole(model.RoleAdmin),
			ctrls.Business.Pending)
		businesses.GET("/:id", middleware.OptionalAuthenticate(cfg.JWT.Secret), ctrls.Business.Get)
		businesses.POST("",
			middleware.Authenticate(cfg.JWT.Secret),
			middleware.RequireRole(model.RoleAdmin),
			ctrls.Business.Create)
		businesses.POST("/:id/approve",
			middleware.Authenticate(cfg.JWT.Secret),
			middleware.RequireRole(model.RoleAdmin),
			ctrls.Business.Approve)
		businesses.DELETE("/:id", middleware.Authenticate(cfg.JWT.Secret), ctrls.Business.Delete)
	}

	submissions := api.Group("/submissions")
	submissions.Use(middleware.Authenticate(cfg.JWT.Secret))
	{
		submissions.POST("", ctrls.Submission.Create)
		submissions.GET("/mine", ctrls.Submission.Mine)
		submissions.GET("/pending", middleware.RequireRole(model.RoleAdmin), ctrls.Submission.Pending)
		submissions.GET("", middleware.RequireRole(model.RoleAdmin), ctrls.Submission.Search)
		submissions.GET("/:id", ctrls.Submission.Get)
		submissions.POST("/:id/approve", middleware.RequireRole(model.RoleAdmin), ctrls.Submission.Approve)
		submissions.POST("/:id/reject", middleware.RequireRole(model.RoleAdmin), ctrls.Submission.Reject)
		submissions.DELETE("/:id", ctrls.Submission.Delete)
	}

	imports := api.Group("/imports")
	imports.Use(middleware.Authenticate(cfg.JWT.Secret), middleware.RequireRole(model.RoleAdmin))
	{
		imports.POST("", ctrls.Import.Upload)
		imports.GET("/batches", ctrls.Import.ListBatches)
		imports.GET("/batches/:id", ctrls.Import.GetBatch)
		imports.GET("/batches/:id/export", ctrls.Import.Export)
		imports.POST("/batches/:id/approve-all", ctrls.Import.ApproveAll)
		imports.POST("/batches/:id/approve", ctrls.Import.ApproveSelected)
		imports.POST("/batches/:id/reject", ctrls.Import.RejectSelected)
		imports.PATCH("/items/:id", ctrls.Import.UpdateItem)
		imports.POST("/items/:id/regeocode", ctrls.Import.Regeocode)
		imports.POST("/items/:id/reject", ctrls.Import.RejectItem)
		imports.POST("/items/:id/merge", ctrls.Import.Merge)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || origins[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
