package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/catalog"
	"pos_sales/internal/sales"
	"pos_sales/internal/session"
)

// Dependencies are the services the routes are bound to. LoginLimiter may
// be nil to disable throttling of the login endpoints.
type Dependencies struct {
	Auth         *auth.Service
	Catalog      *catalog.Service
	Sales        *sales.Service
	Sessions     *session.Manager
	LoginLimiter Limiter
	Logger       *zap.Logger
	ServiceName  string
}

// InitRoutes registers every endpoint on the given Gin engine. Everything
// except /ping and the login endpoints needs a session; catalog edits,
// approvals and the admin group also need the admin role.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Sessions, logger)
	productHandler := NewProductHandler(deps.Catalog, logger)
	salesHandler := NewSalesHandler(deps.Sales, logger)
	adminHandler := NewAdminHandler(deps.Auth, logger)

	e.Use(Tracing(deps.ServiceName), RequestLogger(logger), gin.Recovery())

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	login := e.Group("/auth")
	if deps.LoginLimiter != nil {
		login.Use(RateLimit(deps.LoginLimiter, logger))
	}
	login.POST("/login", authHandler.handleLogin)
	login.POST("/code", authHandler.handleCodeLogin)

	authed := e.Group("/", RequireSession(deps.Sessions))
	admin := RequireRole(auth.RoleAdmin)

	authed.POST("/auth/logout", authHandler.handleLogout)
	authed.GET("/auth/me", authHandler.handleMe)

	authed.GET("/products", productHandler.handleList)
	authed.POST("/products/refresh", admin, productHandler.handleRefresh)
	authed.POST("/products", admin, productHandler.handleCreate)
	authed.PUT("/products/:id", admin, productHandler.handleUpdate)
	authed.DELETE("/products/:id", admin, productHandler.handleDelete)

	authed.POST("/sales/quote", salesHandler.handleQuote)
	authed.POST("/sales", salesHandler.handleCreateSale)
	authed.GET("/sales", salesHandler.handlerGetSale)
	authed.GET("/sales/export", salesHandler.handleExport)
	authed.GET("/sales/stats", salesHandler.handleStats)
	authed.GET("/sales/pending", admin, salesHandler.handlePending)
	authed.POST("/sales/:id/approve", admin, salesHandler.handleApprove)
	authed.POST("/sales/:id/reject", admin, salesHandler.handleReject)

	adminGroup := authed.Group("/admin", admin)
	adminGroup.GET("/codes", adminHandler.handleListCodes)
	adminGroup.POST("/codes", adminHandler.handleGenerateCode)
	adminGroup.GET("/temp-users", adminHandler.handleListTempUsers)
	adminGroup.POST("/temp-users", adminHandler.handleCreateTempUser)
	adminGroup.PUT("/temp-users/:id", adminHandler.handleUpdateTempUser)
	adminGroup.DELETE("/temp-users/:id", adminHandler.handleDeleteTempUser)
	adminGroup.GET("/users", adminHandler.handleListUsers)
	adminGroup.POST("/users", adminHandler.handleCreateUser)
}
