package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/session"
)

type authHandler struct {
	authService *auth.Service
	sessions    *session.Manager
	logger      *zap.Logger
}

func NewAuthHandler(authService *auth.Service, sessions *session.Manager, logger *zap.Logger) *authHandler {
	return &authHandler{authService: authService, sessions: sessions, logger: logger}
}

func (h *authHandler) handleLogin(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	id, err := h.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to log in")
		return
	}
	h.startSession(ctx, id)
}

func (h *authHandler) handleCodeLogin(ctx *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	id, err := h.authService.LoginWithCode(ctx.Request.Context(), req.Code)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to log in")
		return
	}
	h.startSession(ctx, id)
}

func (h *authHandler) startSession(ctx *gin.Context, id auth.Identity) {
	if err := h.sessions.Save(ctx.Writer, ctx.Request, id); err != nil {
		h.logger.Error("failed to store session", zap.String("user_id", id.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}
	ctx.JSON(http.StatusOK, id)
}

func (h *authHandler) handleLogout(ctx *gin.Context) {
	if err := h.sessions.Clear(ctx.Writer, ctx.Request); err != nil {
		h.logger.Error("failed to clear session", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *authHandler) handleMe(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, currentIdentity(ctx))
}
