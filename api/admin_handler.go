package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
)

type adminHandler struct {
	authService *auth.Service
	logger      *zap.Logger
}

func NewAdminHandler(authService *auth.Service, logger *zap.Logger) *adminHandler {
	return &adminHandler{authService: authService, logger: logger}
}

// userView is a stored user without its password hash.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(u auth.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

func (h *adminHandler) handleListCodes(ctx *gin.Context) {
	codes, err := h.authService.ListCodes(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to list codes")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": codes})
}

func (h *adminHandler) handleGenerateCode(ctx *gin.Context) {
	var req struct {
		TempUserID string `json:"temp_user_id"`
	}
	// an empty body generates an unbound code
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, h.logger, err)
			return
		}
	}

	code, err := h.authService.GenerateCode(ctx.Request.Context(), req.TempUserID)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to generate code")
		return
	}
	ctx.JSON(http.StatusCreated, code)
}

func (h *adminHandler) handleListTempUsers(ctx *gin.Context) {
	tempUsers, err := h.authService.ListTempUsers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to list temp users")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": tempUsers})
}

func (h *adminHandler) handleCreateTempUser(ctx *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	tu, err := h.authService.CreateTempUser(ctx.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to create temp user")
		return
	}
	ctx.JSON(http.StatusCreated, tu)
}

func (h *adminHandler) handleUpdateTempUser(ctx *gin.Context) {
	var req struct {
		Name   *string `json:"name"`
		Email  *string `json:"email" binding:"omitempty,email"`
		Active *bool   `json:"active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	tu, err := h.authService.UpdateTempUser(ctx.Request.Context(), ctx.Param("id"), auth.TempUserUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		respondError(ctx, h.logger, err, "failed to update temp user")
		return
	}
	ctx.JSON(http.StatusOK, tu)
}

func (h *adminHandler) handleDeleteTempUser(ctx *gin.Context) {
	if err := h.authService.DeleteTempUser(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, h.logger, err, "failed to delete temp user")
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *adminHandler) handleListUsers(ctx *gin.Context) {
	users, err := h.authService.ListUsers(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to list users")
		return
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = viewOf(u)
	}
	ctx.JSON(http.StatusOK, gin.H{"results": views})
}

func (h *adminHandler) handleCreateUser(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required,min=4"`
		Role     string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	user, err := h.authService.CreateUser(ctx.Request.Context(), req.Email, req.Name, req.Password, auth.Role(req.Role))
	if err != nil {
		respondError(ctx, h.logger, err, "failed to create user")
		return
	}
	ctx.JSON(http.StatusCreated, viewOf(user))
}
