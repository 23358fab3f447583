package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/catalog"
	"pos_sales/internal/sales"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, sales.ErrNoIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, sales.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, auth.ErrTempUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrTempUserInactive):
		return http.StatusConflict
	case errors.Is(err, sales.ErrEmptySale),
		errors.Is(err, sales.ErrInvalidQuantity),
		errors.Is(err, sales.ErrUnknownProduct),
		errors.Is(err, sales.ErrInvalidStatus),
		errors.Is(err, sales.ErrLineOutOfRange),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, errInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and hidden
// behind msg.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("failed to bind request", zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
}
