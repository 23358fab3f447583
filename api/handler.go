package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_sales/internal/sales"
)

var errInvalidFilter = errors.New("invalid filter")

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type lineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10000"`
}

type saleRequest struct {
	Items []lineRequest `json:"items" binding:"required,min=1,dive"`
}

func (r saleRequest) lines() []sales.Line {
	lines := make([]sales.Line, len(r.Items))
	for i, it := range r.Items {
		lines[i] = sales.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}

// handleQuote prices a draft without storing it.
func (h *salesHandler) handleQuote(ctx *gin.Context) {
	var req saleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	draft, err := h.salesService.Quote(ctx.Request.Context(), req.lines())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to price sale")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":     draft.Items,
		"quantity":  draft.Quantity,
		"wholesale": draft.Wholesale,
		"total":     draft.Total,
		"threshold": h.salesService.Threshold(),
	})
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req saleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	user := currentIdentity(ctx)
	sale, err := h.salesService.Submit(ctx.Request.Context(), user, req.lines())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to create sale")
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// searchFilter reads user_id, status and wholesale from the query string.
// Non-admins only ever see their own sales.
func (h *salesHandler) searchFilter(ctx *gin.Context) (sales.Filter, error) {
	f := sales.Filter{
		UserID: ctx.Query("user_id"),
		Status: ctx.Query("status"),
	}
	if raw := ctx.Query("wholesale"); raw != "" {
		w, err := strconv.ParseBool(raw)
		if err != nil {
			return sales.Filter{}, fmt.Errorf("%w: wholesale must be true or false", errInvalidFilter)
		}
		f.Wholesale = &w
	}
	if user := currentIdentity(ctx); !user.IsAdmin() {
		f.UserID = user.ID
	}
	return f, nil
}

func (h *salesHandler) handlerGetSale(ctx *gin.Context) {
	f, err := h.searchFilter(ctx)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to search sales")
		return
	}

	salesResults, metadata, err := h.salesService.Search(ctx.Request.Context(), f)
	if err != nil {
		h.logger.Error("Error searching sales",
			zap.String("userID_filter", f.UserID),
			zap.String("status_filter", f.Status),
			zap.Error(err),
		)
		respondError(ctx, h.logger, err, "failed to search sales")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": salesResults, "metadata": metadata})
}

func (h *salesHandler) handleExport(ctx *gin.Context) {
	f, err := h.searchFilter(ctx)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to export sales")
		return
	}

	results, _, err := h.salesService.Search(ctx.Request.Context(), f)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to export sales")
		return
	}

	filename := fmt.Sprintf("sales-%s.csv", time.Now().Format("2006-01-02"))
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Status(http.StatusOK)

	if err := sales.ExportCSV(ctx.Writer, results); err != nil {
		h.logger.Error("failed to write csv export", zap.Error(err))
		_ = ctx.Error(err)
	}
}

func (h *salesHandler) handleStats(ctx *gin.Context) {
	var userID string
	if user := currentIdentity(ctx); !user.IsAdmin() {
		userID = user.ID
	}

	stats, err := h.salesService.Stats(ctx.Request.Context(), userID, time.Now())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to compute stats")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

func (h *salesHandler) handlePending(ctx *gin.Context) {
	pending, err := h.salesService.ListPending(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to list pending sales")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": pending})
}

func (h *salesHandler) handleApprove(ctx *gin.Context) {
	saleID := ctx.Param("id")

	approved, err := h.salesService.Approve(ctx.Request.Context(), saleID)
	if err != nil {
		respondError(ctx, h.logger, err, "failed to approve sale")
		return
	}

	h.logger.Info("sale approved by admin",
		zap.String("sale_id", saleID),
		zap.String("admin_id", currentIdentity(ctx).ID),
	)
	ctx.JSON(http.StatusOK, approved)
}

func (h *salesHandler) handleReject(ctx *gin.Context) {
	saleID := ctx.Param("id")

	if err := h.salesService.Reject(ctx.Request.Context(), saleID); err != nil {
		respondError(ctx, h.logger, err, "failed to reject sale")
		return
	}

	h.logger.Info("sale rejected by admin",
		zap.String("sale_id", saleID),
		zap.String("admin_id", currentIdentity(ctx).ID),
	)
	ctx.Status(http.StatusNoContent)
}
