package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos_sales/internal/catalog"
)

type productHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewProductHandler(catalogService *catalog.Service, logger *zap.Logger) *productHandler {
	return &productHandler{catalog: catalogService, logger: logger}
}

type productRequest struct {
	Name           string          `json:"name" binding:"required"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Category       string          `json:"category"`
}

func (r productRequest) input() catalog.Input {
	return catalog.Input{
		Name:           r.Name,
		RetailPrice:    r.RetailPrice,
		WholesalePrice: r.WholesalePrice,
		Category:       r.Category,
	}
}

func (h *productHandler) handleList(ctx *gin.Context) {
	products, err := h.catalog.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to list products")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": products})
}

// handleRefresh reloads the catalog from the spreadsheet, keeping the local
// copy when the spreadsheet is unreachable.
func (h *productHandler) handleRefresh(ctx *gin.Context) {
	products, err := h.catalog.Refresh(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to refresh products")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": products})
}

func (h *productHandler) handleCreate(ctx *gin.Context) {
	var req productRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	product, err := h.catalog.Create(ctx.Request.Context(), req.input())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to create product")
		return
	}
	ctx.JSON(http.StatusCreated, product)
}

func (h *productHandler) handleUpdate(ctx *gin.Context) {
	var req productRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, h.logger, err)
		return
	}

	product, err := h.catalog.Update(ctx.Request.Context(), ctx.Param("id"), req.input())
	if err != nil {
		respondError(ctx, h.logger, err, "failed to update product")
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (h *productHandler) handleDelete(ctx *gin.Context) {
	if err := h.catalog.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, h.logger, err, "failed to delete product")
		return
	}
	ctx.Status(http.StatusNoContent)
}
