package handler

import (
	"net/http"

	"go-techshop/apps/api/middleware"
	"go-techshop/internal/cart"
	"go-techshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	carts *cart.Service
}

func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) List(c *gin.Context) {
	lines, err := h.carts.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, lines)
}

type addItemRequest struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	line, err := h.carts.AddItem(c.Request.Context(), middleware.UserID(c), req.VariantID, req.Quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, line)
}

type updateQuantityRequest struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	line, err := h.carts.UpdateQuantity(c.Request.Context(), middleware.UserID(c), req.VariantID, req.Quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, line)
}

type changeVariantRequest struct {
	OldVariantID int64 `json:"old_variant_id" binding:"required"`
	NewVariantID int64 `json:"new_variant_id" binding:"required"`
}

func (h *CartHandler) ChangeVariant(c *gin.Context) {
	var req changeVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	line, err := h.carts.ChangeVariant(c.Request.Context(), middleware.UserID(c), req.OldVariantID, req.NewVariantID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, line)
}

type removeItemRequest struct {
	VariantID int64 `json:"variant_id" binding:"required"`
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), middleware.UserID(c), req.VariantID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"is_success": true})
}
