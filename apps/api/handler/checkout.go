package handler

import (
	"net/http"

	"go-techshop/apps/api/middleware"
	"go-techshop/internal/cart"
	"go-techshop/internal/checkout"
	"go-techshop/internal/combo"
	"go-techshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	carts     *cart.Service
	combos    *combo.Service
	projector *checkout.Projector
}

func NewCheckoutHandler(carts *cart.Service, combos *combo.Service, projector *checkout.Projector) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, combos: combos, projector: projector}
}

type checkoutRequest struct {
	// When ComboID is set the projection covers the combo selection
	// instead of the cart ledger.
	ComboID            int64   `json:"combo_id"`
	SelectedVariantIDs []int64 `json:"selected_variant_ids"`
}

// Project materializes the immutable line list consumed by order
// creation.
func (h *CheckoutHandler) Project(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	if req.ComboID > 0 {
		detail, err := h.combos.GetByID(ctx, req.ComboID)
		if err != nil {
			response.FromError(c, err)
			return
		}
		lines, err := h.projector.ProjectCombo(ctx, &detail.Combo, req.SelectedVariantIDs)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, lines)
		return
	}

	entries, err := h.carts.Entries(ctx, middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	lines, err := h.projector.Project(ctx, entries)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, lines)
}
