package handler

import (
	"net/http"
	"strconv"

	"go-techshop/internal/combo"
	"go-techshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type ComboHandler struct {
	combos *combo.Service
}

func NewComboHandler(combos *combo.Service) *ComboHandler {
	return &ComboHandler{combos: combos}
}

func comboID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid combo id")
		return 0, false
	}
	return id, true
}

func (h *ComboHandler) List(c *gin.Context) {
	details, err := h.combos.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, details)
}

func (h *ComboHandler) ListManagement(c *gin.Context) {
	details, err := h.combos.ListManagement(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, details)
}

func (h *ComboHandler) Get(c *gin.Context) {
	id, ok := comboID(c)
	if !ok {
		return
	}
	detail, err := h.combos.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *ComboHandler) Create(c *gin.Context) {
	var in combo.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.combos.Create(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, detail)
}

func (h *ComboHandler) Update(c *gin.Context) {
	id, ok := comboID(c)
	if !ok {
		return
	}

	var in combo.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.combos.Update(c.Request.Context(), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *ComboHandler) Delete(c *gin.Context) {
	id, ok := comboID(c)
	if !ok {
		return
	}
	if err := h.combos.SoftDelete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"is_success": true})
}

func (h *ComboHandler) Restore(c *gin.Context) {
	id, ok := comboID(c)
	if !ok {
		return
	}
	if err := h.combos.Restore(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"is_success": true})
}
