package httpserver

import (
	"net/http"

	cartsvc "storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type cartItemQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.Carts.Get(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCart(*cart))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartsvc.AddItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	item, err := h.deps.Carts.AddItem(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toCartItem(*item))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req cartItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	item, err := h.deps.Carts.UpdateItem(c.Request.Context(), actorFrom(c), c.Param("itemId"), req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCartItem(*item))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	if err := h.deps.Carts.RemoveItem(c.Request.Context(), actorFrom(c), c.Param("itemId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
