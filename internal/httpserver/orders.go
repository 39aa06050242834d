package httpserver

import (
	"io"
	"net/http"

	checkoutsvc "storefront/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context(), actorFrom(c), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out)})
}

func (h *handlers) createOrder(c *gin.Context) {
	o, err := h.deps.Orders.CreateFromCart(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(*o))
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

func (h *handlers) cancelOrder(c *gin.Context) {
	o, err := h.deps.Orders.Cancel(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if err := h.deps.Orders.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getCheckout(c *gin.Context) {
	o, err := h.deps.Checkout.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

func (h *handlers) updateCheckout(c *gin.Context) {
	var req checkoutsvc.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	o, err := h.deps.Checkout.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

func (h *handlers) paymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "unreadable webhook payload")
		return
	}
	res, err := h.deps.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !res.Handled {
		c.JSON(http.StatusOK, gin.H{"detail": res.Detail})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":     res.Detail,
		"total_cost": res.TotalCost.StringFixed(2),
	})
}
