package httpserver

import (
	"net/http"
	"strconv"

	productrepo "storefront/internal/repository/product"
	productsvc "storefront/internal/service/product"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *handlers) listCategories(c *gin.Context) {
	list, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list, "count": len(list)})
}

func (h *handlers) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}
	cat, err := h.deps.Categories.Create(c.Request.Context(), actorFrom(c), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) listProducts(c *gin.Context) {
	f := productrepo.ListFilter{
		Category: c.Query("category"),
		SellerID: c.Query("seller"),
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		f.Offset = v
	}
	products, err := h.deps.Products.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProduct(p))
	}
	c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}

func (h *handlers) createProduct(c *gin.Context) {
	var req productsvc.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.Products.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toProduct(*p))
}

func (h *handlers) updateProduct(c *gin.Context) {
	var req productsvc.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.Products.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(*p))
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.Products.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
