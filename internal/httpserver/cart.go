package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartsvc "storefront/internal/service/cart"
)

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handler) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), sessionFrom(c.Request.Context()).ownerID())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handler) addCartItem(c *gin.Context) {
	var req cartsvc.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), sessionFrom(c.Request.Context()).ownerID(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handler) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	cart, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), sessionFrom(c.Request.Context()).ownerID(), c.Param("itemId"), *req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handler) removeCartItem(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), sessionFrom(c.Request.Context()).ownerID(), c.Param("itemId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handler) clearCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), sessionFrom(c.Request.Context()).ownerID())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// mergeCart folds the device cart named by the anonymous token header into
// the signed-in user's cart.
func (h *handler) mergeCart(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.GetHeader(anonymousTokenHeader)
	if token == "" {
		badRequest(c, anonymousTokenHeader+" header is required")
		return
	}
	anonID, err := h.deps.AnonymousSvc.LookupByToken(ctx, token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	cart, err := h.deps.CartSvc.Merge(ctx, anonID, sessionFrom(ctx).ownerID())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
