package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type orderList struct {
	Count   int            `json:"count"`
	Results []domain.Order `json:"results"`
}

func newOrderList(orders []domain.Order) orderList {
	if orders == nil {
		orders = []domain.Order{}
	}
	return orderList{Count: len(orders), Results: orders}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *handler) placeOrder(c *gin.Context) {
	var req ordersvc.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s := sessionFrom(c.Request.Context())
	o, err := h.deps.OrderSvc.PlaceOrder(c.Request.Context(), s.ownerID(), s.identity, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *handler) myOrders(c *gin.Context) {
	s := sessionFrom(c.Request.Context())
	orders, err := h.deps.OrderSvc.ListByUser(c.Request.Context(), s.principal.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderList(orders))
}

// adminListOrders lists every order, or one customer's orders when the
// email query parameter is set.
func (h *handler) adminListOrders(c *gin.Context) {
	var (
		orders []domain.Order
		err    error
	)
	if email := strings.TrimSpace(c.Query("email")); email != "" {
		orders, err = h.deps.OrderSvc.ListByCustomerEmail(c.Request.Context(), email)
	} else {
		orders, err = h.deps.OrderSvc.List(c.Request.Context())
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderList(orders))
}

func (h *handler) adminUpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status), req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handler) adminOrderPDF(c *gin.Context) {
	name, doc, err := h.deps.OrderSvc.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", doc)
}
