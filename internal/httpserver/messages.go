package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	messagesvc "storefront/internal/service/message"
)

func (h *handler) createMessage(c *gin.Context) {
	var req messagesvc.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	m, err := h.deps.MessageSvc.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *handler) adminListMessages(c *gin.Context) {
	msgs, err := h.deps.MessageSvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(msgs), "results": msgs})
}

func (h *handler) adminUnreadCount(c *gin.Context) {
	n, err := h.deps.MessageSvc.UnreadCount(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

func (h *handler) adminMarkMessageRead(c *gin.Context) {
	m, err := h.deps.MessageSvc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *handler) adminDeleteMessage(c *gin.Context) {
	if err := h.deps.MessageSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
