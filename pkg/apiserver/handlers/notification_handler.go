package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/estagio/estagio/pkg/store"
)

const defaultNotificationLimit = 50

type NotificationHandler struct {
	notifications store.NotificationStore
	logger        *zap.Logger
}

func NewNotificationHandler(notifications store.NotificationStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List returns the caller's notifications, newest first. ?nao_lidas=true
// restricts the result to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	id := identity(c)
	unreadOnly := c.Query("nao_lidas") == "true"
	limit := parseLimit(c.Query("limit"), defaultNotificationLimit)

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), id.Email, unreadOnly, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":        len(notifications),
		"notificacoes": notifications,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkNotificationRead(c.Request.Context(), identity(c).Email, notificationID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notificação marcada como lida."})
}
