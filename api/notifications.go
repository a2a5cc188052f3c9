package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/service/notifications"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notifications.NotificationUseCase
}

func NewNotificationHandler(service notifications.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Register mounts the notification routes. router must already authenticate.
func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	admin := router.Group("/admin", RequireRole(domain.RoleAdmin))
	admin.GET("", h.adminList)
	admin.PATCH("/seen/:id", h.markRead)
	admin.PATCH("/seen", h.markAllAdminRead)

	router.GET("/user", h.userPage)
	router.GET("/user/unread", h.unreadCount)
	router.PATCH("/user/seen/:id", h.markRead)
	router.PATCH("/user/seen-all", h.markAllUserRead)
	router.GET("/unread", h.unread)
}

func (h *NotificationHandler) adminList(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.service.AdminList(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) markAllAdminRead(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	n, err := h.service.MarkAllAdminRead(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read", "updated": n})
}

func (h *NotificationHandler) markAllUserRead(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	n, err := h.service.MarkAllUserRead(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read", "updated": n})
}

func (h *NotificationHandler) userPage(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, "invalid offset")
		return
	}

	page, err := h.service.UserPage(c.Request.Context(), p, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) unreadCount(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) unread(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	items, err := h.service.Unread(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
