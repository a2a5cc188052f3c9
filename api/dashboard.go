package api

import (
	"net/http"

	"github.com/Domenick1991/tourbooking/internal/service/dashboard"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service dashboard.DashboardUseCase
}

func NewDashboardHandler(service dashboard.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.stats)
}

func (h *DashboardHandler) stats(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
