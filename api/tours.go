package api

import (
	"net/http"

	"github.com/Domenick1991/tourbooking/internal/service/tours"
	"github.com/gin-gonic/gin"
)

type TourHandler struct {
	service tours.TourUseCase
}

func NewTourHandler(service tours.TourUseCase) *TourHandler {
	return &TourHandler{service: service}
}

func (h *TourHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *TourHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// get accepts either the numeric id or the slug.
func (h *TourHandler) get(c *gin.Context) {
	tour, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}
