package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type handleCancellationRequest struct {
	Action domain.CancellationAction `json:"action"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes. router must already authenticate.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/allBookings", h.list)
	router.GET("/userBooking", h.userBookings)
	router.GET("/:id", h.get)
	router.PATCH("/admin/:id", RequireRole(domain.RoleAdmin), h.adminUpdate)
	router.PATCH("/updateUserBooking/:id", h.userUpdate)
	router.PATCH("/cancellation-request/:id", h.requestCancellation)
	router.PATCH("/handle-cancel/:id", RequireRole(domain.RoleAdmin), h.handleCancellation)
	router.DELETE("/:id", h.delete)
}

func (h *BookingHandler) create(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.Create(c.Request.Context(), p, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	bookings, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) userBookings(c *gin.Context) {
	p, ok := actor(c)
	if !ok {
		return
	}
	bookings, err := h.service.UserBookings(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) adminUpdate(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var input booking.AdminUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.AdminUpdate(c.Request.Context(), p, id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) userUpdate(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var input booking.UserUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.UserUpdate(c.Request.Context(), p, id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) requestCancellation(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	b, err := h.service.RequestCancellation(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) handleCancellation(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req handleCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.HandleCancellation(c.Request.Context(), p, id, req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) delete(c *gin.Context) {
	p, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

func actorAndID(c *gin.Context) (domain.Principal, int64, bool) {
	p, ok := actor(c)
	if !ok {
		return p, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return p, 0, false
	}
	return p, id, true
}
