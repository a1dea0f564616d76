package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/ds124wfegd/ticket-booker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService      service.BookingService
	cancellationService service.CancellationService
}

func NewBookingHandler(bookingService service.BookingService, cancellationService service.CancellationService) *BookingHandler {
	return &BookingHandler{
		bookingService:      bookingService,
		cancellationService: cancellationService,
	}
}

// CreateBooking treats an undecodable body as a request without lines so
// that the role check still runs first.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = service.CreateBookingRequest{}
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListBookings(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []*entity.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.cancellationService.CancelBooking(c.Request.Context(), middleware.Caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Cancelled Successfully"})
}
