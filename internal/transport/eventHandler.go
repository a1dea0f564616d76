package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/ds124wfegd/ticket-booker/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService  service.EventService
	ticketService service.TicketService
}

func NewEventHandler(eventService service.EventService, ticketService service.TicketService) *EventHandler {
	return &EventHandler{
		eventService:  eventService,
		ticketService: ticketService,
	}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), middleware.Caller(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetAllEvents(c *gin.Context) {
	events, err := h.eventService.GetAllEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []*entity.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), middleware.Caller(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), middleware.Caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EventHandler) GetEventTickets(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.ticketService.GetEventTickets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*entity.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}
