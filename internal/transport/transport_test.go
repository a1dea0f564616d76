package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/database/memory"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	repos := service.Repositories{
		Tx:        store.TxManager(),
		Users:     store.Users(),
		Events:    store.Events(),
		Inventory: store.Inventory(),
		Bookings:  store.Bookings(),
		Outbox:    store.Outbox(),
	}
	clk := clock.NewSystem()
	retry := service.RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond}
	notifications := service.NewNotificationService(repos.Outbox, service.LogPublisher{}, clk, 10, time.Hour)
	access := service.NewAccessService(repos.Users)
	tickets := service.NewTicketService(repos)

	router := InitRoutes(Handlers{
		Events:   NewEventHandler(service.NewEventService(repos, notifications, clk), tickets),
		Tickets:  NewTicketHandler(tickets),
		Bookings: NewBookingHandler(service.NewBookingService(repos, access, notifications, clk, retry), service.NewCancellationService(repos, retry)),
		Users:    NewUserHandler(service.NewUserService(repos.Users)),
	}, access, 5*time.Second)

	return &api{t: t, router: router}
}

func (a *api) do(method, path string, userID int64, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) decode(w *httptest.ResponseRecorder, v interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (a *api) register(email string, role entity.Role) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/users", 0, gin.H{"email": email, "name": "Test User", "role": role})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var u entity.User
	a.decode(w, &u)
	return u.ID
}

// seed registers an organiser and a customer and creates one event with a
// general admission tier.
func (a *api) seed(availability int, price int64) (organiser, customer, ticket int64) {
	a.t.Helper()
	organiser = a.register("org@example.com", entity.RoleOrganiser)
	customer = a.register("cust@example.com", entity.RoleCustomer)

	w := a.do(http.MethodPost, "/api/v1/events", organiser, gin.H{
		"event_name":        "Friday Party",
		"event_description": "A casual event on Friday",
		"event_date_time":   "2030-08-25T20:00",
		"venue":             "CP",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var event entity.Event
	a.decode(w, &event)

	w = a.do(http.MethodPost, "/api/v1/tickets", organiser, gin.H{
		"event":           event.ID,
		"ticket_type":     "GENERAL_ADMISSION",
		"total_allotment": availability,
		"price":           price,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var item entity.InventoryItem
	a.decode(w, &item)
	return organiser, customer, item.ID
}

func TestBookingLifecycle(t *testing.T) {
	a := newAPI(t)
	organiser, customer, ticket := a.seed(125, 149)

	w := a.do(http.MethodPost, "/api/v1/bookings", customer, gin.H{"lines": []gin.H{{"ticket": ticket, "count": 2}}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking entity.Booking
	a.decode(w, &booking)
	assert.Equal(t, int64(298), booking.TotalPrice)
	assert.Equal(t, entity.BookingStatusBooked, booking.Status)

	w = a.do(http.MethodGet, "/api/v1/tickets/"+strconv.FormatInt(ticket, 10), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item entity.InventoryItem
	a.decode(w, &item)
	assert.Equal(t, 123, item.Availability)

	w = a.do(http.MethodGet, "/api/v1/bookings", organiser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []entity.Booking
	a.decode(w, &list)
	assert.Len(t, list, 1)

	cancelPath := "/api/v1/bookings/" + strconv.FormatInt(booking.ID, 10) + "/cancel"
	w = a.do(http.MethodPatch, cancelPath, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"Cancelled Successfully"}`, w.Body.String())

	w = a.do(http.MethodPatch, cancelPath, customer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errBody ErrorResponse
	a.decode(w, &errBody)
	assert.Equal(t, "already_cancelled", errBody.Code)
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	organiser, customer, ticket := a.seed(1, 10)
	other := a.register("other@example.com", entity.RoleCustomer)

	w := a.do(http.MethodPost, "/api/v1/bookings", customer, gin.H{"lines": []gin.H{{"ticket": ticket, "count": 1}}})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking entity.Booking
	a.decode(w, &booking)
	bookingPath := "/api/v1/bookings/" + strconv.FormatInt(booking.ID, 10)

	tests := []struct {
		name   string
		method string
		path   string
		user   int64
		body   interface{}
		status int
		code   string
	}{
		{"organiser cannot book", http.MethodPost, "/api/v1/bookings", organiser, gin.H{"lines": []gin.H{{"ticket": ticket, "count": 1}}}, http.StatusForbidden, "not_a_customer"},
		{"anonymous cannot book", http.MethodPost, "/api/v1/bookings", 0, "{", http.StatusForbidden, "not_a_customer"},
		{"malformed body", http.MethodPost, "/api/v1/bookings", customer, `{"lines":[{"ticket":1,"count":"two"}]}`, http.StatusBadRequest, "invalid_line_data"},
		{"empty lines", http.MethodPost, "/api/v1/bookings", customer, gin.H{"lines": []gin.H{}}, http.StatusBadRequest, "invalid_line_data"},
		{"unknown ticket", http.MethodPost, "/api/v1/bookings", customer, gin.H{"lines": []gin.H{{"ticket": 999, "count": 1}}}, http.StatusNotFound, "ticket_not_found"},
		{"sold out", http.MethodPost, "/api/v1/bookings", customer, gin.H{"lines": []gin.H{{"ticket": ticket, "count": 1}}}, http.StatusConflict, "ticket_not_available"},
		{"not owner", http.MethodPatch, bookingPath + "/cancel", other, nil, http.StatusForbidden, "not_owner"},
		{"hidden booking", http.MethodGet, bookingPath, other, nil, http.StatusNotFound, "booking_not_found"},
		{"anonymous listing", http.MethodGet, "/api/v1/bookings", 0, nil, http.StatusForbidden, "not_a_valid_user"},
		{"anonymous event read", http.MethodGet, "/api/v1/events", 0, nil, http.StatusForbidden, "not_a_valid_user"},
		{"bad id", http.MethodGet, "/api/v1/bookings/abc", customer, nil, http.StatusBadRequest, "invalid_input"},
		{"customer cannot create events", http.MethodPost, "/api/v1/events", customer, gin.H{"event_name": "x", "event_date_time": "2030-01-01T10:00", "venue": "v"}, http.StatusForbidden, "not_an_organiser"},
		{"event has bookings", http.MethodDelete, "/api/v1/events/1", organiser, nil, http.StatusConflict, "event_has_bookings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, tt.user, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			var body ErrorResponse
			a.decode(w, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestEventRoutes(t *testing.T) {
	a := newAPI(t)
	organiser, customer, _ := a.seed(10, 10)

	w := a.do(http.MethodGet, "/api/v1/events/1/tickets", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []entity.InventoryItem
	a.decode(w, &items)
	assert.Len(t, items, 1)

	w = a.do(http.MethodPut, "/api/v1/events/1", organiser, gin.H{
		"event_name":      "Saturday Party",
		"event_date_time": "2030-08-26T21:30",
		"venue":           "Hauz Khas",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var event entity.Event
	a.decode(w, &event)
	assert.Equal(t, "Saturday Party", event.Name)
	assert.Equal(t, "2030-08-26T21:30", event.DateTime.Format("2006-01-02T15:04"))

	w = a.do(http.MethodPatch, "/api/v1/tickets/1", organiser, gin.H{"price": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item entity.InventoryItem
	a.decode(w, &item)
	assert.Equal(t, int64(20), item.UnitPrice)
	assert.Equal(t, 10, item.Availability)

	w = a.do(http.MethodDelete, "/api/v1/events/1", organiser, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", health(map[string]HealthCheck{
		"storage":  func(context.Context) error { return nil },
		"notifier": func(context.Context) error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["storage"])
	assert.Equal(t, "connection refused", body.Checks["notifier"])
}
