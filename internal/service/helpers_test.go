package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/database/memory"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	repos        Repositories
	clock        clock.Clock
	kicks        *countingKicker
	access       AccessService
	bookings     BookingService
	cancels      CancellationService
	events       EventService
	tickets      TicketService
	organiser    entity.CallerIdentity
	customer     entity.CallerIdentity
	otherCust    entity.CallerIdentity
	event        *entity.Event
	unrecognized entity.CallerIdentity
}

type countingKicker struct {
	mu sync.Mutex
	n  int
}

func (k *countingKicker) Kick() {
	k.mu.Lock()
	k.n++
	k.mu.Unlock()
}

func (k *countingKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.n
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	repos := Repositories{
		Tx:        store.TxManager(),
		Users:     store.Users(),
		Events:    store.Events(),
		Inventory: store.Inventory(),
		Bookings:  store.Bookings(),
		Outbox:    store.Outbox(),
	}
	return newTestEnvWith(t, repos)
}

func newTestEnvWith(t *testing.T, repos Repositories) *testEnv {
	t.Helper()
	ctx := context.Background()
	clk := clock.NewFixed(testNow)
	kicks := &countingKicker{}
	access := NewAccessService(repos.Users)
	retry := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}

	env := &testEnv{
		repos:    repos,
		clock:    clk,
		kicks:    kicks,
		access:   access,
		bookings: NewBookingService(repos, access, kicks, clk, retry),
		cancels:  NewCancellationService(repos, retry),
		events:   NewEventService(repos, kicks, clk),
		tickets:  NewTicketService(repos),
	}

	env.organiser = env.register(t, "org@example.com", entity.RoleOrganiser)
	env.customer = env.register(t, "cust@example.com", entity.RoleCustomer)
	env.otherCust = env.register(t, "other@example.com", entity.RoleCustomer)
	env.unrecognized = entity.Unrecognized()

	event, err := env.events.CreateEvent(ctx, env.organiser, &EventRequest{
		Name:     "Friday Party",
		DateTime: entity.NewCustomTime(testNow.Add(72 * time.Hour)),
		Venue:    "CP",
	})
	require.NoError(t, err)
	env.event = event
	return env
}

func (e *testEnv) register(t *testing.T, email string, role entity.Role) entity.CallerIdentity {
	t.Helper()
	user, err := NewUserService(e.repos.Users).RegisterUser(context.Background(), &RegisterUserRequest{
		Email: email,
		Name:  "Test User",
		Role:  role,
	})
	require.NoError(t, err)
	return e.access.Resolve(context.Background(), user.ID)
}

func (e *testEnv) newItem(t *testing.T, availability int, price int64) *entity.InventoryItem {
	t.Helper()
	allotment := availability
	if allotment == 0 {
		allotment = 10
	}
	item, err := e.tickets.CreateTicket(context.Background(), e.organiser, &CreateTicketRequest{
		EventID:        e.event.ID,
		Kind:           entity.TierGeneralAdmission,
		TotalAllotment: allotment,
		Availability:   &availability,
		UnitPrice:      price,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) availability(t *testing.T, id int64) int {
	t.Helper()
	item, err := e.repos.Inventory.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item.Availability
}

func (e *testEnv) pendingOutbox(t *testing.T) []*entity.OutboxMessage {
	t.Helper()
	msgs, err := e.repos.Outbox.ClaimPending(context.Background(), 100, testNow)
	require.NoError(t, err)
	return msgs
}

func line(ticket int64, count int) LineRequest {
	return LineRequest{TicketID: &ticket, Count: &count}
}

func lines(ls ...LineRequest) *CreateBookingRequest {
	return &CreateBookingRequest{Lines: ls}
}
