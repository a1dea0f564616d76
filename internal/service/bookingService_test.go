package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_SingleLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.newItem(t, 125, 149)

	booking, err := env.bookings.CreateBooking(ctx, env.customer, lines(line(item.ID, 2)))
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusBooked, booking.Status)
	assert.False(t, booking.IsCancelled)
	assert.Equal(t, env.customer.ID, booking.CustomerID)
	assert.Equal(t, int64(298), booking.TotalPrice)
	require.Len(t, booking.Lines, 1)
	assert.Equal(t, int64(149), booking.Lines[0].UnitPrice)
	assert.Equal(t, 123, env.availability(t, item.ID))
}

func TestCreateBooking_InventoryErrors(t *testing.T) {
	tests := []struct {
		name         string
		availability int
		quantity     int
		want         error
	}{
		{name: "sold out", availability: 0, quantity: 1, want: entity.ErrItemNotAvailable},
		{name: "more than available", availability: 125, quantity: 200, want: entity.ErrInsufficientAvailability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			item := env.newItem(t, tt.availability, 149)

			_, err := env.bookings.CreateBooking(context.Background(), env.customer, lines(line(item.ID, tt.quantity)))
			assert.Equal(t, tt.want, err)
			assert.Equal(t, tt.availability, env.availability(t, item.ID))
			assert.Empty(t, env.pendingOutbox(t))
			assert.Zero(t, env.kicks.count())
		})
	}
}

func TestCreateBooking_RollsBackEarlierLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.newItem(t, 50, 100)
	second := env.newItem(t, 0, 100)

	_, err := env.bookings.CreateBooking(ctx, env.customer, lines(line(first.ID, 5), line(second.ID, 1)))
	assert.Equal(t, entity.ErrItemNotAvailable, err)

	assert.Equal(t, 50, env.availability(t, first.ID))
	assert.Equal(t, 0, env.availability(t, second.ID))

	list, err := env.bookings.ListBookings(ctx, env.customer)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateBooking_ValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	item := env.newItem(t, 10, 100)
	var missingTicket int64 = 999

	tests := []struct {
		name   string
		caller entity.CallerIdentity
		req    *CreateBookingRequest
		want   error
	}{
		{name: "organiser is not a customer", caller: env.organiser, req: lines(), want: entity.ErrNotACustomer},
		{name: "unrecognized caller", caller: env.unrecognized, req: lines(line(item.ID, 1)), want: entity.ErrNotACustomer},
		{name: "nil request", caller: env.customer, req: nil, want: entity.ErrInvalidLineData},
		{name: "no lines", caller: env.customer, req: lines(), want: entity.ErrInvalidLineData},
		{name: "missing ticket", caller: env.customer, req: lines(LineRequest{Count: new(int)}), want: entity.ErrInvalidLineData},
		{name: "missing count", caller: env.customer, req: lines(LineRequest{TicketID: &item.ID}), want: entity.ErrInvalidLineData},
		{name: "zero count", caller: env.customer, req: lines(line(item.ID, 0)), want: entity.ErrInvalidLineData},
		{name: "negative count", caller: env.customer, req: lines(line(item.ID, -2)), want: entity.ErrInvalidLineData},
		{name: "bad line wins over unknown item", caller: env.customer, req: lines(line(missingTicket, 1), line(item.ID, 0)), want: entity.ErrInvalidLineData},
		{name: "unknown item", caller: env.customer, req: lines(line(item.ID, 1), line(missingTicket, 1)), want: entity.ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bookings.CreateBooking(context.Background(), tt.caller, tt.req)
			assert.Equal(t, tt.want, err)
		})
	}
	assert.Equal(t, 10, env.availability(t, item.ID))
}

func TestCreateBooking_TotalPriceAcrossLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ga := env.newItem(t, 100, 149)
	vip := env.newItem(t, 20, 999)

	booking, err := env.bookings.CreateBooking(ctx, env.customer, lines(line(ga.ID, 3), line(vip.ID, 2), line(ga.ID, 1)))
	require.NoError(t, err)

	assert.Equal(t, int64(149*3+999*2+149*1), booking.TotalPrice)
	assert.Equal(t, 96, env.availability(t, ga.ID))
	assert.Equal(t, 18, env.availability(t, vip.ID))

	// later price changes do not touch the stored total
	newPrice := int64(1)
	_, err = env.tickets.UpdateTicket(ctx, env.organiser, ga.ID, &UpdateTicketRequest{UnitPrice: &newPrice})
	require.NoError(t, err)

	stored, err := env.bookings.GetBooking(ctx, env.customer, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.TotalPrice, stored.TotalPrice)
	assert.Equal(t, int64(149), stored.Lines[0].UnitPrice)
}

func TestCreateBooking_EnqueuesConfirmation(t *testing.T) {
	env := newTestEnv(t)
	item := env.newItem(t, 10, 100)

	booking, err := env.bookings.CreateBooking(context.Background(), env.customer, lines(line(item.ID, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, env.kicks.count())

	msgs := env.pendingOutbox(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.NotificationBookingConfirmed, msgs[0].Type)
	assert.NotEmpty(t, msgs[0].Key)

	var payload entity.BookingConfirmedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &payload))
	assert.Equal(t, booking.ID, payload.BookingID)
	assert.Equal(t, []int64{item.ID}, payload.TicketItemIDs)
	assert.Equal(t, "cust@example.com", payload.CustomerEmail)
}

func TestCreateBooking_NoOversellUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	item := env.newItem(t, 100, 10)

	const workers = 60
	const perBooking = 3

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookings.CreateBooking(context.Background(), env.customer, lines(line(item.ID, perBooking)))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			kind, ok := entity.KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, entity.KindInventory, kind)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100/perBooking, succeeded)
	assert.Equal(t, 100-succeeded*perBooking, env.availability(t, item.ID))
}

func TestListAndGetBookings_Scoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.newItem(t, 10, 100)

	mine, err := env.bookings.CreateBooking(ctx, env.customer, lines(line(item.ID, 1)))
	require.NoError(t, err)
	theirs, err := env.bookings.CreateBooking(ctx, env.otherCust, lines(line(item.ID, 1)))
	require.NoError(t, err)

	list, err := env.bookings.ListBookings(ctx, env.customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = env.bookings.ListBookings(ctx, env.organiser)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	strangerOrg := env.register(t, "stranger@example.com", entity.RoleOrganiser)
	list, err = env.bookings.ListBookings(ctx, strangerOrg)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.bookings.ListBookings(ctx, env.unrecognized)
	assert.Equal(t, entity.ErrNotAValidUser, err)

	_, err = env.bookings.GetBooking(ctx, env.customer, theirs.ID)
	assert.Equal(t, entity.ErrBookingNotFound, err)

	got, err := env.bookings.GetBooking(ctx, env.organiser, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, env.otherCust.ID, got.CustomerID)
}
