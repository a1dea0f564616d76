package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stranger := env.register(t, "stranger@example.com", entity.RoleOrganiser)

	item, err := env.tickets.CreateTicket(ctx, env.organiser, &CreateTicketRequest{
		EventID:        env.event.ID,
		Kind:           entity.TierRoyal,
		TotalAllotment: 40,
		UnitPrice:      5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, item.Availability)

	tests := []struct {
		name   string
		caller entity.CallerIdentity
		req    *CreateTicketRequest
		want   error
	}{
		{
			name:   "customer",
			caller: env.customer,
			req:    &CreateTicketRequest{EventID: env.event.ID, Kind: entity.TierVIP, TotalAllotment: 1},
			want:   entity.ErrNotAnOrganiser,
		},
		{
			name:   "unknown kind",
			caller: env.organiser,
			req:    &CreateTicketRequest{EventID: env.event.ID, Kind: "BALCONY", TotalAllotment: 1},
			want:   entity.ErrInvalidTierKind,
		},
		{
			name:   "availability above allotment",
			caller: env.organiser,
			req:    &CreateTicketRequest{EventID: env.event.ID, Kind: entity.TierVIP, TotalAllotment: 5, Availability: intPtr(6)},
			want:   entity.ErrInvalidInput,
		},
		{
			name:   "negative price",
			caller: env.organiser,
			req:    &CreateTicketRequest{EventID: env.event.ID, Kind: entity.TierVIP, TotalAllotment: 5, UnitPrice: -1},
			want:   entity.ErrInvalidInput,
		},
		{
			name:   "someone else's event",
			caller: stranger,
			req:    &CreateTicketRequest{EventID: env.event.ID, Kind: entity.TierVIP, TotalAllotment: 5},
			want:   entity.ErrNotEventOwner,
		},
		{
			name:   "missing event",
			caller: env.organiser,
			req:    &CreateTicketRequest{EventID: env.event.ID + 9, Kind: entity.TierVIP, TotalAllotment: 5},
			want:   entity.ErrEventNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tickets.CreateTicket(ctx, tt.caller, tt.req)
			assert.Equal(t, tt.want, err)
		})
	}

	items, err := env.tickets.GetEventTickets(ctx, env.event.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpdateTicket_LeavesInventoryAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := env.newItem(t, 10, 100)

	_, err := env.bookings.CreateBooking(ctx, env.customer, lines(line(item.ID, 4)))
	require.NoError(t, err)

	kind := entity.TierPremium
	price := int64(250)
	updated, err := env.tickets.UpdateTicket(ctx, env.organiser, item.ID, &UpdateTicketRequest{Kind: &kind, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, entity.TierPremium, updated.Kind)
	assert.Equal(t, int64(250), updated.UnitPrice)

	stored, err := env.tickets.GetTicket(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Availability)
	assert.Equal(t, 10, stored.TotalAllotment)

	bad := entity.TierKind("BOX")
	_, err = env.tickets.UpdateTicket(ctx, env.organiser, item.ID, &UpdateTicketRequest{Kind: &bad})
	assert.Equal(t, entity.ErrInvalidTierKind, err)

	_, err = env.tickets.UpdateTicket(ctx, env.customer, item.ID, &UpdateTicketRequest{UnitPrice: &price})
	assert.Equal(t, entity.ErrNotAnOrganiser, err)
}

func TestGetEventTickets_MissingEvent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tickets.GetEventTickets(context.Background(), 404)
	assert.Equal(t, entity.ErrEventNotFound, err)
}
