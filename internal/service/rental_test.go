package service

import (
	"context"
	"errors"
	"testing"

	"clan-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rentalFixture struct {
	store *memStore
	notes *recordingNotifier
	email *MockEmailService
	svc   RentalService
}

func newRentalFixture(t *testing.T) *rentalFixture {
	t.Helper()
	store := newMemStore()
	store.addUser("admin-1", "warlord", domain.RoleAdmin)
	store.addUser("renter-1", "raider", domain.RoleUser)
	store.addUser("renter-2", "scout", domain.RoleUser)

	notes := &recordingNotifier{}
	email := new(MockEmailService)
	email.On("SendRentalRequestNotification", mock.Anything, mock.Anything).Return(nil)

	users := memUsers{store}
	svc := NewRentalService(
		store,
		memRentals{store},
		memItems{store},
		users,
		NewTicketService(memCounters{store}),
		NewSettingsService(memSettings{store}, users),
		notes,
		email,
		"Return the items in the same condition.",
	)
	return &rentalFixture{store: store, notes: notes, email: email, svc: svc}
}

func cashRequest(days int32, lines ...RentalLine) CreateRentalRequest {
	return CreateRentalRequest{
		Lines:            lines,
		PaymentMethod:    domain.PaymentCash,
		RentalDays:       days,
		DeliveryLocation: domain.DeliveryCampValcrest,
		TermsAccepted:    true,
	}
}

func TestCreateRental_CostsAndCollateral(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	sword := f.store.addItem("Sword", 1_000_000, 4)

	t.Run("Daily", func(t *testing.T) {
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(3, RentalLine{ItemID: sword.ID, Quantity: 2}))
		require.NoError(t, err)

		assert.Equal(t, domain.RentalStatusPending, r.Status)
		assert.Equal(t, domain.RentalTypeDaily, r.RentalType)
		assert.Equal(t, int64(120_000), r.RentalCost)
		assert.Equal(t, int64(1_600_000), r.CollateralAmount)
		assert.Equal(t, int64(20), r.CreditsRequired)
		assert.Equal(t, "raider", r.RenterNickname)
		assert.Equal(t, "Return the items in the same condition.", r.TermsText)
		require.Len(t, r.Items, 1)
		assert.Equal(t, "Sword", r.Items[0].ItemName)
		assert.Equal(t, int64(20_000), r.Items[0].DailyRate)

		item := f.store.item(sword.ID)
		assert.Equal(t, domain.ItemReserved, item.Availability)
		assert.Equal(t, int32(4), item.AvailableQuantity)
	})

	t.Run("Weekly", func(t *testing.T) {
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(7, RentalLine{ItemID: sword.ID}))
		require.NoError(t, err)

		assert.Equal(t, domain.RentalTypeWeekly, r.RentalType)
		assert.Equal(t, int64(105_000), r.RentalCost)
		assert.Equal(t, int32(1), r.Items[0].Quantity)
	})

	assert.Equal(t, []string{"RENTAL_REQUEST", "RENTAL_REQUEST"}, f.notes.admins)
	f.email.AssertNumberOfCalls(t, "SendRentalRequestNotification", 2)
}

func TestCreateRental_Validation(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Bow", 500_000, 2)

	tests := []struct {
		name    string
		mutate  func(r *CreateRentalRequest)
		wantErr error
	}{
		{"no items", func(r *CreateRentalRequest) { r.Lines = nil }, ErrInvalidInput},
		{"duplicate item", func(r *CreateRentalRequest) {
			r.Lines = []RentalLine{{ItemID: item.ID}, {ItemID: item.ID}}
		}, ErrInvalidInput},
		{"negative quantity", func(r *CreateRentalRequest) { r.Lines[0].Quantity = -1 }, ErrInvalidInput},
		{"over available", func(r *CreateRentalRequest) { r.Lines[0].Quantity = 3 }, ErrInsufficientStock},
		{"zero days", func(r *CreateRentalRequest) { r.RentalDays = 0 }, ErrInvalidInput},
		{"eight days", func(r *CreateRentalRequest) { r.RentalDays = 8 }, ErrInvalidInput},
		{"bad location", func(r *CreateRentalRequest) { r.DeliveryLocation = "Castle" }, ErrInvalidInput},
		{"terms not accepted", func(r *CreateRentalRequest) { r.TermsAccepted = false }, ErrInvalidInput},
		{"unknown payment", func(r *CreateRentalRequest) { r.PaymentMethod = "gold" }, ErrInvalidInput},
		{"trade without collateral", func(r *CreateRentalRequest) { r.PaymentMethod = domain.PaymentTrade }, ErrInvalidInput},
		{"missing item", func(r *CreateRentalRequest) { r.Lines[0].ItemID = 999 }, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cashRequest(2, RentalLine{ItemID: item.ID, Quantity: 1})
			tt.mutate(&req)
			_, err := f.svc.CreateRental(ctx, "renter-1", req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, domain.ItemAvailable, f.store.item(item.ID).Availability)
}

func TestCreateRental_MissingItemLeavesNothingReserved(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	a := f.store.addItem("Axe", 300_000, 1)
	b := f.store.addItem("Shield", 300_000, 1)

	_, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1,
		RentalLine{ItemID: a.ID}, RentalLine{ItemID: 4242}, RentalLine{ItemID: b.ID}))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, domain.ItemAvailable, f.store.item(a.ID).Availability)
	assert.Equal(t, domain.ItemAvailable, f.store.item(b.ID).Availability)
	rentals, err := f.svc.ListMyRentals(ctx, "renter-1")
	require.NoError(t, err)
	assert.Empty(t, rentals)
}

func TestCreateRental_PaymentMethodDisabled(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Helm", 100_000, 1)

	off := domain.DefaultSettings()
	off.CashEnabled = false
	require.NoError(t, memSettings{f.store}.Save(ctx, &off))

	_, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
	assert.ErrorIs(t, err, ErrPaymentMethodDisabled)

	req := cashRequest(1, RentalLine{ItemID: item.ID})
	req.PaymentMethod = domain.PaymentCredit
	_, err = f.svc.CreateRental(ctx, "renter-1", req)
	assert.NoError(t, err)
}

func TestCreateRental_TradeCollateral(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Crossbow", 1_000_000, 1)
	cheap := f.store.addItem("Dagger", 500_000, 1)
	rich := f.store.addItem("Crown", 900_000, 1)

	req := cashRequest(2, RentalLine{ItemID: item.ID})
	req.PaymentMethod = domain.PaymentTrade

	req.CollateralItemIDs = []int32{cheap.ID}
	_, err := f.svc.CreateRental(ctx, "renter-1", req)
	assert.ErrorIs(t, err, ErrInsufficientCollateral)
	assert.Equal(t, domain.ItemAvailable, f.store.item(item.ID).Availability)

	req.CollateralItemIDs = []int32{rich.ID}
	r, err := f.svc.CreateRental(ctx, "renter-1", req)
	require.NoError(t, err)
	require.Len(t, r.CollateralItems, 1)
	assert.Equal(t, int64(900_000), r.CollateralItems[0].Value)
	assert.Equal(t, "Crown", r.CollateralItems[0].Name)
}

func TestRentalLifecycle_QuantityFlow(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Potion", 50_000, 5)

	r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(2, RentalLine{ItemID: item.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, int32(5), f.store.item(item.ID).AvailableQuantity)

	approved, err := f.svc.ApproveRental(ctx, "admin-1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.StartDate)
	got := f.store.item(item.ID)
	assert.Equal(t, int32(3), got.AvailableQuantity)
	assert.Equal(t, domain.ItemAvailable, got.Availability)

	_, err = f.svc.ApproveRental(ctx, "admin-1", r.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	completed, err := f.svc.CompleteRental(ctx, "admin-1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusCompleted, completed.Status)
	require.NotNil(t, completed.EndDate)
	got = f.store.item(item.ID)
	assert.Equal(t, int32(5), got.AvailableQuantity)
	assert.Equal(t, domain.ItemAvailable, got.Availability)

	assert.Equal(t, []string{"renter-1:RENTAL_APPROVED", "renter-1:RENTAL_COMPLETED"}, f.notes.users)
}

func TestApproveRental_LastUnitsMakeItemUnavailable(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Cloak", 200_000, 2)

	r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = f.svc.ApproveRental(ctx, "admin-1", r.ID)
	require.NoError(t, err)

	got := f.store.item(item.ID)
	assert.Equal(t, int32(0), got.AvailableQuantity)
	assert.Equal(t, domain.ItemUnavailable, got.Availability)

	_, err = f.svc.CreateRental(ctx, "renter-2", cashRequest(1, RentalLine{ItemID: item.ID}))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestApproveRental_SkipsDeletedItem(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	kept := f.store.addItem("Lance", 100_000, 3)
	gone := f.store.addItem("Mace", 100_000, 3)

	r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1,
		RentalLine{ItemID: kept.ID}, RentalLine{ItemID: gone.ID}))
	require.NoError(t, err)
	f.store.deleteItem(gone.ID)

	_, err = f.svc.ApproveRental(ctx, "admin-1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.store.item(kept.ID).AvailableQuantity)
}

func TestCancelRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Releases reserved item", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Staff", 100_000, 1)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)

		cancelled, err := f.svc.CancelRental(ctx, "admin-1", r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.EndDate)
		assert.Equal(t, domain.ItemAvailable, f.store.item(item.ID).Availability)
	})

	t.Run("Leaves item that is no longer reserved", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Wand", 100_000, 1)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		f.store.setAvailability(item.ID, domain.ItemUnavailable)

		_, err = f.svc.CancelRental(ctx, "admin-1", r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ItemUnavailable, f.store.item(item.ID).Availability)
	})

	t.Run("Active rental cannot be cancelled", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Orb", 100_000, 2)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		_, err = f.svc.ApproveRental(ctx, "admin-1", r.ID)
		require.NoError(t, err)

		_, err = f.svc.CancelRental(ctx, "admin-1", r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, int32(1), f.store.item(item.ID).AvailableQuantity)
	})

	t.Run("Pending rental cannot be completed", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Ring", 100_000, 1)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)

		_, err = f.svc.CompleteRental(ctx, "admin-1", r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestRentalTransitions_RequireAdmin(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Spear", 100_000, 1)
	r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
	require.NoError(t, err)

	_, err = f.svc.ApproveRental(ctx, "renter-1", r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.CancelRental(ctx, "renter-1", r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteRental(ctx, "renter-1", r.ID), ErrForbidden)
	_, err = f.svc.ListRentals(ctx, "renter-1", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ApproveRental(ctx, "admin-1", 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRental_ReturnsStock(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Hammer", 100_000, 3)

	active, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = f.svc.ApproveRental(ctx, "admin-1", active.ID)
	require.NoError(t, err)
	require.NoError(t, memChat{f.store}.Create(ctx, &domain.ChatMessage{RentalID: active.ID, SenderID: "renter-1", Message: "hi"}))

	require.NoError(t, f.svc.DeleteRental(ctx, "admin-1", active.ID))
	assert.Equal(t, int32(3), f.store.item(item.ID).AvailableQuantity)
	msgs, _ := memChat{f.store}.ListByRental(ctx, active.ID)
	assert.Empty(t, msgs)

	_, err = f.svc.GetRental(ctx, "admin-1", active.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteRental(ctx, "admin-1", active.ID), ErrNotFound)
}

func TestDeleteRental_ReservedItems(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending rental releases reserved item", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Crossbow", 100_000, 1)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		require.Equal(t, domain.ItemReserved, f.store.item(item.ID).Availability)

		require.NoError(t, f.svc.DeleteRental(ctx, "admin-1", r.ID))
		assert.Equal(t, domain.ItemAvailable, f.store.item(item.ID).Availability)
	})

	t.Run("Pending rental leaves item no longer reserved", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Halberd", 100_000, 1)
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		f.store.setAvailability(item.ID, domain.ItemUnavailable)

		require.NoError(t, f.svc.DeleteRental(ctx, "admin-1", r.ID))
		assert.Equal(t, domain.ItemUnavailable, f.store.item(item.ID).Availability)
	})

	t.Run("Cancelled rental leaves item reserved by another renter", func(t *testing.T) {
		f := newRentalFixture(t)
		item := f.store.addItem("Flail", 100_000, 1)
		first, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		_, err = f.svc.CancelRental(ctx, "admin-1", first.ID)
		require.NoError(t, err)
		_, err = f.svc.CreateRental(ctx, "renter-2", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		require.Equal(t, domain.ItemReserved, f.store.item(item.ID).Availability)

		require.NoError(t, f.svc.DeleteRental(ctx, "admin-1", first.ID))
		assert.Equal(t, domain.ItemReserved, f.store.item(item.ID).Availability)
		assert.Equal(t, int32(1), f.store.item(item.ID).AvailableQuantity)
	})
}

func TestGetRental_Access(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Banner", 100_000, 1)
	r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
	require.NoError(t, err)

	_, err = f.svc.GetRental(ctx, "renter-1", r.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetRental(ctx, "admin-1", r.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetRental(ctx, "renter-2", r.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	pending, err := f.svc.ListRentals(ctx, "admin-1", domain.RentalStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	active, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateRental_TicketNumbersIncrease(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Arrow", 1_000, 10)

	var last int64
	for i := 0; i < 3; i++ {
		r, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
		require.NoError(t, err)
		assert.Greater(t, r.TicketNumber, last)
		last = r.TicketNumber
	}
	assert.Equal(t, int64(3), last)
}

func TestCreateRental_EmailFailureDoesNotFail(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()
	item := f.store.addItem("Torch", 1_000, 1)

	f.email.ExpectedCalls = nil
	f.email.On("SendRentalRequestNotification", mock.Anything, mock.Anything).Return(errors.New("sendgrid down"))

	_, err := f.svc.CreateRental(ctx, "renter-1", cashRequest(1, RentalLine{ItemID: item.ID}))
	assert.NoError(t, err)
}
