package service

import (
	"context"
	"testing"

	"clan-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	attrs := map[string]string{"type": "RENTAL_APPROVED"}

	t.Run("Stores and pushes", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		push := new(MockPushSender)
		svc := NewNotificationService(noteRepo, memUsers{newMemStore()}, push)

		noteRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == "user-1" && n.Title == "Rental approved"
		})).Return(nil)
		noteRepo.On("ListDeviceTokens", ctx, "user-1").Return([]string{"tok-a", "tok-b"}, nil)
		push.On("Send", ctx, []string{"tok-a", "tok-b"}, "Rental approved", "ticket #3", attrs).Return([]string{"tok-b"}, nil)
		noteRepo.On("DeleteDeviceToken", ctx, "tok-b").Return(nil)

		svc.Notify(ctx, "user-1", "Rental approved", "ticket #3", attrs)

		noteRepo.AssertExpectations(t)
		push.AssertExpectations(t)
	})

	t.Run("Store failure skips push", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		push := new(MockPushSender)
		svc := NewNotificationService(noteRepo, memUsers{newMemStore()}, push)

		noteRepo.On("Create", ctx, mock.Anything).Return(errBoom)

		svc.Notify(ctx, "user-1", "Rental approved", "ticket #3", attrs)
		push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No push sender", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		svc := NewNotificationService(noteRepo, memUsers{newMemStore()}, nil)
		noteRepo.On("Create", ctx, mock.Anything).Return(nil)

		svc.Notify(ctx, "user-1", "t", "m", nil)
		noteRepo.AssertNotCalled(t, "ListDeviceTokens", mock.Anything, mock.Anything)
	})
}

func TestNotificationService_NotifyAdmins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addUser("admin-1", "warlord", domain.RoleAdmin)
	store.addUser("admin-2", "chief", domain.RoleAdmin)
	store.addUser("user-1", "raider", domain.RoleUser)

	noteRepo := new(MockNotificationRepo)
	noteRepo.On("Create", ctx, mock.Anything).Return(nil)
	svc := NewNotificationService(noteRepo, memUsers{store}, nil)

	svc.NotifyAdmins(ctx, "New rental request", "raider requested ticket #1", nil)
	noteRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestNotificationService_Pagination(t *testing.T) {
	ctx := context.Background()
	noteRepo := new(MockNotificationRepo)
	svc := NewNotificationService(noteRepo, memUsers{newMemStore()}, nil)

	noteRepo.On("List", ctx, "user-1", int32(10), int32(20)).Return([]domain.Notification{{ID: 1}}, int32(21), nil)
	noteRepo.On("List", ctx, "user-1", int32(20), int32(0)).Return([]domain.Notification{}, int32(0), nil)

	list, total, err := svc.GetNotifications(ctx, "user-1", 3, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int32(21), total)

	_, _, err = svc.GetNotifications(ctx, "user-1", 0, 0)
	require.NoError(t, err)

	noteRepo.On("MarkRead", ctx, int32(5), "user-1").Return(nil)
	assert.NoError(t, svc.MarkAsRead(ctx, "user-1", 5))
}
