package service

import (
	"context"
	"log"

	"github.com/tourly/tourly-api/internal/model"
	"github.com/tourly/tourly-api/internal/repository"
)

// NotificationService wraps the notification sink. Notify is
// fire-and-forget: a failed insert is logged and the triggering
// operation proceeds, which keeps notification writes off the booking
// and auth critical paths.
type NotificationService struct {
	Repo *repository.NotificationRepo
}

func NewNotificationService(repo *repository.NotificationRepo) *NotificationService {
	return &NotificationService{Repo: repo}
}

// Notify persists a notification, logging on failure instead of
// returning an error.
func (s *NotificationService) Notify(ctx context.Context, userID uint64, title, message, ntype string, relatedID uint64) {
	n := model.Notification{UserID: userID, Title: title, Message: message, Type: ntype, RelatedID: relatedID}
	if err := s.Repo.Create(ctx, &n); err != nil {
		log.Printf("notification: create for user %d (%s) failed: %v", userID, ntype, err)
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint64) ([]model.Notification, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	return s.Repo.CountUnread(ctx, userID)
}

// MarkRead flags one notification as read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint64) error {
	return s.Repo.MarkRead(ctx, id, userID)
}

// MarkAllRead flags all of a user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.Repo.MarkAllRead(ctx, userID)
}
