package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// NotifyInput describes a notification side effect. Creation is
// fire-and-forget: failure is logged server-side and never surfaces to the
// caller or rolls back the primary mutation.
type NotifyInput struct {
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        string
	Message     string
	DocumentID  *uuid.UUID
}

type NotificationResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Message       string  `json:"message"`
	SenderID      *string `json:"sender_id"`
	SenderName    string  `json:"sender_name"`
	DocumentID    *string `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	IsRead        bool    `json:"is_read"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type NotificationService interface {
	Notify(ctx context.Context, input NotifyInput)
	List(ctx context.Context, userID string, page, limit int) ([]NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, callerID string) (*NotificationResponse, error)
	ClearRead(ctx context.Context, callerID string) error
}

// eventPublisher pushes realtime events to connected clients. Optional; a nil
// publisher means notifications are poll-only.
type eventPublisher interface {
	Publish(userID string, data []byte)
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  eventPublisher
}

// NewNotificationService returns a new instance of NotificationService
func NewNotificationService(repo repository.NotificationRepository, hub eventPublisher) NotificationService {
	return &notificationService{repo: repo, hub: hub}
}

// --- Implementation ---

func (s *notificationService) Notify(ctx context.Context, input NotifyInput) {
	notification := model.Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		Message:     input.Message,
		DocumentID:  input.DocumentID,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		log.Printf("notification write failed (recipient=%s type=%s): %v", input.RecipientID, input.Type, err)
		return
	}

	if s.hub != nil {
		event, err := json.Marshal(map[string]interface{}{
			"event":       "notification",
			"id":          notification.ID.String(),
			"type":        input.Type,
			"message":     input.Message,
			"document_id": input.DocumentID,
		})
		if err == nil {
			s.hub.Publish(input.RecipientID.String(), event)
		}
	}
}

func (s *notificationService) List(ctx context.Context, userID string, page, limit int) ([]NotificationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, callerID string) (*NotificationResponse, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}

	if notification.RecipientID.String() != callerID {
		return nil, fmt.Errorf("notification belongs to another user: %w", apperr.ErrForbidden)
	}

	notification.IsRead = true
	if err := s.repo.Update(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	resp := toNotificationResponse(*notification)
	return &resp, nil
}

// ClearRead bulk-deletes all of the caller's read notifications.
func (s *notificationService) ClearRead(ctx context.Context, callerID string) error {
	if err := s.repo.DeleteRead(ctx, callerID); err != nil {
		return fmt.Errorf("failed to clear read notifications: %w", err)
	}
	return nil
}

// --- Helpers ---

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.SenderID != nil {
		s := n.SenderID.String()
		resp.SenderID = &s
	}
	if n.Sender != nil {
		resp.SenderName = n.Sender.Name
	}
	if n.DocumentID != nil {
		s := n.DocumentID.String()
		resp.DocumentID = &s
	}
	if n.Document != nil {
		resp.DocumentTitle = n.Document.Title
	}
	return resp
}
