package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
)

type ActivityLogResponse struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	Action        string `json:"action"`
	Details       string `json:"details"`
	CreatedAt     string `json:"created_at"`
}

type ActivityService interface {
	// Log appends an audit entry. Fire-and-forget: failure is logged and
	// swallowed, never propagated to the triggering operation.
	Log(ctx context.Context, documentID uuid.UUID, userID *uuid.UUID, action string, details map[string]interface{})
	List(ctx context.Context, documentID string, page, limit int) ([]ActivityLogResponse, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Log(ctx context.Context, documentID uuid.UUID, userID *uuid.UUID, action string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	entry := model.ActivityLog{
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		Details:    string(payload),
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		log.Printf("activity log write failed (document=%s action=%s): %v", documentID, action, err)
	}
}

func (s *activityService) List(ctx context.Context, documentID string, page, limit int) ([]ActivityLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	entries, total, err := s.repo.List(ctx, documentID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activity log: %w", err)
	}

	res := make([]ActivityLogResponse, 0, len(entries))
	for _, e := range entries {
		item := ActivityLogResponse{
			ID:         e.ID.String(),
			DocumentID: e.DocumentID.String(),
			Action:     e.Action,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
		if e.UserID != nil {
			item.UserID = e.UserID.String()
		}
		if e.User != nil {
			item.UserName = e.User.Name
		} else {
			item.UserName = "System"
		}
		if e.Document != nil {
			item.DocumentTitle = e.Document.Title
		}
		res = append(res, item)
	}

	return res, total, nil
}
