package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateAnnotationRequest struct {
	DocumentID     string  `json:"document_id" binding:"required"`
	PageNumber     int     `json:"page_number" binding:"required,min=1"`
	Type           string  `json:"type" binding:"required"`
	Content        string  `json:"content" binding:"required"` // JSON-shaped, free-form per type
	SequenceNumber int     `json:"sequence_number"`
	PositionX      float64 `json:"position_x"`
	PositionY      float64 `json:"position_y"`
}

type UpdateAnnotationRequest struct {
	Content        *string  `json:"content"`
	SequenceNumber *int     `json:"sequence_number"`
	PositionX      *float64 `json:"position_x"`
	PositionY      *float64 `json:"position_y"`
}

type PutXfdfRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type AnnotationResponse struct {
	ID             string  `json:"id"`
	DocumentID     string  `json:"document_id"`
	UserID         string  `json:"user_id"`
	UserName       string  `json:"user_name"`
	PageNumber     int     `json:"page_number"`
	Type           string  `json:"type"`
	Content        string  `json:"content"`
	SequenceNumber int     `json:"sequence_number"`
	PositionX      float64 `json:"position_x"`
	PositionY      float64 `json:"position_y"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type XfdfResponse struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	UpdatedBy  string `json:"updated_by"`
	UpdatedAt  string `json:"updated_at"`
}

// --- Interface ---

type AnnotationService interface {
	Create(ctx context.Context, authorID string, req CreateAnnotationRequest) (*AnnotationResponse, error)
	Get(ctx context.Context, id string) (*AnnotationResponse, error)
	Update(ctx context.Context, id, callerID string, req UpdateAnnotationRequest) (*AnnotationResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	List(ctx context.Context, documentID string, page *int) ([]AnnotationResponse, error)
	GetXfdf(ctx context.Context, documentID string) (*XfdfResponse, error)
	PutXfdf(ctx context.Context, authorID string, req PutXfdfRequest) (*XfdfResponse, error)
}

type annotationService struct {
	repo     repository.AnnotationRepository
	docs     repository.DocumentRepository
	notifier NotificationService
	activity ActivityService
}

// NewAnnotationService returns a new instance of AnnotationService
func NewAnnotationService(repo repository.AnnotationRepository, docs repository.DocumentRepository, notifier NotificationService, activity ActivityService) AnnotationService {
	return &annotationService{repo: repo, docs: docs, notifier: notifier, activity: activity}
}

// --- Implementation ---

func (s *annotationService) Create(ctx context.Context, authorID string, req CreateAnnotationRequest) (*AnnotationResponse, error) {
	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author id: %w", apperr.ErrInvalidArgument)
	}

	doc, err := s.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", req.DocumentID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	annotation := model.Annotation{
		DocumentID:     doc.ID,
		UserID:         author,
		PageNumber:     req.PageNumber,
		Type:           req.Type,
		Content:        req.Content,
		SequenceNumber: req.SequenceNumber,
		PositionX:      req.PositionX,
		PositionY:      req.PositionY,
	}
	if err := s.repo.Create(ctx, &annotation); err != nil {
		return nil, fmt.Errorf("failed to create annotation: %w", err)
	}

	s.activity.Log(ctx, doc.ID, &author, model.ActionAnnotationAdded, map[string]interface{}{
		"annotation_id": annotation.ID.String(),
		"page_number":   req.PageNumber,
		"type":          req.Type,
	})

	// Uploader hears about annotations made by others on their document
	if doc.UploadedBy != author {
		s.notifier.Notify(ctx, NotifyInput{
			RecipientID: doc.UploadedBy,
			SenderID:    &author,
			Type:        model.NotificationAnnotationAdded,
			Message:     fmt.Sprintf("A new annotation was added to \"%s\" on page %d", doc.Title, req.PageNumber),
			DocumentID:  &doc.ID,
		})
	}

	resp := toAnnotationResponse(annotation)
	return &resp, nil
}

func (s *annotationService) Get(ctx context.Context, id string) (*AnnotationResponse, error) {
	annotation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("annotation %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch annotation: %w", err)
	}
	resp := toAnnotationResponse(*annotation)
	return &resp, nil
}

func (s *annotationService) Update(ctx context.Context, id, callerID string, req UpdateAnnotationRequest) (*AnnotationResponse, error) {
	annotation, err := s.fetchOwned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		annotation.Content = *req.Content
	}
	if req.SequenceNumber != nil {
		annotation.SequenceNumber = *req.SequenceNumber
	}
	if req.PositionX != nil {
		annotation.PositionX = *req.PositionX
	}
	if req.PositionY != nil {
		annotation.PositionY = *req.PositionY
	}

	if err := s.repo.Update(ctx, annotation); err != nil {
		return nil, fmt.Errorf("failed to update annotation: %w", err)
	}

	s.activity.Log(ctx, annotation.DocumentID, &annotation.UserID, model.ActionAnnotationUpdated, map[string]interface{}{
		"annotation_id": annotation.ID.String(),
	})

	resp := toAnnotationResponse(*annotation)
	return &resp, nil
}

func (s *annotationService) Delete(ctx context.Context, id, callerID string) error {
	annotation, err := s.fetchOwned(ctx, id, callerID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}

	s.activity.Log(ctx, annotation.DocumentID, &annotation.UserID, model.ActionAnnotationDeleted, map[string]interface{}{
		"annotation_id": annotation.ID.String(),
		"page_number":   annotation.PageNumber,
	})

	return nil
}

// fetchOwned loads an annotation and enforces that only the author may modify
// or delete it.
func (s *annotationService) fetchOwned(ctx context.Context, id, callerID string) (*model.Annotation, error) {
	annotation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("annotation %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch annotation: %w", err)
	}
	if annotation.UserID.String() != callerID {
		return nil, fmt.Errorf("only the author may modify this annotation: %w", apperr.ErrForbidden)
	}
	return annotation, nil
}

func (s *annotationService) List(ctx context.Context, documentID string, page *int) ([]AnnotationResponse, error) {
	annotations, err := s.repo.List(ctx, documentID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch annotations: %w", err)
	}

	result := make([]AnnotationResponse, 0, len(annotations))
	for _, a := range annotations {
		result = append(result, toAnnotationResponse(a))
	}
	return result, nil
}

func (s *annotationService) GetXfdf(ctx context.Context, documentID string) (*XfdfResponse, error) {
	xfdf, err := s.repo.GetXfdf(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch xfdf: %w", err)
	}
	resp := toXfdfResponse(*xfdf)
	return &resp, nil
}

func (s *annotationService) PutXfdf(ctx context.Context, authorID string, req PutXfdfRequest) (*XfdfResponse, error) {
	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author id: %w", apperr.ErrInvalidArgument)
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("invalid document id: %w", apperr.ErrInvalidArgument)
	}

	xfdf := model.DocumentAnnotationXfdf{
		DocumentID: docID,
		Content:    req.Content,
		CreatedBy:  author,
		UpdatedBy:  author,
	}
	if err := s.repo.UpsertXfdf(ctx, &xfdf); err != nil {
		return nil, fmt.Errorf("failed to upsert xfdf: %w", err)
	}

	s.activity.Log(ctx, docID, &author, model.ActionXfdfUpdated, map[string]interface{}{
		"size": len(req.Content),
	})

	// Reload for authoritative timestamps after the upsert
	stored, loadErr := s.repo.GetXfdf(ctx, req.DocumentID)
	if loadErr != nil {
		resp := toXfdfResponse(xfdf)
		return &resp, nil
	}
	resp := toXfdfResponse(*stored)
	return &resp, nil
}

// --- Helpers ---

func toAnnotationResponse(a model.Annotation) AnnotationResponse {
	resp := AnnotationResponse{
		ID:             a.ID.String(),
		DocumentID:     a.DocumentID.String(),
		UserID:         a.UserID.String(),
		PageNumber:     a.PageNumber,
		Type:           a.Type,
		Content:        a.Content,
		SequenceNumber: a.SequenceNumber,
		PositionX:      a.PositionX,
		PositionY:      a.PositionY,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.Format(time.RFC3339),
	}
	if a.User != nil {
		resp.UserName = a.User.Name
	}
	return resp
}

func toXfdfResponse(x model.DocumentAnnotationXfdf) XfdfResponse {
	return XfdfResponse{
		DocumentID: x.DocumentID.String(),
		Content:    x.Content,
		UpdatedBy:  x.UpdatedBy.String(),
		UpdatedAt:  x.UpdatedAt.Format(time.RFC3339),
	}
}
