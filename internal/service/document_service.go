package service

import (
	"context"
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

type CreateDocumentRequest struct {
	Title     string
	FileURL   string
	FileSize  int64
	MimeType  string
	AssignTo  string // optional assignee user id
	RoleLabel string // free text: "Reviewer", "Editor", "Author"
	GiveLock  bool
	Notify    bool
}

type AssignDocumentRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
	RoleLabel  string `json:"role_label"`
	GiveLock   bool   `json:"give_lock"`
	Notify     bool   `json:"notify"`
}

type DocumentFilter struct {
	Status     string
	AssignedTo string
	UploadedBy string
	Page       int
	Limit      int
}

type DocumentResponse struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title"`
	FileURL                string  `json:"file_url"`
	FileSize               int64   `json:"file_size"`
	MimeType               string  `json:"mime_type"`
	Status                 string  `json:"status"`
	UploadedBy             string  `json:"uploaded_by"`
	UploaderName           string  `json:"uploader_name"`
	AssignedToUser         *string `json:"assigned_to_user"`
	AssignedUserName       string  `json:"assigned_user_name"`
	AssignedToDepartment   *string `json:"assigned_to_department"`
	AssignedDepartmentName string  `json:"assigned_department_name"`
	LockedBy               *string `json:"locked_by"`
	LockedAt               *string `json:"locked_at"`
	CreatedAt              string  `json:"created_at"`
	UpdatedAt              string  `json:"updated_at"`
}

type AssignmentResponse struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"document_id"`
	AssignedTo   string  `json:"assigned_to"`
	AssigneeName string  `json:"assignee_name"`
	AssignedBy   string  `json:"assigned_by"`
	AssignerName string  `json:"assigner_name"`
	RoleLabel    string  `json:"role_label"`
	Status       string  `json:"status"`
	NotifiedAt   *string `json:"notified_at"`
	CreatedAt    string  `json:"created_at"`
}

type DocumentDetailResponse struct {
	DocumentResponse
	Assignments []AssignmentResponse `json:"assignments"`
}

type AssignResult struct {
	Assignment AssignmentResponse `json:"assignment"`
	Document   DocumentResponse   `json:"document"`
}

// --- Interface ---

type DocumentService interface {
	Create(ctx context.Context, uploaderID string, req CreateDocumentRequest) (*DocumentResponse, error)
	Get(ctx context.Context, id string) (*DocumentDetailResponse, error)
	List(ctx context.Context, filter DocumentFilter) ([]DocumentResponse, int64, error)
	Assign(ctx context.Context, documentID, callerID string, req AssignDocumentRequest) (*AssignResult, error)
	IsLockOwnedBy(ctx context.Context, userID, documentID string) (bool, error)
}

// fileRemover cleans up a persisted upload when a dependent insert fails.
type fileRemover interface {
	Remove(fileURL string) error
}

type documentService struct {
	repo     repository.DocumentRepository
	notifier NotificationService
	activity ActivityService
	files    fileRemover
	now      func() time.Time
}

// NewDocumentService returns a new instance of DocumentService
func NewDocumentService(repo repository.DocumentRepository, notifier NotificationService, activity ActivityService, files fileRemover) DocumentService {
	return &documentService{
		repo:     repo,
		notifier: notifier,
		activity: activity,
		files:    files,
		now:      time.Now,
	}
}

// --- Implementation ---

// Create inserts the document row with status "active" and optionally records
// an initial assignment. The multi-step write is intentionally not wrapped in
// a transaction: a failed assignment insert triggers a compensating delete of
// the just-created row and the persisted file, both best-effort.
func (s *documentService) Create(ctx context.Context, uploaderID string, req CreateDocumentRequest) (*DocumentResponse, error) {
	uploader, err := uuid.Parse(uploaderID)
	if err != nil {
		return nil, fmt.Errorf("invalid uploader id: %w", apperr.ErrInvalidArgument)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrInvalidArgument)
	}

	doc := model.Document{
		Title:      req.Title,
		FileURL:    req.FileURL,
		FileSize:   req.FileSize,
		MimeType:   req.MimeType,
		Status:     model.DocumentStatusActive,
		UploadedBy: uploader,
	}

	if err := s.repo.Create(ctx, &doc); err != nil {
		s.removeFile(req.FileURL)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if req.AssignTo != "" {
		assignee, parseErr := uuid.Parse(req.AssignTo)
		if parseErr != nil {
			s.compensateCreate(ctx, &doc)
			return nil, fmt.Errorf("invalid assignee id: %w", apperr.ErrInvalidArgument)
		}

		if _, err := s.appendAssignment(ctx, &doc, assignee, uploader, req.RoleLabel, req.GiveLock, req.Notify); err != nil {
			s.compensateCreate(ctx, &doc)
			return nil, err
		}
	}

	s.activity.Log(ctx, doc.ID, &uploader, model.ActionDocumentUploaded, map[string]interface{}{
		"title":     doc.Title,
		"file_size": doc.FileSize,
		"mime_type": doc.MimeType,
	})

	// Reload for display names
	reloaded, loadErr := s.repo.GetByID(ctx, doc.ID.String())
	if loadErr != nil {
		resp := toDocumentResponse(doc)
		return &resp, nil
	}
	resp := toDocumentResponse(*reloaded)
	return &resp, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*DocumentDetailResponse, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	assignments, err := s.repo.ListAssignments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment history: %w", err)
	}

	detail := DocumentDetailResponse{
		DocumentResponse: toDocumentResponse(*doc),
		Assignments:      make([]AssignmentResponse, 0, len(assignments)),
	}
	for _, a := range assignments {
		detail.Assignments = append(detail.Assignments, toAssignmentResponse(a))
	}
	return &detail, nil
}

func (s *documentService) List(ctx context.Context, filter DocumentFilter) ([]DocumentResponse, int64, error) {
	docs, total, err := s.repo.List(ctx, repository.DocumentFilter{
		Status:     filter.Status,
		AssignedTo: filter.AssignedTo,
		UploadedBy: filter.UploadedBy,
		Page:       filter.Page,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch documents: %w", err)
	}

	result := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		result = append(result, toDocumentResponse(d))
	}
	return result, total, nil
}

// Assign transfers the document baton. Allowed when the document has no
// assignee, or when the caller is the current assignee; reassignment is a
// capability that follows the baton. No row-level locking is taken; two
// racing callers can both pass this check and the last write wins.
func (s *documentService) Assign(ctx context.Context, documentID, callerID string, req AssignDocumentRequest) (*AssignResult, error) {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, fmt.Errorf("invalid caller id: %w", apperr.ErrInvalidArgument)
	}
	assignee, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("invalid assignee id: %w", apperr.ErrInvalidArgument)
	}
	if assignee == caller {
		return nil, fmt.Errorf("self-assignment is not allowed: %w", apperr.ErrInvalidArgument)
	}

	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	hasAssignee := doc.AssignedToUser != nil || doc.AssignedToDepartment != nil
	callerIsAssignee := doc.AssignedToUser != nil && *doc.AssignedToUser == caller
	if hasAssignee && !callerIsAssignee {
		return nil, fmt.Errorf("only the current assignee may reassign this document: %w", apperr.ErrForbidden)
	}

	assignment, err := s.appendAssignment(ctx, doc, assignee, caller, req.RoleLabel, req.GiveLock, req.Notify)
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, doc.ID, &caller, model.ActionDocumentAssigned, map[string]interface{}{
		"assigned_to": assignee.String(),
		"role_label":  req.RoleLabel,
		"give_lock":   req.GiveLock,
	})

	// Reload for display names; the in-memory copy still carries the
	// previous holder's preloaded associations.
	reloaded, loadErr := s.repo.GetByID(ctx, documentID)
	if loadErr != nil {
		doc.AssignedUser = nil
		doc.AssignedDepartment = nil
		reloaded = doc
	}

	return &AssignResult{
		Assignment: toAssignmentResponse(*assignment),
		Document:   toDocumentResponse(*reloaded),
	}, nil
}

// appendAssignment writes the history row, then moves the denormalized
// current-assignee pointer (clearing any department assignment) and the lock
// in the same logical operation. The two writes are sequential, not atomic.
func (s *documentService) appendAssignment(ctx context.Context, doc *model.Document, assignee, assigner uuid.UUID, roleLabel string, giveLock, notify bool) (*model.DocumentAssignment, error) {
	now := s.now()

	status := model.AssignmentStatusWaiting
	if notify {
		status = model.AssignmentStatusAssigned
	}

	assignment := model.DocumentAssignment{
		DocumentID:   doc.ID,
		AssignedTo:   assignee,
		AssignedBy:   assigner,
		DepartmentID: doc.AssignedToDepartment,
		RoleLabel:    roleLabel,
		Status:       status,
	}
	if notify {
		assignment.NotifiedAt = &now
	}

	if err := s.repo.CreateAssignment(ctx, &assignment); err != nil {
		return nil, fmt.Errorf("failed to record assignment: %w", err)
	}

	doc.AssignedToUser = &assignee
	doc.AssignedToDepartment = nil
	if giveLock {
		doc.LockedBy = &assignee
		doc.LockedAt = &now
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document assignee: %w", err)
	}

	if notify {
		s.notifier.Notify(ctx, NotifyInput{
			RecipientID: assignee,
			SenderID:    &assigner,
			Type:        model.NotificationDocumentAssigned,
			Message:     fmt.Sprintf("You have been assigned the document \"%s\"", doc.Title),
			DocumentID:  &doc.ID,
		})
	}

	return &assignment, nil
}

// IsLockOwnedBy reports whether userID holds a live edit lock on the
// document. A lock older than LockTTL grants no exclusive rights.
func (s *documentService) IsLockOwnedBy(ctx context.Context, userID, documentID string) (bool, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("document %s: %w", documentID, apperr.ErrNotFound)
		}
		return false, fmt.Errorf("failed to fetch document: %w", err)
	}

	if doc.LockedBy == nil || doc.LockedAt == nil {
		return false, nil
	}
	if s.now().Sub(*doc.LockedAt) > model.LockTTL {
		return false, nil
	}
	return doc.LockedBy.String() == userID, nil
}

// compensateCreate removes the just-created row and its file after a failed
// dependent step. Failures here are logged, not retried.
func (s *documentService) compensateCreate(ctx context.Context, doc *model.Document) {
	if err := s.repo.Delete(ctx, doc.ID.String()); err != nil {
		log.Printf("compensating delete failed for document %s: %v", doc.ID, err)
	}
	s.removeFile(doc.FileURL)
}

func (s *documentService) removeFile(fileURL string) {
	if fileURL == "" || s.files == nil {
		return
	}
	if err := s.files.Remove(fileURL); err != nil {
		log.Printf("failed to remove uploaded file %s: %v", fileURL, err)
	}
}

// --- Helpers ---

func toDocumentResponse(d model.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:         d.ID.String(),
		Title:      d.Title,
		FileURL:    d.FileURL,
		FileSize:   d.FileSize,
		MimeType:   d.MimeType,
		Status:     d.Status,
		UploadedBy: d.UploadedBy.String(),
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
	if d.Uploader != nil {
		resp.UploaderName = d.Uploader.Name
	}
	if d.AssignedToUser != nil {
		s := d.AssignedToUser.String()
		resp.AssignedToUser = &s
	}
	if d.AssignedUser != nil {
		resp.AssignedUserName = d.AssignedUser.Name
	}
	if d.AssignedToDepartment != nil {
		s := d.AssignedToDepartment.String()
		resp.AssignedToDepartment = &s
	}
	if d.AssignedDepartment != nil {
		resp.AssignedDepartmentName = d.AssignedDepartment.Name
	}
	if d.LockedBy != nil {
		s := d.LockedBy.String()
		resp.LockedBy = &s
	}
	if d.LockedAt != nil {
		s := d.LockedAt.Format(time.RFC3339)
		resp.LockedAt = &s
	}
	return resp
}

func toAssignmentResponse(a model.DocumentAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         a.ID.String(),
		DocumentID: a.DocumentID.String(),
		AssignedTo: a.AssignedTo.String(),
		AssignedBy: a.AssignedBy.String(),
		RoleLabel:  a.RoleLabel,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.Assignee != nil {
		resp.AssigneeName = a.Assignee.Name
	}
	if a.Assigner != nil {
		resp.AssignerName = a.Assigner.Name
	}
	if a.NotifiedAt != nil {
		s := a.NotifiedAt.Format(time.RFC3339)
		resp.NotifiedAt = &s
	}
	return resp
}
