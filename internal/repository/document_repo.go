package repository

import (
	"context"

	"docuhub/internal/model"

	"gorm.io/gorm"
)

// DocumentFilter narrows List results. Zero values mean no filtering.
type DocumentFilter struct {
	Status     string
	AssignedTo string // user id
	UploadedBy string // user id
	Page       int
	Limit      int
}

// DocumentRepository defines the interface for data access of Document
// entities and their append-only assignment history.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, int64, error)
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error
	CreateAssignment(ctx context.Context, assignment *model.DocumentAssignment) error
	ListAssignments(ctx context.Context, documentID string) ([]model.DocumentAssignment, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository returns a new instance of DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).
		Preload("Uploader").
		Preload("AssignedUser").
		Preload("AssignedDepartment").
		First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter) ([]model.Document, int64, error) {
	var total int64
	countQuery := GetDB(ctx, r.db).Model(&model.Document{})
	countQuery = applyDocumentFilter(countQuery, filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var docs []model.Document
	query := GetDB(ctx, r.db).
		Preload("Uploader").
		Preload("AssignedUser").
		Preload("AssignedDepartment")
	query = applyDocumentFilter(query, filter)
	if err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func applyDocumentFilter(query *gorm.DB, filter DocumentFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to_user = ?", filter.AssignedTo)
	}
	if filter.UploadedBy != "" {
		query = query.Where("uploaded_by = ?", filter.UploadedBy)
	}
	return query
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (r *documentRepository) CreateAssignment(ctx context.Context, assignment *model.DocumentAssignment) error {
	return GetDB(ctx, r.db).Create(assignment).Error
}

func (r *documentRepository) ListAssignments(ctx context.Context, documentID string) ([]model.DocumentAssignment, error) {
	var assignments []model.DocumentAssignment
	if err := GetDB(ctx, r.db).
		Preload("Assignee").
		Preload("Assigner").
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
