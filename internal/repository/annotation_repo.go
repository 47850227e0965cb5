package repository

import (
	"context"

	"docuhub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnnotationRepository defines the interface for data access of per-page
// annotations and the per-document XFDF blob.
type AnnotationRepository interface {
	Create(ctx context.Context, annotation *model.Annotation) error
	GetByID(ctx context.Context, id string) (*model.Annotation, error)
	List(ctx context.Context, documentID string, page *int) ([]model.Annotation, error)
	Update(ctx context.Context, annotation *model.Annotation) error
	Delete(ctx context.Context, id string) error
	GetXfdf(ctx context.Context, documentID string) (*model.DocumentAnnotationXfdf, error)
	UpsertXfdf(ctx context.Context, xfdf *model.DocumentAnnotationXfdf) error
}

type annotationRepository struct {
	db *gorm.DB
}

// NewAnnotationRepository returns a new instance of AnnotationRepository
func NewAnnotationRepository(db *gorm.DB) AnnotationRepository {
	return &annotationRepository{db: db}
}

func (r *annotationRepository) Create(ctx context.Context, annotation *model.Annotation) error {
	return GetDB(ctx, r.db).Create(annotation).Error
}

func (r *annotationRepository) GetByID(ctx context.Context, id string) (*model.Annotation, error) {
	var annotation model.Annotation
	if err := GetDB(ctx, r.db).First(&annotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &annotation, nil
}

// List returns annotations for a document, optionally narrowed to one page,
// ordered by sequence_number ascending. The ordering is load-bearing for the
// consuming viewer's stacking order.
func (r *annotationRepository) List(ctx context.Context, documentID string, page *int) ([]model.Annotation, error) {
	query := GetDB(ctx, r.db).
		Preload("User").
		Where("document_id = ?", documentID)
	if page != nil {
		query = query.Where("page_number = ?", *page)
	}

	var annotations []model.Annotation
	if err := query.Order("sequence_number ASC").Find(&annotations).Error; err != nil {
		return nil, err
	}
	return annotations, nil
}

func (r *annotationRepository) Update(ctx context.Context, annotation *model.Annotation) error {
	return GetDB(ctx, r.db).Save(annotation).Error
}

func (r *annotationRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Annotation{}).Error
}

func (r *annotationRepository) GetXfdf(ctx context.Context, documentID string) (*model.DocumentAnnotationXfdf, error) {
	var xfdf model.DocumentAnnotationXfdf
	if err := GetDB(ctx, r.db).First(&xfdf, "document_id = ?", documentID).Error; err != nil {
		return nil, err
	}
	return &xfdf, nil
}

// UpsertXfdf keeps at most one row per document, last-write-wins. The caller
// becomes created_by and updated_by on every write regardless of prior author.
func (r *annotationRepository) UpsertXfdf(ctx context.Context, xfdf *model.DocumentAnnotationXfdf) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "created_by", "updated_by", "updated_at"}),
	}).Create(xfdf).Error
}
