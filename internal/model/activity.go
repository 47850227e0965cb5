package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionDocumentUploaded  = "document_uploaded"
	ActionDocumentAssigned  = "document_assigned"
	ActionAnnotationAdded   = "annotation_added"
	ActionAnnotationUpdated = "annotation_updated"
	ActionAnnotationDeleted = "annotation_deleted"
	ActionXfdfUpdated       = "xfdf_updated"
)

// ActivityLog tracks Who, What, and When for document actions.
// Append-only; never mutated or deleted in normal operation.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document  `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
