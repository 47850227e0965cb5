package model

import (
	"time"

	"github.com/google/uuid"
)

// Annotation type enum constants
const (
	AnnotationTypeStickyNote = "sticky_note"
	AnnotationTypeDrawing    = "drawing"
	AnnotationTypeHighlight  = "highlight"
)

// Annotation is a single per-page annotation record. Listing is ordered by
// SequenceNumber ascending; gaps and duplicates are tolerated, the sort is the
// only guarantee. Only the author may modify or delete their own annotation.
type Annotation struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document       *Document `gorm:"foreignKey:DocumentID" json:"-"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PageNumber     int       `gorm:"not null;index" json:"page_number"`
	Type           string    `gorm:"type:varchar(30);not null" json:"type"`
	Content        string    `gorm:"type:jsonb;not null" json:"content"` // Free-form per type: text+color, path+color+thickness...
	SequenceNumber int       `gorm:"not null;default:0" json:"sequence_number"`
	PositionX      float64   `gorm:"not null;default:0" json:"position_x"`
	PositionY      float64   `gorm:"not null;default:0" json:"position_y"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DocumentAnnotationXfdf holds a single serialized bulk-annotation blob per
// document (upsert semantics, last-write-wins). The writing caller becomes
// both created_by and updated_by on every write.
type DocumentAnnotationXfdf struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy  uuid.UUID `gorm:"type:uuid;not null" json:"updated_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
