package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type enum constants
const (
	NotificationDocumentAssigned = "document_assigned"
	NotificationAnnotationAdded  = "annotation_added"
	NotificationDocumentUpdated  = "document_updated"
)

// Notification is created as a side effect of an assignment or document event
// and deleted in bulk once read, or individually by the recipient.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	SenderID    *uuid.UUID `gorm:"type:uuid" json:"sender_id"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string     `gorm:"type:varchar(30);not null" json:"type"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index" json:"document_id"`
	Document    *Document  `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
