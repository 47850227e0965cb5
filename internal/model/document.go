package model

import (
	"time"

	"github.com/google/uuid"
)

// Document status enum constants
const (
	DocumentStatusActive   = "active"
	DocumentStatusDraft    = "draft"
	DocumentStatusArchived = "archived"
)

// Assignment status enum constants
const (
	AssignmentStatusWaiting  = "waiting"
	AssignmentStatusAssigned = "assigned"
	AssignmentStatusActive   = "active"
)

// LockTTL is how long an edit lock stays valid after locked_at.
// Past this window the lock grants no exclusive rights.
const LockTTL = 3 * time.Minute

// Document holds uploaded PDF metadata. The current assignee fields are a
// denormalized pointer to the latest DocumentAssignment; exactly one of
// AssignedToUser / AssignedToDepartment is set at a time.
type Document struct {
	ID                   uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title                string      `gorm:"type:varchar(255);not null" json:"title"`
	FileURL              string      `gorm:"type:varchar(500);not null" json:"file_url"`
	FileSize             int64       `gorm:"not null;default:0" json:"file_size"`
	MimeType             string      `gorm:"type:varchar(100)" json:"mime_type"`
	Status               string      `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	UploadedBy           uuid.UUID   `gorm:"type:uuid;not null;index" json:"uploaded_by"`
	Uploader             *User       `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	AssignedToUser       *uuid.UUID  `gorm:"type:uuid;index" json:"assigned_to_user"`
	AssignedUser         *User       `gorm:"foreignKey:AssignedToUser" json:"assigned_user,omitempty"`
	AssignedToDepartment *uuid.UUID  `gorm:"type:uuid;index" json:"assigned_to_department"`
	AssignedDepartment   *Department `gorm:"foreignKey:AssignedToDepartment" json:"assigned_department,omitempty"`
	LockedBy             *uuid.UUID  `gorm:"type:uuid" json:"locked_by"`
	LockedAt             *time.Time  `json:"locked_at"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// DocumentAssignment is the append-only history of assignment events.
// The Document's current-assignee fields are updated in lockstep (best-effort).
type DocumentAssignment struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"document_id"`
	Document     *Document   `gorm:"foreignKey:DocumentID" json:"-"`
	AssignedTo   uuid.UUID   `gorm:"type:uuid;not null;index" json:"assigned_to"`
	Assignee     *User       `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	AssignedBy   uuid.UUID   `gorm:"type:uuid;not null" json:"assigned_by"`
	Assigner     *User       `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid" json:"department_id"`
	RoleLabel    string      `gorm:"type:varchar(50)" json:"role_label"` // free text: "Reviewer", "Editor", "Author"
	Status       string      `gorm:"type:varchar(20);not null;default:'waiting';index" json:"status"`
	NotifiedAt   *time.Time  `json:"notified_at"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
