package model

import (
	"time"

	"github.com/google/uuid"
)

// Department groups users and can hold document assignments as a unit.
// PeopleCount is a denormalized counter maintained on every user create/update/delete.
type Department struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PeopleCount int       `gorm:"not null;default:0" json:"people_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
