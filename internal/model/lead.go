// internal/model/lead.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Company   string    `db:"company" json:"company"`
	Title     string    `db:"title" json:"title,omitempty"`
	Website   string    `db:"website" json:"website,omitempty"`
	Status    string    `db:"status" json:"status"` // new, researched, drafted, contacted
	Source    string    `db:"source" json:"source,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
