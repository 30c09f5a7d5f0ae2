package models

import "time"

// Record holds the identity and timestamps shared by persisted entities.
type Record struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsNew reports whether the entity has not been persisted yet.
func (r Record) IsNew() bool {
	return r.ID == 0
}
