package models

import "time"

// Audit carries creation/update timestamps and the soft-delete marker.
// It is embedded by every persisted entity instead of inheriting from a
// shared base record.
type Audit struct {
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// NewAudit returns an Audit stamped with the current time.
func NewAudit() Audit {
	now := time.Now().UTC()
	return Audit{CreatedAt: now, UpdatedAt: now}
}

// Touch bumps the update timestamp.
func (a *Audit) Touch() {
	a.UpdatedAt = time.Now().UTC()
}

// SoftDelete marks the record logically deleted.
func (a *Audit) SoftDelete() {
	now := time.Now().UTC()
	a.DeletedAt = &now
	a.UpdatedAt = now
}

// IsDeleted reports whether the record has been soft-deleted.
func (a *Audit) IsDeleted() bool {
	return a.DeletedAt != nil
}
