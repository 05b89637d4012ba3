package trash

import (
	"time"

	"gorm.io/gorm/schema"
)

// DefaultDeletedAtColumn is used unless the model implements DeletedAtColumner.
const DefaultDeletedAtColumn = "deleted_at"

// Entity is a GORM model whose rows relocate to a trash twin instead of being deleted.
// Embed SoftDeletes and implement TableName to satisfy it.
type Entity interface {
	schema.Tabler
	TrashBinding() *Binding
	Trashed() bool
	GetDeletedAt() *time.Time
	SetDeletedAt(t *time.Time)
}

// Model constrains a repository's pointer type: *T must be an Entity.
type Model[T any] interface {
	*T
	Entity
}

// DeletedAtColumner overrides the trashed-at column name.
type DeletedAtColumner interface {
	DeletedAtColumn() string
}

// SoftDeletes carries the trashed-at column and the table binding.
//
//	type Post struct {
//		ID    uint
//		Title string
//		trash.SoftDeletes
//	}
type SoftDeletes struct {
	DeletedAt *time.Time `gorm:"index" json:"deletedAt,omitempty"`

	binding Binding
}

func (s *SoftDeletes) TrashBinding() *Binding    { return &s.binding }
func (s *SoftDeletes) Trashed() bool             { return s.DeletedAt != nil }
func (s *SoftDeletes) GetDeletedAt() *time.Time  { return s.DeletedAt }
func (s *SoftDeletes) SetDeletedAt(t *time.Time) { s.DeletedAt = t }

// DeleteMode is threaded through the delete routine instead of mutable instance flags.
type DeleteMode int

const (
	// ModeNormal relocates unless the instance already lives in the trash table.
	ModeNormal DeleteMode = iota
	// ModeForce removes the row from the table it is bound to.
	ModeForce
	// ModeAlreadyRelocated removes the row without relocation; used for shadow deletes.
	ModeAlreadyRelocated
)

func (m DeleteMode) String() string {
	switch m {
	case ModeForce:
		return "force"
	case ModeAlreadyRelocated:
		return "relocated"
	default:
		return "normal"
	}
}
