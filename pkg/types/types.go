package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all models. IDs are generated
// application-side so the schema stays portable across dialects.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate assigns an ID unless the caller set one.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// FieldErrors is a validation failure carrying per-field messages. Handlers
// map it to a 422 response: re-rendered form for HTML, error envelope for
// JSON.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return "validation failed"
}

// Has reports whether the field has a recorded error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}
