package models

import (
	"time"

	"github.com/quantfolio/quantfolio/internal/errors"
)

// Portfolio groups a user's holdings.
type Portfolio struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Portfolio) Validate() error {
	if p.UserID <= 0 {
		return &errors.ErrValidation{Field: "user_id", Message: "is required"}
	}
	if p.Name == "" {
		return &errors.ErrValidation{Field: "name", Message: "is required"}
	}
	return nil
}
