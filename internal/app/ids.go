package app

import (
	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// validateID rejects ids storage would refuse, before a transaction is opened.
func validateID(id string) error {
	if id == "" {
		return domain.ErrMissingField
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
