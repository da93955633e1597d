package handlers

import (
	"fmt"

	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

func errMissing(field string) error {
	return fmt.Errorf("%s is required: %w", field, pkgerrors.ErrInvalidArgument)
}
