package apierr

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps pipeline sentinels onto HTTP semantics.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrConsentRequired):
		return New(http.StatusConflict, "consent_required", err)
	case errors.Is(err, pkgerrors.ErrPermissionRequired):
		return New(http.StatusForbidden, "permission_required", err)
	case errors.Is(err, pkgerrors.ErrDevice):
		return New(http.StatusServiceUnavailable, "device_error", err)
	case errors.Is(err, pkgerrors.ErrSnapshotLoadInvalid):
		return New(http.StatusUnprocessableEntity, "snapshot_invalid", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
