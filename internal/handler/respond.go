package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/project"
	"github.com/filecrate/filecrate/pkg/blob"
)

// errValidation marks malformed requests.
var errValidation = errors.New("handler: validation")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", errValidation, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": ...} error payload.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps domain sentinels to HTTP statuses. Unrecognized
// errors become 500 and are logged; clients only ever see the mapped
// detail string.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeDetail(w, status, detailFor(err, status))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errValidation):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrInvalidKey):
		return http.StatusForbidden
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, bucket.ErrNotFound),
		errors.Is(err, file.ErrNotFound),
		errors.Is(err, blob.ErrNotFound),
		errors.Is(err, blob.ErrBucketNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrNameTaken),
		errors.Is(err, bucket.ErrAlreadyExists),
		errors.Is(err, bucket.ErrNotEmpty),
		errors.Is(err, file.ErrExists):
		return http.StatusConflict
	case errors.Is(err, bucket.ErrProvision):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func detailFor(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validationError("invalid request body")
	}
	return nil
}
