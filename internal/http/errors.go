package http

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libraryapi/internal/entity"
	"libraryapi/internal/httpx"
)

// statusFor maps the domain error taxonomy onto HTTP statuses. Anything
// without a code is an infrastructure failure and stays a 500.
func statusFor(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "UNAUTHORIZED":
		return http.StatusForbidden
	case "VALIDATION_FAILED":
		return http.StatusBadRequest
	case "NO_COPY_AVAILABLE",
		"COPY_CURRENTLY_ISSUED",
		"COPY_NOT_ISSUED",
		"INVALID_STATE_TRANSITION",
		"DUPLICATE_REQUEST",
		"OUTSTANDING_FINES",
		"BORROW_LIMIT_EXCEEDED",
		"RENEWAL_LIMIT_EXCEEDED":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := entity.CodeOf(err)
	if code == "" {
		zap.L().Error("request failed",
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
		return
	}
	httpx.JSONErrorWithRequest(r, w, statusFor(code), code, err.Error(), nil)
}

// pathID returns the named path parameter when it is a well-formed uuid.
// A malformed id cannot address any row, so it reads as not found rather
// than reaching a uuid-typed query parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, entity.ErrNotFound)
		return "", false
	}
	return id, true
}
