package http

import (
	"encoding/json"
	"net/http"
	"time"

	"libraryapi/internal/httpx"
	"libraryapi/internal/request"
)

type RequestHandler struct {
	requests *request.Service
}

func NewRequestHandler(requests *request.Service) *RequestHandler {
	return &RequestHandler{requests: requests}
}

type createRequestReq struct {
	BookID string `json:"book_id" validate:"required,uuid"`
	Notes  string `json:"notes" validate:"max=500"`
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	br, err := h.requests.Create(r.Context(), httpx.UserIDFrom(r), req.BookID, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, br)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	br, err := h.requests.Cancel(r.Context(), httpx.UserIDFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, br, nil)
}

type approveReq struct {
	DueDate *time.Time `json:"due_date"`
}

func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req approveReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
			return
		}
	}

	br, err := h.requests.Approve(r.Context(), id, req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, br, nil)
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req rejectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	br, err := h.requests.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, br, nil)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	br, err := h.requests.Get(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, br, nil)
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.ListMine(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, list, nil)
}

// ListPending is the staff arbitration queue.
func (h *RequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, list, nil)
}
