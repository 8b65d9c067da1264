package http

import (
	"encoding/json"
	"net/http"
	"time"

	"libraryapi/internal/circulation"
	"libraryapi/internal/entity"
	"libraryapi/internal/httpx"
)

type LoanHandler struct {
	loans *circulation.Service
}

func NewLoanHandler(loans *circulation.Service) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type issueReq struct {
	UserID       string     `json:"user_id" validate:"required,uuid"`
	BookID       string     `json:"book_id" validate:"required,uuid"`
	CopyID       string     `json:"copy_id" validate:"omitempty,uuid"`
	DueDate      *time.Time `json:"due_date"`
	HomeDelivery bool       `json:"home_delivery"`
}

// Issue opens a loan directly, without a borrow request. Staff only.
func (h *LoanHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req issueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	t, err := h.loans.Issue(r.Context(), circulation.IssueParams{
		UserID:       req.UserID,
		BookID:       req.BookID,
		CopyID:       req.CopyID,
		DueDate:      req.DueDate,
		HomeDelivery: req.HomeDelivery,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, t)
}

// Fulfill issues a copy against an APPROVED borrow request. Staff only.
func (h *LoanHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.loans.FulfillFromRequest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, t)
}

func (h *LoanHandler) Renew(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.loans.Renew(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, t, nil)
}

type returnReq struct {
	Condition string `json:"condition" validate:"omitempty,oneof=GOOD WORN DAMAGED LOST"`
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req returnReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
			return
		}
	}
	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	condition := entity.CopyCondition(req.Condition)
	if req.Condition == "" {
		condition = entity.ConditionGood
	}

	res, err := h.loans.Return(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id, condition)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, map[string]any{
		"transaction": res.Transaction,
		"fine_amount": res.FineAmount,
	}, nil)
}

// FinePreview prices the fine as if the loan were returned now.
func (h *LoanHandler) FinePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	amount, err := h.loans.FinePreview(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, map[string]any{"fine_amount": amount}, nil)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.loans.Get(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, t, nil)
}

func (h *LoanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.loans.ListMine(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, list, nil)
}

// SweepOverdue triggers the overdue sweep on demand; the same logic runs on
// a timer in cmd/api. Staff only.
func (h *LoanHandler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.loans.MarkOverdue(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, map[string]any{"flagged": n}, nil)
}
