package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
	"libraryapi/internal/httpx"
	"libraryapi/internal/payment"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type recordPaymentReq struct {
	TransactionID *string         `json:"transaction_id" validate:"omitempty,uuid"`
	Method        string          `json:"method" validate:"required,oneof=CASH CARD ONLINE"`
	LateFee       decimal.Decimal `json:"late_fee"`
	DamageCharge  decimal.Decimal `json:"damage_charge"`
	Deposit       decimal.Decimal `json:"deposit"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
}

// Record accepts a payment from the authenticated member against their own
// account or one of their loans.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	p, err := h.payments.RecordPayment(r.Context(), payment.RecordParams{
		UserID:        httpx.UserIDFrom(r),
		TransactionID: req.TransactionID,
		Method:        entity.PaymentMethod(req.Method),
		Breakdown: entity.PaymentBreakdown{
			LateFee:      req.LateFee,
			DamageCharge: req.DamageCharge,
			Deposit:      req.Deposit,
			DeliveryFee:  req.DeliveryFee,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, p)
}

// Refund reverses a completed payment. Staff only.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.payments.RefundPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, p, nil)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.payments.Get(r.Context(), httpx.UserIDFrom(r), httpx.RoleFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, p, nil)
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.payments.ListMine(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, list, nil)
}

// OutstandingBalance reports what the authenticated member currently owes.
func (h *PaymentHandler) OutstandingBalance(w http.ResponseWriter, r *http.Request) {
	owed, err := h.payments.OutstandingFinesFor(r.Context(), httpx.UserIDFrom(r), time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, map[string]any{"outstanding": owed}, nil)
}
