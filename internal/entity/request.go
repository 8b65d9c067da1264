package entity

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestFulfilled RequestStatus = "FULFILLED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// BorrowRequest is a member's intent to borrow a title. It references the
// book, not a specific copy; a copy is only allocated at fulfillment time.
type BorrowRequest struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	BookID          string        `json:"book_id"`
	Status          RequestStatus `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time     `json:"requested_at"`
	DueDate         *time.Time    `json:"due_date,omitempty"` // set on approval
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Open reports whether the request still blocks a duplicate for the same
// user and book.
func (r BorrowRequest) Open() bool {
	return r.Status == RequestPending || r.Status == RequestApproved
}
