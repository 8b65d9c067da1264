package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/entity"
	"libraryapi/internal/httpx"
)

// Handlers bundles the API surface for routing.
type Handlers struct {
	Auth     *AuthHandler
	Books    *BookHandler
	Requests *RequestHandler
	Loans    *LoanHandler
	Payments *PaymentHandler
}

// NewRouter builds the ServeMux with method-qualified patterns. Auth applies
// per route group; the outer middleware chain (request id, recovery, access
// log, rate limit) wraps the returned handler in cmd/api.
func NewRouter(h Handlers, jwtSecret string, db *pgxpool.Pool) http.Handler {
	mux := http.NewServeMux()

	authed := httpx.AuthMiddleware(jwtSecret)
	staff := func(next http.HandlerFunc) http.Handler {
		return authed(httpx.RequireRole(entity.RoleLibrarian)(next))
	}
	member := func(next http.HandlerFunc) http.Handler {
		return authed(next)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// accounts
	mux.HandleFunc("POST /users/register", h.Auth.Register)
	mux.HandleFunc("POST /users/login", h.Auth.Login)
	mux.Handle("POST /users/staff", staff(h.Auth.RegisterStaff))
	mux.Handle("GET /me", member(h.Auth.Me))

	// catalog
	mux.HandleFunc("GET /books", h.Books.List)
	mux.HandleFunc("GET /books/{id}", h.Books.Get)
	mux.Handle("POST /books", staff(h.Books.Create))
	mux.Handle("PUT /books/{id}", staff(h.Books.Update))

	// inventory
	mux.HandleFunc("GET /books/{id}/copies", h.Books.ListCopies)
	mux.Handle("POST /books/{id}/copies", staff(h.Books.AddCopies))
	mux.Handle("POST /copies/{copyID}/mark", staff(h.Books.MarkCopy))
	mux.Handle("POST /copies/{copyID}/restore", staff(h.Books.RestoreCopy))
	mux.Handle("DELETE /copies/{copyID}", staff(h.Books.RetireCopy))

	// borrow requests
	mux.Handle("POST /requests", member(h.Requests.Create))
	mux.Handle("GET /requests", member(h.Requests.ListMine))
	mux.Handle("GET /requests/pending", staff(h.Requests.ListPending))
	mux.Handle("GET /requests/{id}", member(h.Requests.Get))
	mux.Handle("POST /requests/{id}/cancel", member(h.Requests.Cancel))
	mux.Handle("POST /requests/{id}/approve", staff(h.Requests.Approve))
	mux.Handle("POST /requests/{id}/reject", staff(h.Requests.Reject))
	mux.Handle("POST /requests/{id}/fulfill", staff(h.Loans.Fulfill))

	// loans
	mux.Handle("POST /loans", staff(h.Loans.Issue))
	mux.Handle("GET /loans", member(h.Loans.ListMine))
	mux.Handle("GET /loans/{id}", member(h.Loans.Get))
	mux.Handle("POST /loans/{id}/renew", member(h.Loans.Renew))
	mux.Handle("POST /loans/{id}/return", staff(h.Loans.Return))
	mux.Handle("GET /loans/{id}/fine", member(h.Loans.FinePreview))
	mux.Handle("POST /loans/sweep-overdue", staff(h.Loans.SweepOverdue))

	// payments
	mux.Handle("POST /payments", member(h.Payments.Record))
	mux.Handle("GET /payments", member(h.Payments.ListMine))
	mux.Handle("GET /payments/outstanding", member(h.Payments.OutstandingBalance))
	mux.Handle("GET /payments/{id}", member(h.Payments.Get))
	mux.Handle("POST /payments/{id}/refund", staff(h.Payments.Refund))

	return mux
}
