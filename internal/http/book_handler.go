package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"libraryapi/internal/book"
	"libraryapi/internal/entity"
	"libraryapi/internal/httpx"
	"libraryapi/internal/inventory"
)

type BookHandler struct {
	books     *book.Service
	inventory *inventory.Service
}

func NewBookHandler(books *book.Service, inv *inventory.Service) *BookHandler {
	return &BookHandler{books: books, inventory: inv}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := book.Query{
		Q:             query.Get("q"),
		Genre:         query.Get("genre"),
		Author:        query.Get("author"),
		AvailableOnly: query.Get("available") == "true",
		Sort:          query.Get("sort"),
		Desc:          query.Get("desc") == "true",
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	}

	books, total, err := h.books.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.JSONSuccessWithRequest(r, w, books, map[string]interface{}{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, b, nil)
}

type createBookReq struct {
	ISBN        string `json:"isbn" validate:"omitempty,isbn"`
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"required,max=200"`
	Genre       string `json:"genre" validate:"max=100"`
	Publisher   string `json:"publisher" validate:"max=200"`
	Description string `json:"description"`
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	b, err := h.books.Create(r.Context(), entity.Book{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Publisher:   req.Publisher,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, b)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req createBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	b, err := h.books.Update(r.Context(), entity.Book{
		ID:          id,
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Publisher:   req.Publisher,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, b, nil)
}

func (h *BookHandler) ListCopies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	copies, err := h.inventory.ListCopies(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, copies, nil)
}

type addCopiesReq struct {
	Count         int    `json:"count" validate:"required,gte=1,lte=500"`
	ShelfLocation string `json:"shelf_location" validate:"max=100"`
}

func (h *BookHandler) AddCopies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req addCopiesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	copies, err := h.inventory.AddCopies(r.Context(), id, req.Count, req.ShelfLocation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreatedWithRequest(r, w, copies)
}

type markCopyReq struct {
	Status string `json:"status" validate:"required,oneof=MAINTENANCE LOST DAMAGED"`
}

// MarkCopy flags a shelved copy MAINTENANCE, LOST or DAMAGED.
func (h *BookHandler) MarkCopy(w http.ResponseWriter, r *http.Request) {
	copyID, ok := pathID(w, r, "copyID")
	if !ok {
		return
	}

	var req markCopyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := ValidateStruct(req); len(details) > 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", details)
		return
	}

	c, err := h.inventory.MarkCopy(r.Context(), copyID, entity.CopyStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, c, nil)
}

func (h *BookHandler) RestoreCopy(w http.ResponseWriter, r *http.Request) {
	copyID, ok := pathID(w, r, "copyID")
	if !ok {
		return
	}
	c, err := h.inventory.RestoreCopy(r.Context(), copyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, c, nil)
}

func (h *BookHandler) RetireCopy(w http.ResponseWriter, r *http.Request) {
	copyID, ok := pathID(w, r, "copyID")
	if !ok {
		return
	}
	if err := h.inventory.RetireCopy(r.Context(), copyID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
