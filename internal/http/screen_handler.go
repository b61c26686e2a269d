package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/resource"
	"github.com/fjod/go_pos/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const multipartMemory = 8 << 20

// ScreenHandler exposes one back-office screen of the caller's session.
type ScreenHandler[T domain.Entity[T]] struct {
	responder
	timeout time.Duration
	list    func(*session.Session) *resource.List[T]
	decode  func(*http.Request) (T, error)
}

func NewScreenHandler[T domain.Entity[T]](timeout time.Duration, log zerolog.Logger, list func(*session.Session) *resource.List[T], decode func(*http.Request) (T, error)) *ScreenHandler[T] {
	if decode == nil {
		decode = decodeJSON[T]
	}
	return &ScreenHandler[T]{responder: responder{log: log}, timeout: timeout, list: list, decode: decode}
}

type OpenFormRequestDTO struct {
	Mode resource.FormMode `json:"mode"`
	ID   int64             `json:"id"`
}

func (h *ScreenHandler[T]) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/reload", h.Reload)
	r.Post("/form", h.OpenForm)
	r.Delete("/form", h.CloseForm)
	r.Post("/form/submit", h.SubmitForm)
	r.Post("/{id}/delete", h.RequestDelete)
	r.Post("/{id}/delete/confirm", h.ConfirmDelete)
	r.Post("/{id}/delete/cancel", h.CancelDelete)
}

// Get mounts the screen on first use and returns its state; ?q= narrows
// the items by display name.
func (h *ScreenHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	l.Mount(ctx)
	view := l.View()
	if q := r.URL.Query().Get("q"); q != "" {
		view.Items = l.Search(q)
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *ScreenHandler[T]) Reload(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := l.Load(ctx); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, l.View())
}

func (h *ScreenHandler[T]) OpenForm(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))

	var req OpenFormRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var err error
	switch req.Mode {
	case resource.FormCreate:
		err = l.OpenCreate()
	case resource.FormEdit:
		err = l.OpenEdit(req.ID)
	default:
		h.respondError(w, http.StatusBadRequest, "invalid_mode", "mode must be create or edit")
		return
	}
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, l.View())
}

func (h *ScreenHandler[T]) CloseForm(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	l.CloseForm()
	h.respondJSON(w, http.StatusOK, l.View())
}

func (h *ScreenHandler[T]) SubmitForm(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	record, err := h.decode(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	saved, err := l.Submit(ctx, record)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, saved)
}

func (h *ScreenHandler[T]) RequestDelete(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	id, ok := h.recordIDParam(w, r)
	if !ok {
		return
	}

	if err := l.RequestDelete(id); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, l.View())
}

func (h *ScreenHandler[T]) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	id, ok := h.recordIDParam(w, r)
	if !ok {
		return
	}

	if err := l.ConfirmDelete(ctx, id); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, l.View())
}

func (h *ScreenHandler[T]) CancelDelete(w http.ResponseWriter, r *http.Request) {
	l := h.list(sessionFromContext(r.Context()))
	id, ok := h.recordIDParam(w, r)
	if !ok {
		return
	}

	if err := l.CancelDelete(id); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, l.View())
}

func (h *ScreenHandler[T]) recordIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeJSON[T any](r *http.Request) (T, error) {
	var record T
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		return record, errors.New("invalid JSON body")
	}
	return record, nil
}

// decodeProduct accepts either a JSON record or a multipart form with the
// JSON record in the "record" field and an optional "image" file.
func decodeProduct(r *http.Request) (domain.Product, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return decodeJSON[domain.Product](r)
	}

	var p domain.Product
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return p, fmt.Errorf("invalid multipart body: %w", err)
	}
	if err := json.Unmarshal([]byte(r.FormValue("record")), &p); err != nil {
		return p, errors.New("invalid record field")
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("invalid image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return p, fmt.Errorf("read image: %w", err)
	}
	p.Upload = &domain.ImageUpload{Filename: header.Filename, Content: bytes.NewReader(data)}
	return p, nil
}
