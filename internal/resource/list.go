// Package resource is the generic back-office screen: one in-memory list of
// records kept in step with the remote API, a create/edit form and a
// two-step delete.
package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
)

var (
	ErrNotReady        = errors.New("screen is still loading")
	ErrNoForm          = errors.New("no form is open")
	ErrRecordNotFound  = errors.New("record not found in list")
	ErrNoPendingDelete = errors.New("no delete pending for this record")
)

type Phase string

const (
	PhaseLoading Phase = "LOADING"
	PhaseReady   Phase = "READY"
)

type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id int64, record T) (T, error)
	Delete(ctx context.Context, id int64) error
}

type Notifier interface {
	Notify(source, message string)
}

// Enricher fills display-only fields of loaded or saved records.
type Enricher[T any] func(ctx context.Context, items []T) []T

type Form[T any] struct {
	Mode    FormMode            `json:"mode"`
	ID      int64               `json:"id,omitempty"`
	Record  T                   `json:"record"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

type View[T any] struct {
	Phase         Phase    `json:"phase"`
	Items         []T      `json:"items"`
	Form          *Form[T] `json:"form,omitempty"`
	PendingDelete *int64   `json:"pending_delete,omitempty"`
}

type Option[T domain.Entity[T]] func(*List[T])

func WithEnricher[T domain.Entity[T]](e Enricher[T]) Option[T] {
	return func(l *List[T]) { l.enrich = e }
}

type List[T domain.Entity[T]] struct {
	name   string
	remote Remote[T]
	notify Notifier
	log    zerolog.Logger
	enrich Enricher[T]

	loadOnce sync.Once

	mu            sync.Mutex
	phase         Phase
	items         []T
	form          *Form[T]
	pendingDelete *int64
}

func NewList[T domain.Entity[T]](name string, remote Remote[T], notify Notifier, log zerolog.Logger, opts ...Option[T]) *List[T] {
	l := &List[T]{
		name:   name,
		remote: remote,
		notify: notify,
		log:    log.With().Str("screen", name).Logger(),
		phase:  PhaseLoading,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mount loads the list the first time the screen is shown.
func (l *List[T]) Mount(ctx context.Context) {
	l.loadOnce.Do(func() {
		_ = l.Load(ctx)
	})
}

// Load refetches the list. A failure keeps the previous items, notifies
// the operator and still leaves the screen READY.
func (l *List[T]) Load(ctx context.Context) error {
	items, err := l.remote.List(ctx)
	if err == nil && l.enrich != nil {
		items = l.enrich(ctx, items)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = PhaseReady
	if err != nil {
		l.log.Error().Ctx(ctx).Err(err).Msg("failed to fetch list")
		l.notify.Notify(l.name, fmt.Sprintf("Failed to fetch %s.", l.name))
		return err
	}
	l.items = items
	return nil
}

func (l *List[T]) View() View[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := View[T]{Phase: l.phase, Items: append([]T(nil), l.items...)}
	if l.form != nil {
		f := *l.form
		v.Form = &f
	}
	if l.pendingDelete != nil {
		id := *l.pendingDelete
		v.PendingDelete = &id
	}
	return v
}

func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Search matches the primary display field, ignoring case.
func (l *List[T]) Search(term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	items := l.Items()
	if term == "" {
		return items
	}
	out := items[:0]
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Label()), term) {
			out = append(out, item)
		}
	}
	return out
}

func (l *List[T]) OpenCreate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != PhaseReady {
		return ErrNotReady
	}
	var zero T
	l.form = &Form[T]{Mode: FormCreate, Record: zero}
	return nil
}

// OpenEdit opens a form pre-populated from the record with the given id.
func (l *List[T]) OpenEdit(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != PhaseReady {
		return ErrNotReady
	}
	i := l.indexOf(id)
	if i < 0 {
		return ErrRecordNotFound
	}
	l.form = &Form[T]{Mode: FormEdit, ID: id, Record: l.items[i]}
	return nil
}

func (l *List[T]) CloseForm() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.form = nil
}

// Submit saves record through the open form. Required fields are checked
// before any network call. On any failure the form stays open carrying the
// field errors or the combined message.
func (l *List[T]) Submit(ctx context.Context, record T) (T, error) {
	var zero T

	l.mu.Lock()
	if l.form == nil {
		l.mu.Unlock()
		return zero, ErrNoForm
	}
	mode, id := l.form.Mode, l.form.ID
	l.form.Record = record
	l.form.Errors, l.form.Message = nil, ""
	l.mu.Unlock()

	if err := record.Validate(); err != nil {
		l.formFailed(err)
		return zero, err
	}

	var (
		saved T
		err   error
	)
	if mode == FormEdit {
		// the edited record keeps its identifier whatever the body carried
		saved, err = l.remote.Update(ctx, id, record.WithKey(id))
	} else {
		saved, err = l.remote.Create(ctx, record)
	}
	if err != nil {
		l.log.Error().Ctx(ctx).Err(err).Str("mode", string(mode)).Int64("id", id).Msg("failed to save record")
		l.formFailed(err)
		l.notify.Notify(l.name, operatorMessage(err))
		return zero, err
	}
	if mode == FormEdit {
		saved = saved.WithKey(id)
	} else if saved.Key() <= 0 {
		// created, but the API did not say under which id
		l.log.Warn().Ctx(ctx).Msg("created record has no id, refetching list")
		l.CloseForm()
		_ = l.Load(ctx)
		return saved, nil
	}
	if l.enrich != nil {
		saved = l.enrich(ctx, []T{saved})[0]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if mode == FormEdit {
		if i := l.indexOf(id); i >= 0 {
			l.items[i] = saved
		}
	} else {
		l.items = append(l.items, saved)
	}
	l.form = nil
	return saved, nil
}

// RequestDelete marks id as awaiting confirmation. Nothing is sent.
func (l *List[T]) RequestDelete(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(id) < 0 {
		return ErrRecordNotFound
	}
	l.pendingDelete = &id
	return nil
}

func (l *List[T]) CancelDelete(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pendingDelete == nil || *l.pendingDelete != id {
		return ErrNoPendingDelete
	}
	l.pendingDelete = nil
	return nil
}

// ConfirmDelete deletes a record previously passed to RequestDelete. The
// record leaves the list only when the API call succeeds.
func (l *List[T]) ConfirmDelete(ctx context.Context, id int64) error {
	l.mu.Lock()
	if l.pendingDelete == nil || *l.pendingDelete != id {
		l.mu.Unlock()
		return ErrNoPendingDelete
	}
	l.pendingDelete = nil
	l.mu.Unlock()

	if err := l.remote.Delete(ctx, id); err != nil {
		l.log.Error().Ctx(ctx).Err(err).Int64("id", id).Msg("failed to delete record")
		l.notify.Notify(l.name, operatorMessage(err))
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	return nil
}

func (l *List[T]) formFailed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.form == nil {
		return
	}

	var local *domain.ValidationError
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &local):
		l.form.Errors = local.Fields
	case errors.As(err, &apiErr):
		if v := apiErr.Validation(); v != nil {
			l.form.Errors = v.Fields
		}
		l.form.Message = apiErr.OperatorMessage()
	default:
		l.form.Message = err.Error()
	}
}

func (l *List[T]) indexOf(id int64) int {
	for i := range l.items {
		if l.items[i].Key() == id {
			return i
		}
	}
	return -1
}

func operatorMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.OperatorMessage()
	}
	return err.Error()
}
