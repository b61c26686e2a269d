package resource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	items     []domain.Customer
	listErr   error
	saveErr   error
	deleteErr error
	nextID    int64

	creates int
	updates int
	deletes []int64
}

func (m *mockRemote) List(ctx context.Context) ([]domain.Customer, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Customer(nil), m.items...), nil
}

func (m *mockRemote) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	m.creates++
	if m.saveErr != nil {
		return domain.Customer{}, m.saveErr
	}
	m.nextID++
	c.ID = m.nextID
	return c, nil
}

func (m *mockRemote) Update(ctx context.Context, id int64, c domain.Customer) (domain.Customer, error) {
	m.updates++
	if m.saveErr != nil {
		return domain.Customer{}, m.saveErr
	}
	c.ID = id
	return c, nil
}

func (m *mockRemote) Delete(ctx context.Context, id int64) error {
	m.deletes = append(m.deletes, id)
	return m.deleteErr
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(source, message string) {
	m.messages = append(m.messages, message)
}

func customers() []domain.Customer {
	return []domain.Customer{
		{ID: 1, Name: "Ann", Email: "ann@x.io", Phone: "1"},
		{ID: 2, Name: "Bob", Email: "bob@x.io", Phone: "2"},
		{ID: 3, Name: "Cid", Email: "cid@x.io", Phone: "3"},
	}
}

func loadedList(t *testing.T, remote *mockRemote) (*List[domain.Customer], *mockNotifier) {
	t.Helper()
	n := &mockNotifier{}
	l := NewList[domain.Customer]("customers", remote, n, zerolog.Nop())
	require.NoError(t, l.Load(context.Background()))
	return l, n
}

func TestLoad_FailureLeavesReadyAndNotifies(t *testing.T) {
	n := &mockNotifier{}
	l := NewList[domain.Customer]("customers", &mockRemote{listErr: errors.New("down")}, n, zerolog.Nop())
	assert.Equal(t, PhaseLoading, l.View().Phase)
	assert.ErrorIs(t, l.OpenCreate(), ErrNotReady)

	require.Error(t, l.Load(context.Background()))
	v := l.View()
	assert.Equal(t, PhaseReady, v.Phase)
	assert.Empty(t, v.Items)
	assert.Equal(t, []string{"Failed to fetch customers."}, n.messages)
}

func TestMount_LoadsOnce(t *testing.T) {
	remote := &mockRemote{items: customers()}
	l := NewList[domain.Customer]("customers", remote, &mockNotifier{}, zerolog.Nop())

	l.Mount(context.Background())
	remote.items = nil
	l.Mount(context.Background())

	assert.Len(t, l.Items(), 3)
}

func TestCreate_AppendsAndClosesForm(t *testing.T) {
	remote := &mockRemote{items: customers(), nextID: 3}
	l, _ := loadedList(t, remote)

	require.NoError(t, l.OpenCreate())
	saved, err := l.Submit(context.Background(), domain.Customer{Name: "Dee", Email: "d@x.io", Phone: "4"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), saved.ID)

	v := l.View()
	assert.Nil(t, v.Form)
	require.Len(t, v.Items, 4)
	assert.Equal(t, "Dee", v.Items[3].Name)
}

func TestEdit_ReplacesOnlyMatchingRecord(t *testing.T) {
	remote := &mockRemote{items: customers()}
	l, _ := loadedList(t, remote)
	before := l.Items()

	require.NoError(t, l.OpenEdit(2))
	form := l.View().Form
	require.NotNil(t, form)
	assert.Equal(t, "Bob", form.Record.Name)

	edited := form.Record
	edited.Name = "Robert"
	_, err := l.Submit(context.Background(), edited)
	require.NoError(t, err)

	after := l.Items()
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, "Robert", after[1].Name)
	assert.Equal(t, int64(2), after[1].ID)
	assert.Equal(t, before[2], after[2])
}

// customerAPI serves the customer routes of the remote API. Edits answer
// with editBody and creates answer 201 with an empty body.
func customerAPI(t *testing.T, editBody string) (*apiclient.Client, *atomic.Int32, *atomic.Int64) {
	t.Helper()
	var lists atomic.Int32
	var sentID atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/getcustomer":
			n := lists.Add(1)
			body := `[{"customers_id":1,"name":"Ann","email":"ann@x.io","phone":"1"},{"customers_id":2,"name":"Bob","email":"bob@x.io","phone":"2"}`
			if n > 1 {
				body += `,{"customers_id":7,"name":"Dee","email":"d@x.io","phone":"4"}`
			}
			io.WriteString(w, body+"]")
		case r.Method == http.MethodPut && r.URL.Path == "/api/editcustomer/2":
			var c domain.Customer
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&c))
			sentID.Store(c.ID)
			io.WriteString(w, editBody)
		case r.Method == http.MethodPost && r.URL.Path == "/api/addcustomer":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c, &lists, &sentID
}

func TestEdit_KeepsIdentifierWhateverTheAPIAnswers(t *testing.T) {
	tests := []struct {
		name     string
		editBody string
	}{
		{name: "empty body", editBody: ""},
		{name: "body without id", editBody: `{"name":"Robert","email":"bob@x.io","phone":"2"}`},
		{name: "body with zero id", editBody: `{"customers_id":0,"name":"Robert","email":"bob@x.io","phone":"2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, sentID := customerAPI(t, tt.editBody)
			l := NewList[domain.Customer]("customers", client.Customers, &mockNotifier{}, zerolog.Nop())
			require.NoError(t, l.Load(context.Background()))

			require.NoError(t, l.OpenEdit(2))
			saved, err := l.Submit(context.Background(), domain.Customer{Name: "Robert", Email: "bob@x.io", Phone: "2"})
			require.NoError(t, err)
			assert.Equal(t, int64(2), saved.ID)
			assert.Equal(t, int64(2), sentID.Load())

			items := l.Items()
			require.Len(t, items, 2)
			assert.Equal(t, int64(1), items[0].ID)
			assert.Equal(t, int64(2), items[1].ID)
			assert.Equal(t, "Robert", items[1].Name)

			assert.NoError(t, l.OpenEdit(2))
			l.CloseForm()
			assert.NoError(t, l.RequestDelete(2))
		})
	}
}

func TestCreate_WithoutIdentifierRefetchesList(t *testing.T) {
	client, lists, _ := customerAPI(t, "")
	l := NewList[domain.Customer]("customers", client.Customers, &mockNotifier{}, zerolog.Nop())
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, l.OpenCreate())
	_, err := l.Submit(context.Background(), domain.Customer{Name: "Dee", Email: "d@x.io", Phone: "4"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), lists.Load())
	v := l.View()
	assert.Nil(t, v.Form)
	require.Len(t, v.Items, 3)
	for _, c := range v.Items {
		assert.NotZero(t, c.ID)
	}
	assert.Equal(t, int64(7), v.Items[2].ID)
}

func TestSubmit_LocalValidationNeverCallsAPI(t *testing.T) {
	remote := &mockRemote{items: customers()}
	l, _ := loadedList(t, remote)

	require.NoError(t, l.OpenCreate())
	_, err := l.Submit(context.Background(), domain.Customer{Name: "NoContact"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, remote.creates)

	form := l.View().Form
	require.NotNil(t, form)
	assert.Contains(t, form.Errors, "email")
	assert.Contains(t, form.Errors, "phone")
}

func TestSubmit_APIFailureKeepsFormOpen(t *testing.T) {
	remote := &mockRemote{items: customers(), saveErr: &apiclient.Error{
		Kind:   apiclient.KindValidation,
		Status: http.StatusUnprocessableEntity,
		Fields: map[string][]string{"email": {"The email has already been taken."}},
	}}
	l, n := loadedList(t, remote)

	require.NoError(t, l.OpenEdit(1))
	_, err := l.Submit(context.Background(), customers()[0])
	require.Error(t, err)

	v := l.View()
	require.NotNil(t, v.Form)
	assert.Equal(t, FormEdit, v.Form.Mode)
	assert.Equal(t, []string{"The email has already been taken."}, v.Form.Errors["email"])
	assert.Equal(t, customers(), v.Items)
	assert.Equal(t, []string{"The email has already been taken."}, n.messages)
}

func TestSubmit_WithoutForm(t *testing.T) {
	l, _ := loadedList(t, &mockRemote{})
	_, err := l.Submit(context.Background(), domain.Customer{})
	assert.ErrorIs(t, err, ErrNoForm)
}

func TestOpenEdit_UnknownRecord(t *testing.T) {
	l, _ := loadedList(t, &mockRemote{items: customers()})
	assert.ErrorIs(t, l.OpenEdit(42), ErrRecordNotFound)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	remote := &mockRemote{items: customers()}
	l, _ := loadedList(t, remote)

	assert.ErrorIs(t, l.ConfirmDelete(context.Background(), 2), ErrNoPendingDelete)

	require.NoError(t, l.RequestDelete(2))
	assert.Equal(t, int64(2), *l.View().PendingDelete)
	require.NoError(t, l.CancelDelete(2))

	assert.Nil(t, l.View().PendingDelete)
	assert.Equal(t, customers(), l.Items())
	assert.Empty(t, remote.deletes)
	assert.ErrorIs(t, l.ConfirmDelete(context.Background(), 2), ErrNoPendingDelete)
}

func TestDelete_ConfirmedRemovesRecord(t *testing.T) {
	remote := &mockRemote{items: customers()}
	l, _ := loadedList(t, remote)

	require.NoError(t, l.RequestDelete(2))
	require.NoError(t, l.ConfirmDelete(context.Background(), 2))

	assert.Equal(t, []int64{2}, remote.deletes)
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(3), items[1].ID)
}

func TestDelete_FailureLeavesList(t *testing.T) {
	remote := &mockRemote{items: customers(), deleteErr: &apiclient.Error{Kind: apiclient.KindConflict}}
	l, n := loadedList(t, remote)

	require.NoError(t, l.RequestDelete(1))
	require.Error(t, l.ConfirmDelete(context.Background(), 1))

	assert.Equal(t, customers(), l.Items())
	assert.Equal(t, []string{"The record was changed or is still in use."}, n.messages)
}

func TestSearch_ByLabel(t *testing.T) {
	l, _ := loadedList(t, &mockRemote{items: customers()})

	got := l.Search("BO")
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Name)
	assert.Len(t, l.Search(""), 3)
}

type mockCategories struct {
	categories []domain.Category
	err        error
}

func (m mockCategories) Categories(ctx context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func TestCategoryNames(t *testing.T) {
	enrich := CategoryNames(mockCategories{categories: []domain.Category{{ID: 1, Name: "Drinks"}}}, zerolog.Nop())

	got := enrich(context.Background(), []domain.Product{
		{ID: 1, CategoryID: 1},
		{ID: 2, CategoryID: 9},
	})
	assert.Equal(t, "Drinks", got[0].CategoryName)
	assert.Equal(t, UnknownCategory, got[1].CategoryName)
}

func TestCategoryNames_KeepsNamesWhenCategoriesFail(t *testing.T) {
	enrich := CategoryNames(mockCategories{err: errors.New("down")}, zerolog.Nop())

	got := enrich(context.Background(), []domain.Product{{ID: 1, CategoryID: 1, CategoryName: "From API"}})
	assert.Equal(t, "From API", got[0].CategoryName)
}
