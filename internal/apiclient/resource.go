package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/fjod/go_pos/internal/domain"
)

type routes struct {
	list   string
	create string
	update string
	delete string
}

func routeSet(name, list string) routes {
	return routes{
		list:   list,
		create: "add" + name,
		update: "edit" + name + "/",
		delete: "delete" + name + "/",
	}
}

var (
	productRoutes       = routeSet("product", "getallproduct")
	categoryRoutes      = routeSet("category", "getcategory")
	customerRoutes      = routeSet("customer", "getcustomer")
	employeeRoutes      = routeSet("employee", "getemployee")
	paymentMethodRoutes = routeSet("payment", "getpayment")
	orderRoutes         = routeSet("order", "getorder")
)

const orderStatusRoute = "getorderstatus"

// encoder turns a record into a request body and its content type.
type encoder[T any] func(record T) ([]byte, string, error)

// Resource is the list/create/update/delete collaborator of one entity.
type Resource[T any] struct {
	client *Client
	routes routes
	encode encoder[T]
}

func newJSONResource[T any](c *Client, r routes) *Resource[T] {
	return &Resource[T]{client: c, routes: r, encode: encodeJSON[T]}
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	resp, err := r.client.do(ctx, http.MethodGet, r.routes.list, nil, "")
	if err != nil {
		return nil, err
	}
	var items []T
	if err := decode(resp, "GET "+r.routes.list, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create returns the stored record, or the submitted one when the API
// answers with an empty body.
func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	return r.write(ctx, http.MethodPost, r.routes.create, record)
}

func (r *Resource[T]) Update(ctx context.Context, id int64, record T) (T, error) {
	return r.write(ctx, http.MethodPut, r.routes.update+strconv.FormatInt(id, 10), record)
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.routes.delete+strconv.FormatInt(id, 10), nil, "")
	return err
}

func (r *Resource[T]) write(ctx context.Context, method, path string, record T) (T, error) {
	body, contentType, err := r.encode(record)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("encode %s: %w", path, err)
	}
	resp, err := r.client.do(ctx, method, path, body, contentType)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return record, nil
	}
	out := record
	if err := decode(resp, method+" "+path, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// CreateOrder submits a checkout. Only 201 Created counts as success.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	op := http.MethodPost + " " + orderRoutes.create
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, orderRoutes.create, body, "application/json")
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusCreated {
		return nil, &Error{
			Kind:    KindUnexpected,
			Op:      op,
			Status:  resp.status,
			Message: fmt.Sprintf("expected status %d", http.StatusCreated),
		}
	}

	order := &domain.Order{
		CustomerID:      req.CustomerID,
		PaymentMethodID: req.PaymentMethodID,
		OrderStatusID:   req.OrderStatusID,
		OrderDate:       req.OrderDate,
		Total:           req.Total,
	}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := decode(resp, op, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (c *Client) ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, orderStatusRoute, nil, "")
	if err != nil {
		return nil, err
	}
	var statuses []domain.OrderStatus
	if err := decode(resp, "GET "+orderStatusRoute, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func decode(resp *response, op string, v any) error {
	if err := json.Unmarshal(resp.body, v); err != nil {
		return &Error{Kind: KindUnexpected, Op: op, Status: resp.status, Message: "malformed response body", Err: err}
	}
	return nil
}

func encodeJSON[T any](record T) ([]byte, string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

// encodeProduct sends JSON unless an image is attached, in which case every
// field becomes a form part next to the "image" file part.
func encodeProduct(p domain.Product) ([]byte, string, error) {
	if p.Upload == nil {
		return encodeJSON(p)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"product_name", p.Name},
		{"description", p.Description},
		{"price", p.Price.String()},
		{"stock_quantity", strconv.Itoa(p.StockQuantity)},
		{"categories_id", strconv.FormatInt(p.CategoryID, 10)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("image", p.Upload.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, p.Upload.Content); err != nil {
		return nil, "", fmt.Errorf("copy image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
