package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_pos/internal/checkout"
	"github.com/fjod/go_pos/internal/composer"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/fjod/go_pos/internal/invoice"
	"github.com/fjod/go_pos/internal/pricing"
	"github.com/fjod/go_pos/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type POSHandler struct {
	responder
	timeout time.Duration
}

func NewPOSHandler(timeout time.Duration, log zerolog.Logger) *POSHandler {
	return &POSHandler{responder: responder{log: log}, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type CatalogResponse struct {
	Loading bool             `json:"loading"`
	Items   []domain.Product `json:"items"`
}

type CartLineDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product_name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartResponse struct {
	Lines      []CartLineDTO `json:"lines"`
	SubTotal   string        `json:"sub_total"`
	TotalItems int           `json:"total_items"`
}

type QuoteDTO struct {
	SubTotal       string `json:"sub_total"`
	DiscountAmount string `json:"discount_amount"`
	TaxAmount      string `json:"tax_amount"`
	Total          string `json:"total"`
	TotalItems     int    `json:"total_items"`
}

type OrderResponse struct {
	composer.State
	Quote QuoteDTO `json:"quote"`
}

type CheckoutResponse struct {
	checkout.State
	Invoice *invoice.View `json:"invoice,omitempty"`
}

func (h *POSHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s.MountPOS(ctx)
	h.respondJSON(w, http.StatusOK, CatalogResponse{
		Loading: s.Catalog.Loading(),
		Items:   s.Catalog.Filter(r.URL.Query().Get("q")),
	})
}

func (h *POSHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := s.Catalog.Load(ctx); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, CatalogResponse{Items: s.Catalog.Filter("")})
}

func (h *POSHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, cartResponse(sessionFromContext(r.Context())))
}

func (h *POSHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	// Parse request body
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := s.Catalog.Find(req.ProductID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	s.Cart.Add(product)

	h.respondJSON(w, http.StatusCreated, cartResponse(s))
}

func (h *POSHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	productID, ok := h.productIDParam(w, r)
	if !ok {
		return
	}

	s.Cart.Decrement(productID)
	h.respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *POSHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	productID, ok := h.productIDParam(w, r)
	if !ok {
		return
	}

	s.Cart.Remove(productID)
	h.respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *POSHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Cart.Clear()
	h.respondJSON(w, http.StatusOK, cartResponse(s))
}

func (h *POSHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s.MountPOS(ctx)
	resp, err := orderResponse(s)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *POSHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var sel composer.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := s.Composer.Select(sel); err != nil {
		h.handleError(w, err)
		return
	}

	resp, err := orderResponse(s)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *POSHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, checkoutResponse(sessionFromContext(r.Context()).Checkout.State()))
}

func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := s.Checkout.Checkout(ctx); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, checkoutResponse(s.Checkout.State()))
}

func (h *POSHandler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := s.ResetCheckout(); err != nil {
		h.handleError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, checkoutResponse(s.Checkout.State()))
}

// GetInvoice renders the last completed order as JSON, or as the print
// layout with ?format=text.
func (h *POSHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	st := sessionFromContext(r.Context()).Checkout.State()
	if st.Snapshot == nil {
		h.respondError(w, http.StatusNotFound, "no_invoice", "no completed checkout")
		return
	}

	view := invoice.NewView(*st.Snapshot)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = view.Render(w)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

func (h *POSHandler) productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	// Get product_id from URL path
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func cartResponse(s *session.Session) CartResponse {
	lines := s.Cart.Lines()
	resp := CartResponse{Lines: make([]CartLineDTO, 0, len(lines))}
	subTotal := decimal.Zero
	for _, l := range lines {
		resp.Lines = append(resp.Lines, CartLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: pricing.Money(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: pricing.Money(l.LineTotal()),
		})
		resp.TotalItems += l.Quantity
		subTotal = subTotal.Add(l.LineTotal())
	}
	resp.SubTotal = pricing.Money(subTotal)
	return resp
}

func orderResponse(s *session.Session) (OrderResponse, error) {
	q, err := s.Composer.Quote(s.Cart.SubTotal())
	if err != nil {
		return OrderResponse{}, err
	}
	return OrderResponse{
		State: s.Composer.State(),
		Quote: QuoteDTO{
			SubTotal:       pricing.Money(q.SubTotal),
			DiscountAmount: pricing.Money(q.DiscountAmount),
			TaxAmount:      pricing.Money(q.TaxAmount),
			Total:          pricing.Money(q.Total),
			TotalItems:     s.Cart.TotalItemCount(),
		},
	}, nil
}

func checkoutResponse(st checkout.State) CheckoutResponse {
	resp := CheckoutResponse{State: st}
	if st.Snapshot != nil {
		v := invoice.NewView(*st.Snapshot)
		resp.Invoice = &v
	}
	return resp
}
