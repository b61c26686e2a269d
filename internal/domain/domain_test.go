package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductValidate_RequiredFields(t *testing.T) {
	err := Product{Price: decimal.NewFromInt(-1)}.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Please input the product name!"}, ve.Fields["product_name"])
	assert.Contains(t, ve.Fields, "description")
	assert.Contains(t, ve.Fields, "price")
	assert.Contains(t, ve.Fields, "categories_id")
}

func TestProductValidate_OK(t *testing.T) {
	p := Product{Name: "Latte", Description: "hot", Price: decimal.RequireFromString("3.50"), CategoryID: 2, StockQuantity: 10}
	assert.NoError(t, p.Validate())
}

func TestCustomerValidate_BlankIsMissing(t *testing.T) {
	err := Customer{Name: "   ", Email: "a@b.c", Phone: "1"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name: Please input the customer name!")
}

func TestValidationError_ErrNilWhenEmpty(t *testing.T) {
	var v ValidationError
	assert.NoError(t, v.Err())

	var nilErr *ValidationError
	assert.NoError(t, nilErr.Err())
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	var v ValidationError
	v.Add("zeta", "z")
	v.Add("alpha", "a1")
	v.Add("alpha", "a2")
	assert.Equal(t, "validation failed: alpha: a1, a2; zeta: z", v.Error())
}

func TestProduct_PriceTravelsAsNumber(t *testing.T) {
	data, err := json.Marshal(Product{ID: 1, Name: "Tea", Price: decimal.RequireFromString("2.5")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":2.5`)
	assert.NotContains(t, string(data), "Upload")

	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"products_id":7,"price":"4.25","categories_name":"Drinks"}`), &p))
	assert.Equal(t, int64(7), p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("4.25")))
	assert.Equal(t, "Drinks", p.CategoryName)
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2026, 3, 9, 17, 45, 0, 0, time.Local))
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-09"`, string(data))

	cases := map[string]string{
		`"2026-03-09"`:                  "2026-03-09",
		`"2026-03-09T10:00:00.000000Z"`: "2026-03-09",
		`"2026-03-09 10:00:00"`:         "2026-03-09",
	}
	for in, want := range cases {
		var got Date
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got.String(), in)
	}

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"09/03/2026"`), &bad))

	var empty Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.IsZero())
}

func TestCartLine_LineTotal(t *testing.T) {
	l := CartLine{UnitPrice: decimal.RequireFromString("1.25"), Quantity: 3}
	assert.Equal(t, "3.75", l.LineTotal().StringFixed(2))
}

func TestOrderValidate(t *testing.T) {
	err := Order{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders_status_id")
	assert.Contains(t, err.Error(), "order_date")

	ok := Order{OrderStatusID: 1, OrderDate: NewDate(time.Now()), Total: decimal.NewFromInt(10)}
	assert.NoError(t, ok.Validate())
}
