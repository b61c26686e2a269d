package domain

import (
	"io"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"products_id"`
	Name          string          `json:"product_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    int64           `json:"categories_id"`
	CategoryName  string          `json:"categories_name,omitempty"`
	Image         string          `json:"image,omitempty"`

	// Upload switches create/update to a multipart request.
	Upload *ImageUpload `json:"-"`
}

type ImageUpload struct {
	Filename string
	Content  io.Reader
}

func (p Product) Key() int64    { return p.ID }
func (p Product) Label() string { return p.Name }

func (p Product) WithKey(id int64) Product {
	p.ID = id
	return p
}

func (p Product) Validate() error {
	var v ValidationError
	required(&v, "product_name", p.Name, "Please input the product name!")
	required(&v, "description", p.Description, "Please input the description!")
	if p.Price.IsNegative() {
		v.Add("price", "Price must not be negative!")
	}
	if p.CategoryID <= 0 {
		v.Add("categories_id", "Please select a category!")
	}
	if p.StockQuantity < 0 {
		v.Add("stock_quantity", "Stock quantity must not be negative!")
	}
	return v.Err()
}

type Category struct {
	ID          int64  `json:"categories_id"`
	Name        string `json:"categories_name"`
	Description string `json:"description"`
}

func (c Category) Key() int64    { return c.ID }
func (c Category) Label() string { return c.Name }

func (c Category) WithKey(id int64) Category {
	c.ID = id
	return c
}

func (c Category) Validate() error {
	var v ValidationError
	required(&v, "categories_name", c.Name, "Please input the category name!")
	required(&v, "description", c.Description, "Please input the description!")
	return v.Err()
}
