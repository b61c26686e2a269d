package resource

import (
	"context"

	"github.com/fjod/go_pos/internal/domain"
	"github.com/rs/zerolog"
)

const UnknownCategory = "Unknown"

type CategorySource interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// CategoryNames resolves each product's category id against the category
// list. When the list cannot be loaded the names already on the records
// are kept.
func CategoryNames(src CategorySource, log zerolog.Logger) Enricher[domain.Product] {
	return func(ctx context.Context, products []domain.Product) []domain.Product {
		categories, err := src.Categories(ctx)
		if err != nil {
			log.Warn().Ctx(ctx).Err(err).Msg("failed to fetch categories for product rows")
			return products
		}

		names := make(map[int64]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}
		for i := range products {
			if name, ok := names[products[i].CategoryID]; ok {
				products[i].CategoryName = name
			} else {
				products[i].CategoryName = UnknownCategory
			}
		}
		return products
	}
}
