package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.ProductCatalog = (*ProductsRepository)(nil)

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			id, name, description, price_original, price_current,
			discount, images, category, tags, stock,
			rating, reviews, featured, deal_ends, deal_type
		FROM products
		WHERE id = $1;`

	var (
		v        domain.Product
		imagesB  []byte
		tagsB    []byte
		dealEnds sql.NullTime
		dealType sql.NullString
	)
	err := r.sqldb.QueryRowContext(ctx, query, productID).Scan(
		&v.ID, &v.Name, &v.Description, &v.Price.Original, &v.Price.Current,
		&v.Discount, &imagesB, &v.Category, &tagsB, &v.Stock,
		&v.Rating, &v.Reviews, &v.Featured, &dealEnds, &dealType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(imagesB, &v.Images); err != nil {
		return domain.Product{}, fmt.Errorf("%s: images: %w", op, err)
	}

	if err := json.Unmarshal(tagsB, &v.Tags); err != nil {
		return domain.Product{}, fmt.Errorf("%s: tags: %w", op, err)
	}

	if dealEnds.Valid {
		t := dealEnds.Time
		v.DealEnds = &t
	}
	v.DealType = domain.DealType(dealType.String)

	return v, nil
}
