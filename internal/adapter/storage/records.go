package storage

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Line items are stored as a JSON array in both the remote
// cart_items column and the local record.
type (
	lineItemRecord struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Price       priceRecord `json:"price"`
		Discount    int         `json:"discount"`
		Images      []string    `json:"images"`
		Category    string      `json:"category"`
		Tags        []string    `json:"tags"`
		Stock       int         `json:"stock"`
		Rating      float64     `json:"rating"`
		Reviews     int         `json:"reviews"`
		Featured    bool        `json:"featured"`
		DealEnds    *time.Time  `json:"dealEnds,omitempty"`
		DealType    string      `json:"dealType,omitempty"`
		Quantity    int         `json:"quantity"`
	}

	priceRecord struct {
		Original decimal.Decimal `json:"original"`
		Current  decimal.Decimal `json:"current"`
	}

	fallbackMarkRecord struct {
		UserID  string    `json:"user_id"`
		SavedAt time.Time `json:"saved_at"`
	}

	addressRecord struct {
		Name    string `json:"name"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
		Country string `json:"country"`
	}
)

func encodeLineItems(items []domain.LineItem) ([]byte, error) {
	rs := make([]lineItemRecord, len(items))
	for i, item := range items {
		rs[i] = toLineItemRecord(item)
	}
	return json.Marshal(rs)
}

// decodeLineItems returns [domain.ErrMalformedRecord] for data
// that is not a JSON array of line items.
func decodeLineItems(data []byte) ([]domain.LineItem, error) {
	var rs []lineItemRecord
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	items := make([]domain.LineItem, 0, len(rs))
	for _, r := range rs {
		if r.ID == "" || !domain.DealType(r.DealType).Valid() {
			return nil, fmt.Errorf("%w: invalid line item %q", domain.ErrMalformedRecord, r.ID)
		}
		items = append(items, r.toDomain())
	}
	return items, nil
}

func toLineItemRecord(item domain.LineItem) lineItemRecord {
	return lineItemRecord{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price: priceRecord{
			Original: item.Price.Original,
			Current:  item.Price.Current,
		},
		Discount: item.Discount,
		Images:   item.Images,
		Category: item.Category,
		Tags:     item.Tags,
		Stock:    item.Stock,
		Rating:   item.Rating,
		Reviews:  item.Reviews,
		Featured: item.Featured,
		DealEnds: item.DealEnds,
		DealType: string(item.DealType),
		Quantity: item.Quantity,
	}
}

func (r lineItemRecord) toDomain() domain.LineItem {
	return domain.LineItem{
		Product: domain.Product{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Price: domain.ProductPrice{
				Original: r.Price.Original,
				Current:  r.Price.Current,
			},
			Discount: r.Discount,
			Images:   r.Images,
			Category: r.Category,
			Tags:     r.Tags,
			Stock:    r.Stock,
			Rating:   r.Rating,
			Reviews:  r.Reviews,
			Featured: r.Featured,
			DealEnds: r.DealEnds,
			DealType: domain.DealType(r.DealType),
		},
		Quantity: r.Quantity,
	}
}

func encodeFallbackMark(m port.FallbackMark) ([]byte, error) {
	return json.Marshal(fallbackMarkRecord{UserID: m.UserID, SavedAt: m.SavedAt})
}

func decodeFallbackMark(data []byte) (port.FallbackMark, error) {
	var r fallbackMarkRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return port.FallbackMark{}, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	return port.FallbackMark{UserID: r.UserID, SavedAt: r.SavedAt}, nil
}

func encodeAddress(a domain.Address) ([]byte, error) {
	return json.Marshal(addressRecord(a))
}

func decodeAddress(data []byte) (domain.Address, error) {
	var r addressRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Address{}, err
	}
	return domain.Address(r), nil
}
