package httphandler

import (
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	AddItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}

	UpdateQuantityRequest struct {
		Quantity *int `json:"quantity"`
	}

	IdentityRequest struct {
		UserID string `json:"user_id"`
	}

	CheckoutRequest struct {
		ShippingAddress Address `json:"shipping_address"`
	}
)

type (
	Cart struct {
		Items     []LineItem      `json:"items"`
		Total     decimal.Decimal `json:"total"`
		ItemCount int             `json:"item_count"`
		Status    string          `json:"status,omitempty"`
		Notice    string          `json:"notice,omitempty"`
	}

	LineItem struct {
		ProductID   string          `json:"product_id"`
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		Price       ProductPrice    `json:"price"`
		Discount    int             `json:"discount"`
		Images      []string        `json:"images"`
		Category    string          `json:"category"`
		Tags        []string        `json:"tags"`
		Stock       int             `json:"stock"`
		Rating      float64         `json:"rating"`
		Reviews     int             `json:"reviews"`
		Featured    bool            `json:"featured"`
		DealEnds    *time.Time      `json:"deal_ends,omitempty"`
		DealType    string          `json:"deal_type,omitempty"`
		Quantity    int             `json:"quantity"`
		Subtotal    decimal.Decimal `json:"subtotal"`
	}

	ProductPrice struct {
		Original decimal.Decimal `json:"original"`
		Current  decimal.Decimal `json:"current"`
	}

	Address struct {
		Name    string `json:"name"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zip_code"`
		Country string `json:"country"`
	}

	Order struct {
		ID              string          `json:"id"`
		Items           []LineItem      `json:"items"`
		Total           decimal.Decimal `json:"total"`
		Status          string          `json:"status"`
		ShippingAddress Address         `json:"shipping_address"`
		TrackingNumber  string          `json:"tracking_number,omitempty"`
		CreatedAt       time.Time       `json:"created_at"`
		UpdatedAt       time.Time       `json:"updated_at"`
	}
)

func cartFromDomain(c domain.Cart) Cart {
	return Cart{
		Items:     lineItemsFromDomain(c.Items),
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}
}

func lineItemsFromDomain(items []domain.LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = LineItem{
			ProductID:   item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price: ProductPrice{
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
			Subtotal: item.Subtotal(),
		}
	}
	return out
}

func orderFromDomain(o domain.Order) Order {
	return Order{
		ID:              o.ID,
		Items:           lineItemsFromDomain(o.Items),
		Total:           o.Total,
		Status:          o.Status,
		ShippingAddress: Address(o.ShippingAddress),
		TrackingNumber:  o.TrackingNumber,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (a Address) toDomain() domain.Address {
	return domain.Address(a)
}
