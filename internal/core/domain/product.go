package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DealType string

const (
	DealFlash     DealType = "flash"
	DealClearance DealType = "clearance"
	DealLimited   DealType = "limited"
)

func (t DealType) Valid() bool {
	switch t {
	case "", DealFlash, DealClearance, DealLimited:
		return true
	}
	return false
}

type (
	Product struct {
		ID          string
		Name        string
		Description string
		Price       ProductPrice
		Discount    int
		Images      []string
		Category    string
		Tags        []string
		Stock       int
		Rating      float64
		Reviews     int
		Featured    bool
		DealEnds    *time.Time
		DealType    DealType
	}

	ProductPrice struct {
		Original decimal.Decimal
		Current  decimal.Decimal
	}
)
