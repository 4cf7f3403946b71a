package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID      int    `gorm:"primary_key" json:"id"`
	VenueId string `gorm:"index;not null" json:"venue_id"`
	Name    string `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Brand   string `gorm:"size:100" json:"brand"`
	// Volume of one unit in ml. Zero when the product has no meaningful volume
	// (e.g. sold by piece).
	Volume decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"volume"`
	Sku    string          `gorm:"size:100" json:"sku"`
	// SalePrice is the confirmed direct-sale price, set the first time the
	// product is assigned for direct sale. Once confirmed it drives price
	// auto-fill and locks the price field in new plans.
	SalePrice            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	IsSalePriceConfirmed *bool           `gorm:"not null;default:false" json:"is_sale_price_confirmed"`
	IsActive             *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetConfirmedSalePrice returns the confirmed direct-sale price for a product,
// or nil when no price has been confirmed yet.
func GetConfirmedSalePrice(ctx context.Context, venueId string, productId int) (*decimal.Decimal, error) {
	product, err := utils.FetchModel[Product](ctx, venueId, productId)
	if err != nil {
		return nil, err
	}
	if product.IsSalePriceConfirmed == nil || !*product.IsSalePriceConfirmed {
		return nil, nil
	}
	if !product.SalePrice.IsPositive() {
		return nil, nil
	}
	price := product.SalePrice
	return &price, nil
}

// ConfirmSalePrice stores the first direct-sale price of a product.
// An already confirmed price is never overwritten.
func ConfirmSalePrice(tx *gorm.DB, venueId string, productId int, price decimal.Decimal) error {
	return tx.Model(&Product{}).
		Where("venue_id = ? AND id = ? AND is_sale_price_confirmed = 0", venueId, productId).
		Updates(map[string]interface{}{
			"sale_price":              price,
			"is_sale_price_confirmed": true,
		}).Error
}
