package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"github.com/shopspring/decimal"
)

// BarStock is one product/supplier position held at a bar. Quantity is
// tracked in volume units (ml) for poured products; for piece-tracked
// products it is the piece count. A zero quantity means the position was
// fully consumed and is kept for reporting only.
type BarStock struct {
	ID               int             `gorm:"primary_key" json:"id"`
	VenueId          string          `gorm:"index;not null" json:"venue_id"`
	BarId            int             `gorm:"index;not null" json:"bar_id"`
	Bar              *Bar            `gorm:"foreignkey:BarId" json:"bar"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Product          *Product        `gorm:"foreignkey:ProductId" json:"product"`
	SupplierId       int             `gorm:"index;not null" json:"supplier_id"`
	Ownership        Ownership       `gorm:"type:enum('purchased','consignment');default:'purchased'" json:"ownership"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	SellAsWholeUnit  *bool           `gorm:"not null;default:false" json:"sell_as_whole_unit"`
	SalePriceMinor   int64           `gorm:"default:0" json:"sale_price_minor"`
	Currency         string          `gorm:"size:3;default:'EUR'" json:"currency"`
	SourceLotId      int             `gorm:"index" json:"source_lot_id"`
	ReturnedAt       *time.Time      `json:"returned_at"`
	ReturnedToGlobal *bool           `json:"returned_to_global"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsReturnable reports whether the position still holds stock. Consumed
// positions (quantity <= 0) are informational only and never returned.
func (bs *BarStock) IsReturnable() bool {
	return bs.Quantity.IsPositive() && bs.ReturnedAt == nil
}

// GetBarStocks returns a bar's current stock positions with products
// preloaded. Read-through cached per bar.
func GetBarStocks(ctx context.Context, venueId string, barId int) ([]*BarStock, error) {
	var stocks []*BarStock
	cacheKey := utils.BarStocksKey(venueId, barId)
	exists, err := config.GetRedisObject(cacheKey, &stocks)
	if err == nil && exists {
		return stocks, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Preload("Product").
		Where("venue_id = ? AND bar_id = ? AND returned_at IS NULL", venueId, barId).
		Order("id ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(cacheKey, stocks, utils.GetCacheLifespan())
	return stocks, nil
}
