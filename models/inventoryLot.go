package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"github.com/shopspring/decimal"
)

// InventoryLot is one purchasable batch of a product from one supplier in the
// venue's global inventory. AllocatedQuantity tracks what has already been
// assigned out to bars; the difference is what a new plan may distribute.
type InventoryLot struct {
	ID                int             `gorm:"primary_key" json:"id"`
	VenueId           string          `gorm:"index;not null" json:"venue_id"`
	ProductId         int             `gorm:"index;not null" json:"product_id"`
	Product           *Product        `gorm:"foreignkey:ProductId" json:"product"`
	SupplierId        int             `gorm:"index;not null" json:"supplier_id"`
	Supplier          *Supplier       `gorm:"foreignkey:SupplierId" json:"supplier"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	AllocatedQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_quantity"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	Currency          string          `gorm:"size:3;default:'EUR'" json:"currency"`
	ReceivedDate      time.Time       `json:"received_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AvailableQuantity is total minus already-allocated, floored at zero.
func (lot *InventoryLot) AvailableQuantity() decimal.Decimal {
	available := lot.Quantity.Sub(lot.AllocatedQuantity)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// GetAvailableLots returns the venue's lots that still have unallocated
// quantity, with product and supplier preloaded. Read-through cached; the
// cache is cleared after every dispatch that touched inventory.
func GetAvailableLots(ctx context.Context, venueId string) ([]*InventoryLot, error) {
	var lots []*InventoryLot
	cacheKey := utils.AvailableLotsKey(venueId)
	exists, err := config.GetRedisObject(cacheKey, &lots)
	if err == nil && exists {
		return lots, nil
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Preload("Product").
		Preload("Supplier").
		Where("venue_id = ? AND quantity > allocated_quantity", venueId).
		Order("id ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(cacheKey, lots, utils.GetCacheLifespan())
	return lots, nil
}

// GetLots fetches specific lots by id, erroring when any id is missing for
// the venue. Result preserves the requested order, which the planning flow
// relies on for stable supplier slot ordering.
func GetLots(ctx context.Context, venueId string, ids []int) ([]*InventoryLot, error) {
	unqIds := utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[InventoryLot](ctx, venueId, unqIds); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var fetched []*InventoryLot
	err := db.WithContext(ctx).
		Preload("Product").
		Preload("Supplier").
		Where("venue_id = ? AND id IN ?", venueId, unqIds).
		Find(&fetched).Error
	if err != nil {
		return nil, err
	}

	byId := make(map[int]*InventoryLot, len(fetched))
	for _, lot := range fetched {
		byId[lot.ID] = lot
	}
	lots := make([]*InventoryLot, 0, len(unqIds))
	for _, id := range unqIds {
		if lot, ok := byId[id]; ok {
			lots = append(lots, lot)
		}
	}
	return lots, nil
}
