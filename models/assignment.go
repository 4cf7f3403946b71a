package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentTask is the atomic unit of bulk distribution: move a quantity of
// one lot to one bar. SalePriceMinor is set only for direct-sale stock.
type AssignmentTask struct {
	BarId           int             `json:"bar_id"`
	BarName         string          `json:"bar_name"`
	LotId           int             `json:"lot_id"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	SellAsWholeUnit bool            `json:"sell_as_whole_unit"`
	SalePriceMinor  *int64          `json:"sale_price_minor,omitempty"`
}

// ReturnTask is the atomic unit of bulk return: route one bar stock position
// back to global inventory or to its supplier.
type ReturnTask struct {
	BarId           int             `json:"bar_id"`
	BarStockId      int             `json:"bar_stock_id"`
	ProductId       int             `json:"product_id"`
	SupplierId      int             `json:"supplier_id"`
	Ownership       Ownership       `json:"ownership"`
	SellAsWholeUnit bool            `json:"sell_as_whole_unit"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// BulkReturnResult is the server-side aggregate of one bulk return call.
type BulkReturnResult struct {
	Processed  int      `json:"processed"`
	ToGlobal   int      `json:"to_global"`
	ToSupplier int      `json:"to_supplier"`
	Errors     []string `json:"errors"`
}

var ErrorInsufficientLotQuantity = errors.New("lot has insufficient available quantity")

// ApplyAssignment applies one assignment task in its own transaction:
// bump the lot's allocation under a row lock, create the bar stock position,
// and confirm the product's direct-sale price on first use.
//
// Poured products are held at the bar in volume units, so the assigned unit
// count is multiplied by the product volume on the way in.
func ApplyAssignment(ctx context.Context, venueId string, task AssignmentTask) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lot InventoryLot
		err := tx.
			Preload("Product").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("venue_id = ? AND id = ?", venueId, task.LotId).
			First(&lot).Error
		if err != nil {
			return fmt.Errorf("lot %d: %w", task.LotId, err)
		}
		if lot.AvailableQuantity().LessThan(task.Quantity) {
			return ErrorInsufficientLotQuantity
		}

		err = tx.Model(&InventoryLot{}).
			Where("id = ?", lot.ID).
			Update("allocated_quantity", gorm.Expr("allocated_quantity + ?", task.Quantity)).Error
		if err != nil {
			return err
		}

		held := task.Quantity
		if lot.Product != nil && lot.Product.Volume.IsPositive() {
			held = task.Quantity.Mul(lot.Product.Volume)
		}
		sellAsWholeUnit := task.SellAsWholeUnit
		barStock := BarStock{
			VenueId:         venueId,
			BarId:           task.BarId,
			ProductId:       lot.ProductId,
			SupplierId:      lot.SupplierId,
			Ownership:       OwnershipPurchased,
			Quantity:        held,
			SellAsWholeUnit: &sellAsWholeUnit,
			Currency:        lot.Currency,
			SourceLotId:     lot.ID,
		}
		if task.SalePriceMinor != nil {
			barStock.SalePriceMinor = *task.SalePriceMinor
		}
		if err := tx.Create(&barStock).Error; err != nil {
			return err
		}

		if task.SellAsWholeUnit && task.SalePriceMinor != nil && *task.SalePriceMinor > 0 {
			price := decimal.NewFromInt(*task.SalePriceMinor).Div(decimal.NewFromInt(100))
			if err := ConfirmSalePrice(tx, venueId, lot.ProductId, price); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExecuteBulkReturn processes a bulk return in a single call. Item failures
// are collected, not fatal: every item is attempted and the aggregate
// breakdown is reported back.
func ExecuteBulkReturn(ctx context.Context, venueId string, mode ReturnMode, items []ReturnTask) (*BulkReturnResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid return mode %q", mode)
	}
	db := config.GetDB()
	result := &BulkReturnResult{Errors: make([]string, 0)}

	for _, item := range items {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return returnOneBarStock(tx, venueId, item)
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("bar stock %d: %v", item.BarStockId, err))
			continue
		}
		result.Processed++
		if item.Ownership == OwnershipConsignment {
			result.ToSupplier++
		} else {
			result.ToGlobal++
		}
	}
	return result, nil
}

func returnOneBarStock(tx *gorm.DB, venueId string, item ReturnTask) error {
	var barStock BarStock
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("venue_id = ? AND id = ? AND returned_at IS NULL", venueId, item.BarStockId).
		First(&barStock).Error
	if err != nil {
		return err
	}
	if !barStock.Quantity.IsPositive() {
		return errors.New("position already consumed")
	}

	toGlobal := item.Ownership != OwnershipConsignment
	err = tx.Model(&BarStock{}).
		Where("id = ?", barStock.ID).
		Updates(map[string]interface{}{
			"quantity":           decimal.Zero,
			"returned_at":        gorm.Expr("NOW()"),
			"returned_to_global": toGlobal,
		}).Error
	if err != nil {
		return err
	}

	if toGlobal && barStock.SourceLotId > 0 {
		// Release the allocation so the quantity shows up as available again.
		// Clamped at the allocated amount; a lot never goes negative.
		err = tx.Model(&InventoryLot{}).
			Where("venue_id = ? AND id = ?", venueId, barStock.SourceLotId).
			Update("allocated_quantity", gorm.Expr("GREATEST(allocated_quantity - ?, 0)", item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
