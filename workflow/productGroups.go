package workflow

import (
	"strings"

	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
)

// GroupKey identifies interchangeable lots: same product id and matching
// name/brand (case-insensitive) and volume. Lots that differ in any key
// component stay in separate groups even when their names collide.
type GroupKey struct {
	ProductId int
	Name      string
	Brand     string
	Volume    string
}

// SupplierSlot is one supplier's contribution to a product group. Slot order
// within a group follows first-seen order during aggregation and is never
// reshuffled; the distributor depends on it.
type SupplierSlot struct {
	SupplierName string
	LotId        int
	Available    decimal.Decimal
	UnitCost     decimal.Decimal
	Currency     string
	Config       *ItemConfig
}

// ProductGroup merges the selected lots of one product across suppliers.
// Invariant: TotalAvailable equals the sum of the slots' Available.
type ProductGroup struct {
	Key            GroupKey
	ProductId      int
	ProductName    string
	Brand          string
	Volume         decimal.Decimal
	Suppliers      []*SupplierSlot
	TotalAvailable decimal.Decimal
}

func groupKeyForLot(lot *models.InventoryLot) GroupKey {
	key := GroupKey{ProductId: lot.ProductId}
	if lot.Product != nil {
		key.Name = strings.ToLower(lot.Product.Name)
		key.Brand = strings.ToLower(lot.Product.Brand)
		key.Volume = lot.Product.Volume.String()
	}
	return key
}

// buildProductGroups collapses the lot selection into product groups, keyed
// by product identity (not lot identity). Pure: reruns over the same input
// yield the same groups, and group order follows first appearance in the
// input.
func buildProductGroups(lots []*models.InventoryLot, configs map[int]*ItemConfig) ([]*ProductGroup, map[GroupKey]*ProductGroup, map[string][]*ProductGroup) {
	groups := make([]*ProductGroup, 0)
	byKey := make(map[GroupKey]*ProductGroup)
	nameIndex := make(map[string][]*ProductGroup)

	for _, lot := range lots {
		if lot == nil {
			continue
		}
		key := groupKeyForLot(lot)
		group, ok := byKey[key]
		if !ok {
			group = &ProductGroup{
				Key:            key,
				ProductId:      lot.ProductId,
				TotalAvailable: decimal.Zero,
			}
			if lot.Product != nil {
				group.ProductName = lot.Product.Name
				group.Brand = lot.Product.Brand
				group.Volume = lot.Product.Volume
			}
			byKey[key] = group
			groups = append(groups, group)
			nameIndex[key.Name] = append(nameIndex[key.Name], group)
		}

		slot := &SupplierSlot{
			LotId:     lot.ID,
			Available: lot.AvailableQuantity(),
			UnitCost:  lot.UnitCost,
			Currency:  lot.Currency,
			Config:    configs[lot.ID],
		}
		if lot.Supplier != nil {
			slot.SupplierName = lot.Supplier.Name
		}
		group.Suppliers = append(group.Suppliers, slot)
		group.TotalAvailable = group.TotalAvailable.Add(slot.Available)
	}

	return groups, byKey, nameIndex
}

// DirectSale reports the group's shared classification. Grouped configs
// share SellAsWholeUnit by construction, so the first slot speaks for all.
func (g *ProductGroup) DirectSale() bool {
	if len(g.Suppliers) == 0 || g.Suppliers[0].Config == nil {
		return false
	}
	return g.Suppliers[0].Config.SellAsWholeUnit
}

// SalePrice returns the group's shared price, nil when blank.
func (g *ProductGroup) SalePrice() *decimal.Decimal {
	if len(g.Suppliers) == 0 || g.Suppliers[0].Config == nil {
		return nil
	}
	return g.Suppliers[0].Config.SalePrice
}

// PriceLocked reports whether an externally confirmed price pinned the group.
func (g *ProductGroup) PriceLocked() bool {
	if len(g.Suppliers) == 0 || g.Suppliers[0].Config == nil {
		return false
	}
	return g.Suppliers[0].Config.PriceLocked
}

// PerDestinationQuantity sums the assigned slot quantities. The second
// return is false while every slot is still blank.
func (g *ProductGroup) PerDestinationQuantity() (decimal.Decimal, bool) {
	total := decimal.Zero
	entered := false
	for _, slot := range g.Suppliers {
		if slot.Config == nil || slot.Config.Quantity == nil {
			continue
		}
		entered = true
		total = total.Add(*slot.Config.Quantity)
	}
	return total, entered
}
