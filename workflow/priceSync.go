package workflow

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// ConfirmedPriceLookup resolves a product's externally confirmed direct-sale
// price. Implemented by the models layer against the product table; tests
// plug in fakes.
type ConfirmedPriceLookup interface {
	GetConfirmedSalePrice(ctx context.Context, productId int) (*decimal.Decimal, error)
}

// SetGroupDirectSale toggles one group between direct sale and
// ingredient-for-composition. Switching to direct sale auto-fills the price:
//  1. an externally confirmed price for the product wins and locks the field
//  2. otherwise the price of another direct-sale group in the plan with a
//     case-insensitively matching name and a positive price is copied
//  3. otherwise the price starts blank
//
// lookup may be nil (dry-run tooling), in which case step 1 is skipped.
func (s *PlanningSession) SetGroupDirectSale(ctx context.Context, key GroupKey, directSale bool, lookup ConfirmedPriceLookup) error {
	group := s.groupsByKey[key]
	if group == nil {
		return nil
	}

	for _, slot := range group.Suppliers {
		if slot.Config != nil {
			slot.Config.SellAsWholeUnit = directSale
		}
	}
	if !directSale {
		return nil
	}

	if lookup != nil {
		confirmed, err := lookup.GetConfirmedSalePrice(ctx, group.ProductId)
		if err != nil {
			return err
		}
		if confirmed != nil && confirmed.IsPositive() {
			writeGroupPrice(group, confirmed, true)
			return nil
		}
	}

	for _, other := range s.groupsByName(group.ProductName) {
		if other == group || !other.DirectSale() {
			continue
		}
		if price := other.SalePrice(); price != nil && price.IsPositive() {
			writeGroupPrice(group, price, false)
			return nil
		}
	}
	// No price anywhere: starts blank, editable.
	return nil
}

// SetGroupPrice writes an operator-entered price to every config in the
// group AND to every other direct-sale group whose product name matches
// case-insensitively. Edits against a locked group are ignored.
//
// Blank input clears the price (nil, distinct from zero).
func (s *PlanningSession) SetGroupPrice(key GroupKey, raw string) {
	group := s.groupsByKey[key]
	if group == nil || group.PriceLocked() {
		return
	}

	var price *decimal.Decimal
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			parsed = decimal.Zero
		}
		price = &parsed
	}

	writeGroupPrice(group, price, false)

	lowerName := strings.ToLower(group.ProductName)
	for _, other := range s.groupsByName(group.ProductName) {
		if other == group || other.PriceLocked() {
			continue
		}
		if strings.ToLower(other.ProductName) != lowerName || !other.DirectSale() {
			continue
		}
		writeGroupPrice(other, price, false)
	}
}

func writeGroupPrice(group *ProductGroup, price *decimal.Decimal, locked bool) {
	for _, slot := range group.Suppliers {
		if slot.Config == nil {
			continue
		}
		if price == nil {
			slot.Config.SalePrice = nil
		} else {
			p := *price
			slot.Config.SalePrice = &p
		}
		if locked {
			slot.Config.PriceLocked = true
		}
	}
}
