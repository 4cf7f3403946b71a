package workflow

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPerDestination is the group's quantity ceiling for one destination:
// floor(totalAvailable / destinationCount).
func (g *ProductGroup) MaxPerDestination(destinationCount int) decimal.Decimal {
	if destinationCount < 1 {
		destinationCount = 1
	}
	return g.TotalAvailable.Div(decimal.NewFromInt(int64(destinationCount))).Floor()
}

// SetGroupQuantity converts an operator-entered per-destination quantity into
// individual supplier slot quantities.
//
// Input handling:
//   - blank resets every slot in the group to blank (distinct from zero)
//   - non-numeric or negative input counts as zero
//   - fractional input is floored to whole units, matching the integer
//     ceilings
//   - anything above the group ceiling is clamped to it
//
// Distribution is greedy in slot order: each slot takes at most
// floor(slot.available / destinationCount), and the remainder moves to the
// next slot. When per-slot floors sum to less than the group ceiling the
// request can end up under-allocated; the remainder is NOT redistributed to
// earlier or later slots out of order. That mirrors the established operator
// expectation, see the remainder note in DESIGN.md before changing it.
//
// Returns the clamped per-destination quantity (zero after a blank reset).
func (s *PlanningSession) SetGroupQuantity(key GroupKey, raw string) decimal.Decimal {
	group := s.groupsByKey[key]
	if group == nil {
		return decimal.Zero
	}
	destinations := decimal.NewFromInt(int64(s.DestinationCount()))

	raw = strings.TrimSpace(raw)
	if raw == "" {
		for _, slot := range group.Suppliers {
			if slot.Config != nil {
				slot.Config.Quantity = nil
			}
		}
		return decimal.Zero
	}

	requested, err := decimal.NewFromString(raw)
	if err != nil || requested.IsNegative() {
		requested = decimal.Zero
	}
	requested = requested.Floor()
	maxPerDestination := group.MaxPerDestination(s.DestinationCount())
	if requested.GreaterThan(maxPerDestination) {
		requested = maxPerDestination
	}

	remaining := requested
	for _, slot := range group.Suppliers {
		slotMax := slot.Available.Div(destinations).Floor()
		take := remaining
		if slotMax.LessThan(take) {
			take = slotMax
		}
		if slot.Config != nil {
			assigned := take
			slot.Config.Quantity = &assigned
		}
		remaining = remaining.Sub(take)
	}

	return requested
}
