package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrorNothingToProcess = errors.New("nothing to process")

// ValidationFailure names one group's problem in operator terms.
type ValidationFailure struct {
	GroupName string `json:"group_name"`
	Reason    string `json:"reason"`
}

func (f ValidationFailure) String() string {
	return f.GroupName + ": " + f.Reason
}

// ValidatePlan checks the completed plan against availability and business
// rules. It never mutates session state; dispatch is gated on an empty
// result.
func (s *PlanningSession) ValidatePlan() []ValidationFailure {
	failures := make([]ValidationFailure, 0)

	if len(s.Bars) == 0 {
		failures = append(failures, ValidationFailure{
			GroupName: "plan",
			Reason:    "no destination bar selected",
		})
	}

	destinations := decimal.NewFromInt(int64(s.DestinationCount()))
	for _, group := range s.groups {
		quantity, entered := group.PerDestinationQuantity()
		if !entered || !quantity.IsPositive() {
			failures = append(failures, ValidationFailure{
				GroupName: group.ProductName,
				Reason:    "per-destination quantity is required",
			})
			continue
		}

		needed := quantity.Mul(destinations)
		if needed.GreaterThan(group.TotalAvailable) {
			shortfall := needed.Sub(group.TotalAvailable)
			failures = append(failures, ValidationFailure{
				GroupName: group.ProductName,
				Reason: fmt.Sprintf("requires %s across %d destinations but only %s available (short by %s)",
					needed.String(), s.DestinationCount(), group.TotalAvailable.String(), shortfall.String()),
			})
		}

		if group.DirectSale() {
			price := group.SalePrice()
			if price == nil || !price.IsPositive() {
				failures = append(failures, ValidationFailure{
					GroupName: group.ProductName,
					Reason:    "sale price is required for direct sale",
				})
			}
		}
	}

	return failures
}

// ValidationError folds failures into one error for transport to the caller.
func ValidationError(failures []ValidationFailure) error {
	if len(failures) == 0 {
		return nil
	}
	reasons := make([]string, 0, len(failures))
	for _, f := range failures {
		reasons = append(reasons, f.String())
	}
	return errors.New(strings.Join(reasons, "; "))
}
