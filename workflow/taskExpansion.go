package workflow

import (
	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ExpandTasks cartesian-expands destinations x lot configs into atomic
// assignment tasks, skipping pairs whose resolved quantity is not positive.
// The sale price is carried in integer minor units and only for direct-sale
// groups. Expanding to zero tasks is a terminal validation error, not a
// silent no-op.
func (s *PlanningSession) ExpandTasks() ([]models.AssignmentTask, error) {
	tasks := make([]models.AssignmentTask, 0, len(s.Bars)*len(s.Lots))

	for _, bar := range s.Bars {
		for _, group := range s.groups {
			for _, slot := range group.Suppliers {
				config := slot.Config
				if config == nil || config.Quantity == nil || !config.Quantity.IsPositive() {
					continue
				}

				task := models.AssignmentTask{
					BarId:           bar.ID,
					BarName:         bar.Name,
					LotId:           slot.LotId,
					ProductName:     group.ProductName,
					Quantity:        *config.Quantity,
					SellAsWholeUnit: config.SellAsWholeUnit,
				}
				if config.SellAsWholeUnit && config.SalePrice != nil {
					minor := config.SalePrice.Mul(minorUnitsPerMajor).IntPart()
					task.SalePriceMinor = &minor
				}
				tasks = append(tasks, task)
			}
		}
	}

	if len(tasks) == 0 {
		return nil, ErrorNothingToProcess
	}
	return tasks, nil
}
