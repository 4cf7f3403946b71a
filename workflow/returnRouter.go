package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrorNothingToReturn = errors.New("no returnable stock matches the selected mode")

// ReturnClient executes one batched bulk return against the stock service.
// Unlike per-task assignment, the whole item list travels in a single call.
type ReturnClient interface {
	ExecuteBulkReturn(ctx context.Context, venueId string, mode models.ReturnMode, items []models.ReturnTask) (*models.BulkReturnResult, error)
}

// ReturnRouter routes returnable bar stock to one of two destinations based
// on ownership: purchased stock back to global inventory, consignment stock
// back to its supplier.
type ReturnRouter struct {
	Logger *logrus.Logger
	Client ReturnClient
}

// BuildReturnTasks classifies the bar's stock snapshot into return tasks for
// the given mode. selected holds the operator's selected bar stock ids; in
// auto mode the selection is ignored and every returnable record goes out in
// one pass.
//
// Returns the tasks plus operator-visible notes for selected records the
// mode skipped (e.g. consignment rows under to_global).
func BuildReturnTasks(stocks []*models.BarStock, selected map[int]bool, mode models.ReturnMode) ([]models.ReturnTask, []string) {
	tasks := make([]models.ReturnTask, 0, len(stocks))
	notes := make([]string, 0)
	skippedConsignment := 0
	skippedPurchased := 0

	for _, stock := range stocks {
		if stock == nil || !stock.IsReturnable() {
			// Consumed records are informational only, in every mode.
			continue
		}

		isConsignment := stock.Ownership == models.OwnershipConsignment
		switch mode {
		case models.ReturnModeToGlobal:
			if !selected[stock.ID] {
				continue
			}
			if isConsignment {
				skippedConsignment++
				continue
			}
		case models.ReturnModeToSupplier:
			if !selected[stock.ID] {
				continue
			}
			if !isConsignment {
				skippedPurchased++
				continue
			}
		case models.ReturnModeAuto:
			// all returnable records, selection ignored
		}

		tasks = append(tasks, models.ReturnTask{
			BarId:           stock.BarId,
			BarStockId:      stock.ID,
			ProductId:       stock.ProductId,
			SupplierId:      stock.SupplierId,
			Ownership:       stock.Ownership,
			SellAsWholeUnit: stock.SellAsWholeUnit != nil && *stock.SellAsWholeUnit,
			Quantity:        returnableUnits(stock),
		})
	}

	if skippedConsignment > 0 {
		notes = append(notes, fmt.Sprintf("%d consignment position(s) skipped; use the return-to-supplier mode for those", skippedConsignment))
	}
	if skippedPurchased > 0 {
		notes = append(notes, fmt.Sprintf("%d purchased position(s) skipped; use the return-to-inventory mode for those", skippedPurchased))
	}
	return tasks, notes
}

// returnableUnits converts a bar stock quantity (volume units) into the item
// count the return operation expects. When the per-item volume is unknown
// the raw quantity passes through; a converted value is floored and clamped
// to a minimum of one so a zero-quantity task is never sent.
func returnableUnits(stock *models.BarStock) decimal.Decimal {
	if stock.Product == nil || !stock.Product.Volume.IsPositive() {
		return stock.Quantity
	}
	units := stock.Quantity.Div(stock.Product.Volume).Floor()
	if units.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return units
}

// Execute builds the task list for the mode and runs it as one batched call,
// reporting progress and the server-side breakdown. Zero tasks is a
// validation error caught before anything is sent.
func (r *ReturnRouter) Execute(ctx context.Context, venueId string, mode models.ReturnMode, stocks []*models.BarStock, selected map[int]bool, onProgress func(ExecutionProgress)) (*models.BulkReturnResult, []string, error) {
	if !mode.Valid() {
		return nil, nil, fmt.Errorf("invalid return mode %q", mode)
	}

	tasks, notes := BuildReturnTasks(stocks, selected, mode)
	if len(tasks) == 0 {
		return nil, notes, ErrorNothingToReturn
	}

	aggregator := NewProgressAggregator(len(tasks))
	if onProgress != nil {
		onProgress(aggregator.Snapshot())
	}

	result, err := r.Client.ExecuteBulkReturn(ctx, venueId, mode, tasks)
	if err != nil {
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"module":   "ReturnRouter",
				"venue_id": venueId,
				"mode":     mode,
				"tasks":    len(tasks),
			}).Error(err.Error())
		}
		return nil, notes, err
	}

	failed := len(tasks) - result.Processed
	if failed < 0 {
		failed = 0
	}
	progress := aggregator.Record(result.Processed, failed)
	if onProgress != nil {
		onProgress(progress)
	}

	if len(result.Errors) > maxSampledErrors {
		result.Errors = result.Errors[:maxSampledErrors]
	}
	return result, notes, nil
}
