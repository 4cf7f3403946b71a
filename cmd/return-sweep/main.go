package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/models"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"bitbucket.org/mmdatafocus/venue_backend/workflow"
	"github.com/sirupsen/logrus"
)

type dbReturnClient struct{}

func (dbReturnClient) ExecuteBulkReturn(ctx context.Context, venueId string, mode models.ReturnMode, items []models.ReturnTask) (*models.BulkReturnResult, error) {
	return models.ExecuteBulkReturn(ctx, venueId, mode, items)
}

// Sweeps a bar's remaining stock back after an event: purchased positions to
// global inventory, consignment positions to their suppliers (auto mode).
func main() {
	venueID := flag.String("venue-id", "", "Required: venue id (uuid)")
	barID := flag.Int("bar-id", 0, "Required: bar id to sweep")
	execute := flag.Bool("execute", false, "Apply the sweep (default: dry run)")
	flag.Parse()

	if strings.TrimSpace(*venueID) == "" || *barID <= 0 {
		fmt.Fprintln(os.Stderr, "--venue-id and --bar-id are required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	ctx := utils.SetVenueIdInContext(context.Background(), *venueID)
	bar, err := models.GetBar(ctx, *venueID, *barID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bar %d not found for this venue\n", *barID)
		os.Exit(1)
	}
	stocks, err := models.GetBarStocks(ctx, *venueID, *barID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load bar stocks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sweeping %q (bar %d)\n", bar.Name, bar.ID)

	tasks, _ := workflow.BuildReturnTasks(stocks, nil, models.ReturnModeAuto)
	if len(tasks) == 0 {
		fmt.Println("nothing returnable at this bar")
		return
	}

	toGlobal, toSupplier := 0, 0
	for _, task := range tasks {
		if task.Ownership == models.OwnershipConsignment {
			toSupplier++
		} else {
			toGlobal++
		}
	}
	fmt.Printf("returnable: %d positions (%d to inventory, %d to suppliers)\n", len(tasks), toGlobal, toSupplier)

	if !*execute {
		fmt.Println("dry run; pass --execute to apply")
		return
	}

	router := &workflow.ReturnRouter{Logger: logger, Client: dbReturnClient{}}
	result, notes, err := router.Execute(ctx, *venueID, models.ReturnModeAuto, stocks, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep failed: %v\n", err)
		os.Exit(1)
	}
	for _, note := range notes {
		fmt.Println("note:", note)
	}
	fmt.Printf("processed=%d toGlobal=%d toSupplier=%d errors=%d\n",
		result.Processed, result.ToGlobal, result.ToSupplier, len(result.Errors))
	for _, e := range result.Errors {
		fmt.Println("error:", e)
	}

	if result.Processed > 0 {
		if err := utils.ClearStockCaches(*venueID, []int{*barID}); err != nil {
			fmt.Fprintf(os.Stderr, "cache invalidation failed: %v\n", err)
		}
	}
}
