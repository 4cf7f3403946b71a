package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"bitbucket.org/mmdatafocus/venue_backend/models"
	"bitbucket.org/mmdatafocus/venue_backend/utils"
	"bitbucket.org/mmdatafocus/venue_backend/workflow"
)

// Prints the distribution a plan would produce without dispatching anything.
func main() {
	venueID := flag.String("venue-id", "", "Required: venue id (uuid)")
	lotIDsCSV := flag.String("lot-ids", "", "Optional: comma-separated lot ids (default: all available lots)")
	barIDsCSV := flag.String("bar-ids", "", "Optional: comma-separated destination bar ids (default: all active bars)")
	quantity := flag.String("quantity", "", "Optional: per-destination quantity applied to every group")
	flag.Parse()

	if strings.TrimSpace(*venueID) == "" {
		fmt.Fprintln(os.Stderr, "--venue-id is required")
		os.Exit(1)
	}
	barIDs, err := parseIDs(*barIDsCSV)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid --bar-ids (comma-separated ints)")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetVenueIdInContext(context.Background(), *venueID)

	var lots []*models.InventoryLot
	if strings.TrimSpace(*lotIDsCSV) != "" {
		lotIDs, perr := parseIDs(*lotIDsCSV)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "invalid --lot-ids: %v\n", perr)
			os.Exit(1)
		}
		lots, err = models.GetLots(ctx, *venueID, lotIDs)
	} else {
		lots, err = models.GetAvailableLots(ctx, *venueID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load lots: %v\n", err)
		os.Exit(1)
	}
	var bars []*models.Bar
	if len(barIDs) > 0 {
		bars, err = models.GetBars(ctx, *venueID, barIDs)
	} else {
		bars, err = models.GetActiveBars(ctx, *venueID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load bars: %v\n", err)
		os.Exit(1)
	}
	if len(bars) == 0 {
		fmt.Fprintln(os.Stderr, "no destination bars for this venue")
		os.Exit(1)
	}

	session := workflow.NewPlanningSession(*venueID, lots, bars)
	fmt.Printf("plan: %d lots, %d groups, %d destinations\n\n", len(lots), len(session.Groups()), session.DestinationCount())

	for _, group := range session.Groups() {
		if strings.TrimSpace(*quantity) != "" {
			session.SetGroupQuantity(group.Key, *quantity)
		}
		fmt.Printf("%s (%s %s)\n", group.ProductName, group.Brand, group.Volume.String())
		fmt.Printf("  total available: %s, ceiling per destination: %s\n",
			group.TotalAvailable.String(), group.MaxPerDestination(session.DestinationCount()).String())
		for _, slot := range group.Suppliers {
			assigned := "-"
			if slot.Config != nil && slot.Config.Quantity != nil {
				assigned = slot.Config.Quantity.String()
			}
			fmt.Printf("  %-20s lot=%-5d available=%-8s assigned/destination=%s\n",
				slot.SupplierName, slot.LotId, slot.Available.String(), assigned)
		}
	}

	if strings.TrimSpace(*quantity) != "" {
		tasks, err := session.ExpandTasks()
		if err != nil {
			fmt.Printf("\nno tasks: %v\n", err)
			return
		}
		fmt.Printf("\nwould dispatch %d tasks\n", len(tasks))
	}
}

func parseIDs(csv string) ([]int, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, n)
	}
	return ids, nil
}
