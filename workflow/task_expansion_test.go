package workflow

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
)

func TestExpansion_DestinationsTimesContributingSlots(t *testing.T) {
	s, group := vodkaSession(t, 3)
	s.SetGroupQuantity(group.Key, "4")

	tasks, err := s.ExpandTasks()
	if err != nil {
		t.Fatal(err)
	}

	// Ceiling is floor(16/3)=5, request 4: slot A floor(10/3)=3 then slot B
	// covers 1. Two contributing slots times three bars.
	if len(tasks) != 6 {
		t.Fatalf("expected 6 tasks, got %d", len(tasks))
	}
	perBar := make(map[int]decimal.Decimal)
	for _, task := range tasks {
		perBar[task.BarId] = perBar[task.BarId].Add(task.Quantity)
		if task.ProductName != "Vodka" {
			t.Fatalf("task carries product %q", task.ProductName)
		}
		if task.SalePriceMinor != nil {
			t.Fatal("ingredient task must not carry a price")
		}
	}
	for barId, total := range perBar {
		if !total.Equal(decimal.NewFromInt(4)) {
			t.Fatalf("bar %d receives %s, want 4", barId, total)
		}
	}
}

func TestExpansion_SkipsZeroQuantitySlots(t *testing.T) {
	s, group := vodkaSession(t, 2)
	// Request 5: slot A takes its full floor(10/2)=5, slot B ends at zero and
	// must produce no task.
	s.SetGroupQuantity(group.Key, "5")

	tasks, err := s.ExpandTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected one task per bar, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.LotId != 1 {
			t.Fatalf("unexpected task for lot %d", task.LotId)
		}
	}
}

func TestExpansion_DirectSalePriceInMinorUnits(t *testing.T) {
	s, group := vodkaSession(t, 2)
	s.SetGroupQuantity(group.Key, "3")
	if err := s.SetGroupDirectSale(context.Background(), group.Key, true, &fakePriceLookup{}); err != nil {
		t.Fatal(err)
	}
	s.SetGroupPrice(group.Key, "12.50")

	tasks, err := s.ExpandTasks()
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range tasks {
		if !task.SellAsWholeUnit {
			t.Fatal("expected direct-sale task")
		}
		if task.SalePriceMinor == nil || *task.SalePriceMinor != 1250 {
			t.Fatalf("expected 1250 minor units, got %v", task.SalePriceMinor)
		}
	}
}

func TestExpansion_NothingToProcess(t *testing.T) {
	s, group := vodkaSession(t, 2)

	if _, err := s.ExpandTasks(); err != ErrorNothingToProcess {
		t.Fatalf("blank plan: expected ErrorNothingToProcess, got %v", err)
	}

	s.SetGroupQuantity(group.Key, "0")
	if _, err := s.ExpandTasks(); err != ErrorNothingToProcess {
		t.Fatalf("all-zero plan: expected ErrorNothingToProcess, got %v", err)
	}
}

func TestExpansion_TaskNamesDestination(t *testing.T) {
	lots := []*models.InventoryLot{makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10)}
	bars := []*models.Bar{{ID: 4, Name: "Rooftop"}, {ID: 9, Name: "Lobby"}}
	s := NewPlanningSession("venue-1", lots, bars)
	s.SetGroupQuantity(s.Groups()[0].Key, "2")

	tasks, err := s.ExpandTasks()
	if err != nil {
		t.Fatal(err)
	}
	names := map[int]string{4: "Rooftop", 9: "Lobby"}
	for _, task := range tasks {
		if names[task.BarId] != task.BarName {
			t.Fatalf("bar %d carries name %q", task.BarId, task.BarName)
		}
	}
}
