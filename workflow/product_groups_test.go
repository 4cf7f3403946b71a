package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They exercise the planning
// engine against in-memory lot snapshots; DB-backed fetching is covered in
// environments that can run MySQL + Redis.

func makeLot(id int, productId int, name string, brand string, volumeMl int64, supplier string, available int64) *models.InventoryLot {
	return &models.InventoryLot{
		ID:        id,
		ProductId: productId,
		Product: &models.Product{
			ID:     productId,
			Name:   name,
			Brand:  brand,
			Volume: decimal.NewFromInt(volumeMl),
		},
		SupplierId: id * 100,
		Supplier:   &models.Supplier{ID: id * 100, Name: supplier},
		Quantity:   decimal.NewFromInt(available),
		Currency:   "EUR",
	}
}

func makeBars(n int) []*models.Bar {
	bars := make([]*models.Bar, 0, n)
	for i := 1; i <= n; i++ {
		bars = append(bars, &models.Bar{ID: i, Name: "Bar " + string(rune('A'+i-1))})
	}
	return bars
}

func TestGrouping_MergesSameProductAcrossSuppliers(t *testing.T) {
	lots := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 7, "Vodka", "Stoli", 750, "Supplier B", 6),
	}
	s := NewPlanningSession("venue-1", lots, makeBars(2))

	if len(s.Groups()) != 1 {
		t.Fatalf("expected 1 group, got %d", len(s.Groups()))
	}
	group := s.Groups()[0]
	if len(group.Suppliers) != 2 {
		t.Fatalf("expected 2 supplier slots, got %d", len(group.Suppliers))
	}
	if !group.TotalAvailable.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected total available 16, got %s", group.TotalAvailable)
	}
}

func TestGrouping_DifferentBrandOrVolumeStaysSeparate(t *testing.T) {
	lots := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 8, "Vodka", "Absolut", 750, "Supplier A", 10),
		makeLot(3, 9, "Vodka", "Stoli", 1000, "Supplier A", 10),
	}
	s := NewPlanningSession("venue-1", lots, makeBars(1))

	if len(s.Groups()) != 3 {
		t.Fatalf("names collide but identities differ; expected 3 groups, got %d", len(s.Groups()))
	}
}

func TestGrouping_CaseInsensitiveKey(t *testing.T) {
	lots := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 7, "VODKA", "stoli", 750, "Supplier B", 6),
	}
	s := NewPlanningSession("venue-1", lots, makeBars(1))

	if len(s.Groups()) != 1 {
		t.Fatalf("expected case-insensitive merge into 1 group, got %d", len(s.Groups()))
	}
}

func TestGrouping_TotalEqualsSlotSumInvariant(t *testing.T) {
	lots := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 7, "Vodka", "Stoli", 750, "Supplier B", 6),
		makeLot(3, 8, "Gin", "Hendricks", 700, "Supplier A", 4),
	}
	s := NewPlanningSession("venue-1", lots, makeBars(1))

	for _, group := range s.Groups() {
		sum := decimal.Zero
		for _, slot := range group.Suppliers {
			sum = sum.Add(slot.Available)
		}
		if !group.TotalAvailable.Equal(sum) {
			t.Fatalf("group %s: total %s != slot sum %s", group.ProductName, group.TotalAvailable, sum)
		}
	}
}

func TestGrouping_DeterministicAcrossRuns(t *testing.T) {
	lots := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 8, "Gin", "Hendricks", 700, "Supplier A", 4),
		makeLot(3, 7, "Vodka", "Stoli", 750, "Supplier B", 6),
	}

	first := NewPlanningSession("venue-1", lots, makeBars(1))
	for run := 0; run < 50; run++ {
		next := NewPlanningSession("venue-1", lots, makeBars(1))
		if len(next.Groups()) != len(first.Groups()) {
			t.Fatalf("run=%d group count changed", run)
		}
		for i, group := range next.Groups() {
			if group.Key != first.Groups()[i].Key {
				t.Fatalf("run=%d group order changed at %d", run, i)
			}
			for j, slot := range group.Suppliers {
				if slot.LotId != first.Groups()[i].Suppliers[j].LotId {
					t.Fatalf("run=%d slot order changed in group %d", run, i)
				}
			}
		}
	}
}

func TestGrouping_GroupMembershipIsOrderIndependent(t *testing.T) {
	forward := []*models.InventoryLot{
		makeLot(1, 7, "Vodka", "Stoli", 750, "Supplier A", 10),
		makeLot(2, 8, "Gin", "Hendricks", 700, "Supplier A", 4),
		makeLot(3, 7, "Vodka", "Stoli", 750, "Supplier B", 6),
	}
	reversed := []*models.InventoryLot{forward[2], forward[1], forward[0]}

	a := NewPlanningSession("venue-1", forward, makeBars(1))
	b := NewPlanningSession("venue-1", reversed, makeBars(1))

	if len(a.Groups()) != len(b.Groups()) {
		t.Fatalf("group count differs: %d vs %d", len(a.Groups()), len(b.Groups()))
	}
	for _, group := range a.Groups() {
		other := b.Group(group.Key)
		if other == nil {
			t.Fatalf("group %v missing after reorder", group.Key)
		}
		if !group.TotalAvailable.Equal(other.TotalAvailable) {
			t.Fatalf("group %v total differs after reorder", group.Key)
		}
		if len(group.Suppliers) != len(other.Suppliers) {
			t.Fatalf("group %v slot count differs after reorder", group.Key)
		}
	}
}
