package workflow

import (
	"strings"

	"bitbucket.org/mmdatafocus/venue_backend/models"
	"github.com/shopspring/decimal"
)

// ItemConfig is the mutable planning state of one selected lot. Quantity is
// the per-destination amount allocated to this lot's supplier slot; nil means
// the operator has not entered anything yet (distinct from an explicit zero).
type ItemConfig struct {
	LotId           int
	Quantity        *decimal.Decimal
	SellAsWholeUnit bool
	SalePrice       *decimal.Decimal
	// PriceLocked is set when the product already has a confirmed sale price.
	// Edits against a locked price are ignored, not errors.
	PriceLocked bool
}

// PlanningSession owns all mutable state of one bulk assignment plan: the lot
// snapshot, the destination set and the per-lot configs. It is created when
// the operator enters the flow and discarded on close; a cancelled plan
// leaves no trace. Not safe for concurrent use; the planning phase is
// single-operator by design.
type PlanningSession struct {
	VenueId string
	Lots    []*models.InventoryLot
	Bars    []*models.Bar

	configs     map[int]*ItemConfig
	groups      []*ProductGroup
	groupsByKey map[GroupKey]*ProductGroup
	// nameIndex maps lowercased product name to the groups carrying it,
	// so cross-group price sync never scans the whole plan.
	nameIndex map[string][]*ProductGroup
}

func NewPlanningSession(venueId string, lots []*models.InventoryLot, bars []*models.Bar) *PlanningSession {
	s := &PlanningSession{
		VenueId: venueId,
		Lots:    lots,
		Bars:    bars,
		configs: make(map[int]*ItemConfig, len(lots)),
	}
	for _, lot := range lots {
		s.configs[lot.ID] = &ItemConfig{LotId: lot.ID}
	}
	s.groups, s.groupsByKey, s.nameIndex = buildProductGroups(lots, s.configs)
	return s
}

// DestinationCount never reports zero: a plan with no destination selected
// still divides by one so per-group ceilings stay meaningful while the
// validator rejects the plan.
func (s *PlanningSession) DestinationCount() int {
	if len(s.Bars) < 1 {
		return 1
	}
	return len(s.Bars)
}

func (s *PlanningSession) Groups() []*ProductGroup {
	return s.groups
}

func (s *PlanningSession) Group(key GroupKey) *ProductGroup {
	return s.groupsByKey[key]
}

func (s *PlanningSession) Config(lotId int) *ItemConfig {
	return s.configs[lotId]
}

// groupsByName returns the groups whose product name matches, case-insensitively.
func (s *PlanningSession) groupsByName(name string) []*ProductGroup {
	return s.nameIndex[strings.ToLower(name)]
}
