package models

// Ownership determines where stock goes when it is returned from a bar:
// purchased stock goes back to the venue's global inventory, consignment
// stock goes back to the supplier that owns it.
type Ownership string

const (
	OwnershipPurchased   Ownership = "purchased"
	OwnershipConsignment Ownership = "consignment"
)

// ReturnMode selects which side of the ownership split a bulk return processes.
type ReturnMode string

const (
	ReturnModeToGlobal   ReturnMode = "to_global"
	ReturnModeToSupplier ReturnMode = "to_supplier"
	ReturnModeAuto       ReturnMode = "auto"
)

func (m ReturnMode) Valid() bool {
	switch m {
	case ReturnModeToGlobal, ReturnModeToSupplier, ReturnModeAuto:
		return true
	}
	return false
}
