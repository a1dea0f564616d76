package entity

import "time"

// TierKind is the admission category of an inventory item.
type TierKind string

const (
	TierGeneralAdmission TierKind = "GENERAL_ADMISSION"
	TierVIP              TierKind = "VIP"
	TierPremium          TierKind = "PREMIUM"
	TierSuperDeluxe      TierKind = "SUPER_DELUX"
	TierRoyal            TierKind = "ROYAL"
)

func (k TierKind) Valid() bool {
	switch k {
	case TierGeneralAdmission, TierVIP, TierPremium, TierSuperDeluxe, TierRoyal:
		return true
	}
	return false
}

// InventoryItem is a ticket tier of an event with a finite availability.
// 0 <= Availability <= TotalAllotment holds at every commit.
type InventoryItem struct {
	ID             int64     `json:"id" db:"id"`
	EventID        int64     `json:"event" db:"event_id"`
	Kind           TierKind  `json:"ticket_type" db:"ticket_type"`
	TotalAllotment int       `json:"total_allotment" db:"total_allotment"`
	Availability   int       `json:"availability" db:"availability"`
	UnitPrice      int64     `json:"price" db:"price"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CheckReserve reports whether quantity can be taken from the item.
func (i *InventoryItem) CheckReserve(quantity int) error {
	if i.Availability <= 0 {
		return ErrItemNotAvailable
	}
	if quantity > i.Availability {
		return ErrInsufficientAvailability
	}
	return nil
}

// CheckRelease reports whether quantity can be given back to the item.
func (i *InventoryItem) CheckRelease(quantity int) error {
	if i.Availability+quantity > i.TotalAllotment {
		return ErrAvailabilityOverflow
	}
	return nil
}
