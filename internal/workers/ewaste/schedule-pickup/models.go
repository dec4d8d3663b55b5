// internal/workers/ewaste/schedule-pickup/models.go
package schedulepickup

import "ecycle-workers/internal/pickup"

type Input = pickup.Request

// Output confirms a scheduled pickup.
type Output struct {
	BookingID string  `json:"bookingId"`
	Status    string  `json:"status"`
	Summary   Summary `json:"summary"`
}

// Summary is the confirmation shown to the person who booked.
type Summary struct {
	RecycleItem string `json:"recycleItem"`
	PickupDate  string `json:"pickupDate"`
	PickupTime  string `json:"pickupTime"`
	Facility    string `json:"facility"`
	Address     string `json:"address"`
	UserEmail   string `json:"userEmail"`
}
