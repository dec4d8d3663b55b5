// internal/pickup/booking.go
package pickup

import (
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	StatusScheduled = "scheduled"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// optional country code of 1-3 digits, then exactly ten digits
	phoneRegex = regexp.MustCompile(`^(\+?\d{1,3}[- ]?)?\d{10}$`)
)

// Request is a pickup booking as submitted from the recycle forms.
type Request struct {
	UserID           string   `json:"userId,omitempty"`
	UserEmail        string   `json:"userEmail"`
	RecycleItem      string   `json:"recycleItem"`
	RecycleItemPrice *float64 `json:"recycleItemPrice"`
	PickupDate       string   `json:"pickupDate"`
	PickupTime       string   `json:"pickupTime"`
	Facility         string   `json:"facility"`
	FullName         string   `json:"fullName"`
	Address          string   `json:"address"`
	Phone            string   `json:"phone"`
}

// Booking is a stored pickup.
type Booking struct {
	ID               string    `json:"bookingId"`
	UserID           string    `json:"userId,omitempty"`
	UserEmail        string    `json:"userEmail"`
	RecycleItem      string    `json:"recycleItem"`
	RecycleItemPrice float64   `json:"recycleItemPrice"`
	PickupDate       string    `json:"pickupDate"`
	PickupTime       string    `json:"pickupTime"`
	Facility         string    `json:"facility"`
	FullName         string    `json:"fullName"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Normalize trims every text field.
func (r Request) Normalize() Request {
	out := r
	for _, f := range []*string{
		&out.UserID, &out.UserEmail, &out.RecycleItem, &out.PickupDate, &out.PickupTime,
		&out.Facility, &out.FullName, &out.Address, &out.Phone,
	} {
		*f = strings.TrimSpace(*f)
	}
	return out
}

// Validate returns the rejected fields with a reason each, or nil. The pickup
// date may not lie before today's date in UTC.
func Validate(r Request, today time.Time) map[string]string {
	problems := make(map[string]string)

	required := map[string]string{
		"userEmail":   r.UserEmail,
		"recycleItem": r.RecycleItem,
		"pickupDate":  r.PickupDate,
		"pickupTime":  r.PickupTime,
		"facility":    r.Facility,
		"fullName":    r.FullName,
		"address":     r.Address,
		"phone":       r.Phone,
	}
	for field, value := range required {
		if value == "" {
			problems[field] = "is required"
		}
	}

	switch {
	case r.RecycleItemPrice == nil:
		problems["recycleItemPrice"] = "is required"
	case *r.RecycleItemPrice < 0:
		problems["recycleItemPrice"] = "must not be negative"
	}

	if _, missing := problems["userEmail"]; !missing && !emailRegex.MatchString(strings.ToLower(r.UserEmail)) {
		problems["userEmail"] = "is not a valid email address"
	}
	if _, missing := problems["phone"]; !missing && !phoneRegex.MatchString(r.Phone) {
		problems["phone"] = "must be a 10 digit number with an optional country code"
	}

	if _, missing := problems["pickupDate"]; !missing {
		date, err := time.Parse(DateLayout, r.PickupDate)
		switch {
		case err != nil:
			problems["pickupDate"] = "must be a date in YYYY-MM-DD form"
		case date.Before(truncateDay(today)):
			problems["pickupDate"] = "must not be in the past"
		}
	}
	if _, missing := problems["pickupTime"]; !missing {
		if _, err := time.Parse(TimeLayout, r.PickupTime); err != nil {
			problems["pickupTime"] = "must be a time in HH:MM form"
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewBooking turns a validated request into a scheduled booking.
func NewBooking(id string, r Request, now time.Time) *Booking {
	return &Booking{
		ID:               id,
		UserID:           r.UserID,
		UserEmail:        r.UserEmail,
		RecycleItem:      r.RecycleItem,
		RecycleItemPrice: *r.RecycleItemPrice,
		PickupDate:       r.PickupDate,
		PickupTime:       r.PickupTime,
		Facility:         r.Facility,
		FullName:         r.FullName,
		Address:          r.Address,
		Phone:            r.Phone,
		Status:           StatusScheduled,
		CreatedAt:        now.UTC(),
	}
}
