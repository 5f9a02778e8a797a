// Package feast holds the community feast domain: event records owned by
// the backend, of which the client only ever sees transient read-only
// copies, plus the foreground operations on them.
package feast

import "errors"

// Sentinel errors for feast operations.
var (
	// ErrInactive indicates the feast has been deactivated server-side;
	// no further reports are accepted for it.
	ErrInactive = errors.New("feast is no longer active")
	// ErrInvalidDraft indicates required creation fields are missing.
	ErrInvalidDraft = errors.New("invalid feast draft")
)

// Feast is one community food-distribution event. The backend owns the
// record; activation state mutates server-side only.
type Feast struct {
	ID                string
	OrganizerName     string
	ContactPhone      string
	MenuItems         []string
	FoodType          string
	Description       string
	ImageURLs         []string
	Date              string // "2026-01-10"
	StartTime         string // "12:00:00"
	EndTime           string // "15:00:00"
	Latitude          float64
	Longitude         float64
	Address           string
	Landmark          *string
	DistanceMeters    *float64 // populated only by the nearby search
	EstimatedCapacity int
	IsActive          bool
	IsVerified        bool
	CreatedAt         string
	UpdatedAt         string
}

// Draft carries the fields a user supplies when announcing a feast.
type Draft struct {
	OrganizerName     string
	ContactPhone      string
	MenuItems         []string
	FoodType          string
	Description       string
	ImageURLs         []string
	Date              string
	StartTime         string
	EndTime           string
	Latitude          float64
	Longitude         float64
	Address           string
	Landmark          string
	EstimatedCapacity int
}

// Validate checks the fields the backend requires.
func (d *Draft) Validate() error {
	switch {
	case d.Date == "":
		return errors.New("feast date is required")
	case d.StartTime == "" || d.EndTime == "":
		return errors.New("start and end time are required")
	case len(d.MenuItems) == 0:
		return errors.New("at least one menu item is required")
	case d.Latitude < -90 || d.Latitude > 90:
		return errors.New("latitude out of range")
	case d.Longitude < -180 || d.Longitude > 180:
		return errors.New("longitude out of range")
	}
	return nil
}
