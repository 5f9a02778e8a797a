package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/feastradar/feastradar/internal/feast"
)

// Formatter renders command results as text or JSON.
type Formatter struct {
	Format string
	Writer io.Writer
}

// response is the JSON envelope for all commands.
type response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// feastJSON is the JSON projection of a feast for CLI output.
type feastJSON struct {
	ID                string   `json:"id"`
	OrganizerName     string   `json:"organizerName,omitempty"`
	MenuItems         []string `json:"menuItems,omitempty"`
	FoodType          string   `json:"foodType,omitempty"`
	Date              string   `json:"date"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	Address           string   `json:"address,omitempty"`
	Landmark          *string  `json:"landmark,omitempty"`
	DistanceMeters    *float64 `json:"distanceMeters,omitempty"`
	EstimatedCapacity int      `json:"estimatedCapacity,omitempty"`
	IsActive          bool     `json:"isActive"`
	IsVerified        bool     `json:"isVerified"`
}

func toFeastJSON(f *feast.Feast) feastJSON {
	return feastJSON{
		ID:                f.ID,
		OrganizerName:     f.OrganizerName,
		MenuItems:         f.MenuItems,
		FoodType:          f.FoodType,
		Date:              f.Date,
		StartTime:         f.StartTime,
		EndTime:           f.EndTime,
		Address:           f.Address,
		Landmark:          f.Landmark,
		DistanceMeters:    f.DistanceMeters,
		EstimatedCapacity: f.EstimatedCapacity,
		IsActive:          f.IsActive,
		IsVerified:        f.IsVerified,
	}
}

// Feasts renders a nearby result list, preserving the given order.
func (f *Formatter) Feasts(feasts []feast.Feast) error {
	if f.Format == "json" {
		out := make([]feastJSON, 0, len(feasts))
		for i := range feasts {
			out = append(out, toFeastJSON(&feasts[i]))
		}
		return json.NewEncoder(f.Writer).Encode(response{Status: "ok", Data: out})
	}

	if len(feasts) == 0 {
		fmt.Fprintln(f.Writer, "No feasts nearby.")
		return nil
	}

	for i := range feasts {
		f.writeFeast(&feasts[i])
		if i < len(feasts)-1 {
			fmt.Fprintln(f.Writer)
		}
	}
	return nil
}

// Feast renders a single feast, as returned by create or report.
func (f *Formatter) Feast(fe *feast.Feast) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(response{Status: "ok", Data: toFeastJSON(fe)})
	}
	f.writeFeast(fe)
	return nil
}

// Message renders a free-form result map.
func (f *Formatter) Message(data map[string]interface{}, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(response{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, text)
	return nil
}

func (f *Formatter) writeFeast(fe *feast.Feast) {
	header := fe.ID
	if fe.OrganizerName != "" {
		header = fmt.Sprintf("%s (%s)", fe.OrganizerName, fe.ID)
	}
	fmt.Fprintln(f.Writer, header)

	fmt.Fprintf(f.Writer, "  When:     %s %s-%s\n", fe.Date, fe.StartTime, fe.EndTime)

	where := fe.Address
	if fe.Landmark != nil && *fe.Landmark != "" {
		where = fmt.Sprintf("%s (near %s)", where, *fe.Landmark)
	}
	if where != "" {
		fmt.Fprintf(f.Writer, "  Where:    %s\n", where)
	}
	if fe.DistanceMeters != nil {
		fmt.Fprintf(f.Writer, "  Distance: %s\n", formatDistance(*fe.DistanceMeters))
	}
	if len(fe.MenuItems) > 0 {
		fmt.Fprintf(f.Writer, "  Menu:     %s\n", strings.Join(fe.MenuItems, ", "))
	}
	if fe.EstimatedCapacity > 0 {
		fmt.Fprintf(f.Writer, "  Serves:   ~%d people\n", fe.EstimatedCapacity)
	}

	state := "active"
	if !fe.IsActive {
		state = "inactive"
	}
	if fe.IsVerified {
		state += ", verified"
	}
	fmt.Fprintf(f.Writer, "  Status:   %s\n", state)
}

// formatDistance renders the server-computed distance without recomputing
// or re-rounding beyond display precision.
func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}
