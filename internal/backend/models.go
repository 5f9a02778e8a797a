package backend

import "github.com/feastradar/feastradar/internal/feast"

// Sentinel coordinates signal "location unknown at registration time". They
// are deliberately outside any plausible fix so they can never be confused
// with a real point the way (0, 0) could be.
const (
	SentinelLatitude  = -90.0
	SentinelLongitude = -180.0
)

// RegisterUserRequest is the POST /api/users body.
type RegisterUserRequest struct {
	FirebaseUID string  `json:"firebaseUid"`
	FCMToken    string  `json:"fcmToken"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// RegisterUserResponse echoes the backend's registration record.
type RegisterUserResponse struct {
	ID          string   `json:"id"`
	FirebaseUID string   `json:"firebaseUid"`
	FCMToken    string   `json:"fcmToken"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CreatedAt   string   `json:"createdAt"`
	Message     string   `json:"message"`
}

// UpdateLocationRequest is the PUT /api/users/location body.
type UpdateLocationRequest struct {
	FirebaseUID string  `json:"firebaseUid"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	FCMToken    string  `json:"fcmToken"`
}

// UpdateLocationResponse acknowledges a location update.
type UpdateLocationResponse struct {
	FirebaseUID string   `json:"firebaseUid"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	UpdatedAt   string   `json:"updatedAt"`
	Message     string   `json:"message"`
}

// createFeastRequest is the POST /api/feasts body.
type createFeastRequest struct {
	FirebaseUID       string   `json:"firebaseUid"`
	OrganizerName     string   `json:"organizerName,omitempty"`
	ContactPhone      string   `json:"contactPhone,omitempty"`
	MenuItems         []string `json:"menuItems"`
	FoodType          string   `json:"foodType,omitempty"`
	Description       string   `json:"description,omitempty"`
	ImageURLs         []string `json:"imageUrls"`
	FeastDate         string   `json:"feastDate"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Address           string   `json:"address,omitempty"`
	Landmark          string   `json:"landmark,omitempty"`
	EstimatedCapacity int      `json:"estimatedCapacity,omitempty"`
}

// feastPayload is the wire shape of a feast, used for both single-feast and
// nearby-list responses.
type feastPayload struct {
	ID                string   `json:"id"`
	FirebaseUID       string   `json:"firebaseUid"`
	OrganizerName     string   `json:"organizerName"`
	ContactPhone      string   `json:"contactPhone"`
	MenuItems         []string `json:"menuItems"`
	FoodType          string   `json:"foodType"`
	Description       string   `json:"description"`
	ImageURLs         []string `json:"imageUrls"`
	FeastDate         string   `json:"feastDate"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Address           string   `json:"address"`
	Landmark          *string  `json:"landmark"`
	Distance          *float64 `json:"distance"` // meters, nearby endpoint only
	EstimatedCapacity int      `json:"estimatedCapacity"`
	IsActive          bool     `json:"isActive"`
	IsVerified        bool     `json:"isVerified"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
	Message           string   `json:"message"`
}

// toFeast converts the wire payload to the domain model. The distance field
// is carried through untouched: the server owns distance computation.
func (p *feastPayload) toFeast() feast.Feast {
	return feast.Feast{
		ID:                p.ID,
		OrganizerName:     p.OrganizerName,
		ContactPhone:      p.ContactPhone,
		MenuItems:         p.MenuItems,
		FoodType:          p.FoodType,
		Description:       p.Description,
		ImageURLs:         p.ImageURLs,
		Date:              p.FeastDate,
		StartTime:         p.StartTime,
		EndTime:           p.EndTime,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		Address:           p.Address,
		Landmark:          p.Landmark,
		DistanceMeters:    p.Distance,
		EstimatedCapacity: p.EstimatedCapacity,
		IsActive:          p.IsActive,
		IsVerified:        p.IsVerified,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromDraft(principal string, d *feast.Draft) createFeastRequest {
	menuItems := d.MenuItems
	if menuItems == nil {
		menuItems = []string{}
	}
	imageURLs := d.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return createFeastRequest{
		FirebaseUID:       principal,
		OrganizerName:     d.OrganizerName,
		ContactPhone:      d.ContactPhone,
		MenuItems:         menuItems,
		FoodType:          d.FoodType,
		Description:       d.Description,
		ImageURLs:         imageURLs,
		FeastDate:         d.Date,
		StartTime:         d.StartTime,
		EndTime:           d.EndTime,
		Latitude:          d.Latitude,
		Longitude:         d.Longitude,
		Address:           d.Address,
		Landmark:          d.Landmark,
		EstimatedCapacity: d.EstimatedCapacity,
	}
}
