package models

import "time"

// TripMode is how the traveler moves between origin and destination.
type TripMode string

const (
	ModeFlight TripMode = "FLIGHT"
	ModeCar    TripMode = "CAR"
)

// Valid reports whether m is a supported trip mode.
func (m TripMode) Valid() bool {
	return m == ModeFlight || m == ModeCar
}

// Place is a country/city pair.
type Place struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// ShipmentDraft is the trip being assembled across the two wizard steps.
// FlightNumber is set only for FLIGHT trips and VehiclePlate only for CAR
// trips; the wizard enforces the exclusivity.
type ShipmentDraft struct {
	Origin            Place     `json:"origin"`
	Destination       Place     `json:"destination"`
	DepartureAt       time.Time `json:"departureAt"`
	ArrivalAt         time.Time `json:"arrivalAt"`
	Mode              TripMode  `json:"mode"`
	FlightNumber      string    `json:"flightNumber,omitempty"`
	VehiclePlate      string    `json:"vehiclePlate,omitempty"`
	AllowedCategories []string  `json:"allowedCategories"`
	MaxWeightKg       float64   `json:"maxWeightKg"`
	MaxHeightCm       float64   `json:"maxHeightCm"`
	MaxWidthCm        float64   `json:"maxWidthCm"`
	MaxLengthCm       float64   `json:"maxLengthCm"`
}
