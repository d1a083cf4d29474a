package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PropertyRecord is a single listing expressed in canonical field names.
// Every field except Attributes may be missing in the source row.
type PropertyRecord struct {
	ID               *int64         `json:"id"`
	Title            *string        `json:"title,omitempty"`
	Price            *float64       `json:"price"`
	PriceDisplay     *string        `json:"price_display,omitempty"`
	Location         *string        `json:"location"`
	Street           *string        `json:"street,omitempty"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	PropertyType     *string        `json:"property_type,omitempty"`
	NumberOfBedrooms *string        `json:"number_of_bedrooms,omitempty"`
	SurfaceArea      *float64       `json:"surface_area,omitempty"`
	AreaDisplay      *string        `json:"area_display,omitempty"`
	Floor            *string        `json:"floor,omitempty"`
	Elevator         *string        `json:"elevator,omitempty"`
	SeaView          *string        `json:"sea_view,omitempty"`
	EnergyRating     *string        `json:"energy_rating,omitempty"`
	AgencyName       *string        `json:"agency_name,omitempty"`
	AgencyType       *string        `json:"agency_type,omitempty"`
	PrimaryImage     *string        `json:"primary_image"`
	ImageURLs        JSONArray      `json:"image_urls,omitempty"`
	URL              *string        `json:"url,omitempty"`
	ViewCount        *int64         `json:"view_count,omitempty"`
	PostedDate       *string        `json:"posted_date,omitempty"`
	Attributes       map[string]any `json:"attributes,omitempty"`
}

// JSONArray represents a JSON array of strings stored in a json/jsonb column
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONArray source %T", value)
	}
}
