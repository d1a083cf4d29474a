package model

import "sort"

// PropertyType is the canonical property category.
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyCommercial PropertyType = "commercial"
	PropertyLand       PropertyType = "land"
	PropertyLuxury     PropertyType = "luxury"
)

// PropertyTypes lists every canonical type in a fixed order.
var PropertyTypes = []PropertyType{
	PropertyApartment,
	PropertyHouse,
	PropertyCommercial,
	PropertyLand,
	PropertyLuxury,
}

// Canonical feature names.
const (
	FeatureSeaView  = "sea_view"
	FeatureElevator = "elevator"
	FeatureParking  = "parking"
	FeatureBalcony  = "balcony"
)

// QueryIntent is the structured, partially-filled reading of a free-text
// search. A nil or empty field means unconstrained, never false.
type QueryIntent struct {
	Location     *string       `json:"location,omitempty"`
	PriceMin     *float64      `json:"price_min,omitempty"`
	PriceMax     *float64      `json:"price_max,omitempty"`
	Rooms        []string      `json:"rooms,omitempty"`
	PropertyType *PropertyType `json:"property_type,omitempty"`
	Features     []string      `json:"features,omitempty"`
	Floor        *string       `json:"floor,omitempty"`
	AreaMin      *float64      `json:"area_min,omitempty"`
	AreaMax      *float64      `json:"area_max,omitempty"`
	BuiltAfter   *int          `json:"built_after,omitempty"`
}

// HasFeature reports whether name is in the feature set.
func (q *QueryIntent) HasFeature(name string) bool {
	for _, f := range q.Features {
		if f == name {
			return true
		}
	}
	return false
}

// AddFeature inserts name keeping the set sorted and free of duplicates.
func (q *QueryIntent) AddFeature(name string) {
	if q.HasFeature(name) {
		return
	}
	q.Features = append(q.Features, name)
	sort.Strings(q.Features)
}

// SetRooms replaces the room set with a sorted, de-duplicated copy.
func (q *QueryIntent) SetRooms(rooms []string) {
	set := make(map[string]struct{}, len(rooms))
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if _, ok := set[r]; ok {
			continue
		}
		set[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	q.Rooms = out
}

// IsEmpty reports whether no constraint was extracted.
func (q *QueryIntent) IsEmpty() bool {
	return q.Location == nil && q.PriceMin == nil && q.PriceMax == nil &&
		len(q.Rooms) == 0 && q.PropertyType == nil && len(q.Features) == 0 &&
		q.Floor == nil && q.AreaMin == nil && q.AreaMax == nil && q.BuiltAfter == nil
}

// ConstraintCount returns how many independent constraints are set.
func (q *QueryIntent) ConstraintCount() int {
	n := len(q.Features)
	for _, set := range []bool{
		q.Location != nil,
		q.PriceMin != nil || q.PriceMax != nil,
		len(q.Rooms) > 0,
		q.PropertyType != nil,
		q.Floor != nil,
		q.AreaMin != nil || q.AreaMax != nil,
		q.BuiltAfter != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
