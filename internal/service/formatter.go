package service

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
)

var leadingNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Formatter turns executor rows into canonical property records.
type Formatter struct {
	mapper  *schema.Mapper
	printer *message.Printer
}

func NewFormatter(mapper *schema.Mapper) *Formatter {
	return &Formatter{mapper: mapper, printer: message.NewPrinter(language.Croatian)}
}

// Format never fails: missing or malformed values become nil and every row
// is kept, including rows without a primary key.
func (f *Formatter) Format(rows []map[string]any) []model.PropertyRecord {
	out := make([]model.PropertyRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, f.record(row))
	}
	return out
}

func (f *Formatter) record(row map[string]any) model.PropertyRecord {
	var rec model.PropertyRecord
	for column, raw := range row {
		canonical := column
		typ := schema.TypeText
		if field, ok := f.mapper.Catalog().Field(column); ok {
			canonical, typ = field.Canonical, field.Type
		}

		switch canonical {
		case "id":
			rec.ID = intValue(raw)
		case "title":
			rec.Title = stringValue(raw)
		case "price":
			rec.Price = floatValue(raw)
		case "location":
			rec.Location = stringValue(raw)
		case "street":
			rec.Street = stringValue(raw)
		case "latitude":
			rec.Latitude = floatValue(raw)
		case "longitude":
			rec.Longitude = floatValue(raw)
		case "property_type":
			rec.PropertyType = f.translated(column, raw)
		case "number_of_bedrooms":
			rec.NumberOfBedrooms = stringValue(raw)
		case "surface_area":
			rec.SurfaceArea = floatValue(raw)
		case "floor":
			rec.Floor = f.translated(column, raw)
		case "elevator":
			rec.Elevator = f.translated(column, raw)
		case "sea_view":
			rec.SeaView = f.translated(column, raw)
		case "energy_rating":
			rec.EnergyRating = stringValue(raw)
		case "agency_name":
			rec.AgencyName = stringValue(raw)
		case "agency_type":
			rec.AgencyType = f.translated(column, raw)
		case "image_urls":
			rec.ImageURLs = imageList(raw)
		case "url":
			rec.URL = stringValue(raw)
		case "view_count":
			rec.ViewCount = intValue(raw)
		case "posted_date":
			rec.PostedDate = stringValue(raw)
		default:
			if rec.Attributes == nil {
				rec.Attributes = make(map[string]any)
			}
			rec.Attributes[canonical] = f.attribute(column, typ, raw)
		}
	}

	for _, u := range rec.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			rec.PrimaryImage = &u
			break
		}
	}
	if rec.Price != nil {
		s := f.printer.Sprintf("%d €", int64(math.Round(*rec.Price)))
		rec.PriceDisplay = &s
	}
	if rec.SurfaceArea != nil {
		var s string
		if a := *rec.SurfaceArea; a == math.Trunc(a) {
			s = f.printer.Sprintf("%d m²", int64(a))
		} else {
			s = f.printer.Sprintf("%.1f m²", a)
		}
		rec.AreaDisplay = &s
	}
	return rec
}

func (f *Formatter) translated(column string, raw any) *string {
	s := stringValue(raw)
	if s == nil {
		return nil
	}
	v := f.mapper.TranslateValue(column, *s)
	return &v
}

func (f *Formatter) attribute(column string, typ schema.DataType, raw any) any {
	switch typ {
	case schema.TypeJSON:
		if s := stringValue(raw); s != nil {
			var v any
			if err := json.Unmarshal([]byte(*s), &v); err == nil {
				return v
			}
			return *s
		}
		return raw
	case schema.TypeText, schema.TypeYesNo:
		if s := stringValue(raw); s != nil {
			return f.mapper.TranslateValue(column, *s)
		}
	}
	if b, ok := raw.([]byte); ok {
		return string(b)
	}
	return raw
}

func stringValue(raw any) *string {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	case time.Time:
		s = v.Format(time.RFC3339)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// floatValue also reads numbers stored as text such as "75,5 m2".
func floatValue(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	}
	s := stringValue(raw)
	if s == nil {
		return nil
	}
	m := leadingNumber.FindString(*s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &f
}

func intValue(raw any) *int64 {
	switch v := raw.(type) {
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case int32:
		n := int64(v)
		return &n
	}
	f := floatValue(raw)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

func imageList(raw any) model.JSONArray {
	var arr model.JSONArray
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				arr = append(arr, s)
			}
		}
		return arr
	}
	if err := arr.Scan(raw); err != nil {
		return nil
	}
	return arr
}
