package schema

import (
	"fmt"
	"strings"
)

// Prose returns the schema documentation lines used in generation prompts,
// most important first.
func (c *Catalog) Prose() []string {
	lines := []string{
		fmt.Sprintf("Table %s: %s. Primary key: %s.", c.Table, c.Description, c.PrimaryKey),
		"Column names are Croatian; stored values are Croatian too ('da' means yes, 'ne' means no).",
		"property_type values: 'apartments', 'houses', 'commercial_real_estate', 'commercial_land', 'luxury_properties'.",
		"Match locations with lokacija ILIKE '%Zagreb%'; never compare lokacija with '='.",
		"Prices are in EUR; add 'price IS NOT NULL' when filtering on price.",
		"broj_soba holds text values '1', '2', '3', '4' or '5+'; compare it as a string.",
		"JSON array columns (parking, grijanje, komunalije, ...) are jsonb; use jsonb_array_length(col) > 0 for presence.",
	}

	var numText []string
	for _, f := range c.Fields {
		if f.Type == TypeNumText {
			numText = append(numText, f.Column)
		}
	}
	lines = append(lines,
		fmt.Sprintf("Columns %s store numbers as text; compare them with NULLIF(regexp_replace(col, '[^0-9.]', '', 'g'), '')::numeric.", strings.Join(numText, ", ")),
		"Floors: kat = 'prizemlje' is the ground floor, kat = 'potkrovlje' the attic, numbers are upper floors.",
		"energetski_razred ranges from 'A+' (best) to 'G'.",
		"agency_type is one of 'agencija', 'investitor', 'trgovina'.",
	)
	return lines
}

// MappingRows returns one line per field describing the column, its
// canonical name and any value translations.
func (c *Catalog) MappingRows() []string {
	rows := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		var b strings.Builder
		fmt.Fprintf(&b, "%s -> %s (%s): %s", f.Column, f.Canonical, f.Type, f.Description)
		if len(f.Values) > 0 {
			pairs := make([]string, 0, len(f.Values))
			for _, v := range f.Values {
				pairs = append(pairs, fmt.Sprintf("'%s'=%s", v.Source, v.Canonical))
			}
			fmt.Fprintf(&b, "; values %s", strings.Join(pairs, ", "))
		}
		rows = append(rows, b.String())
	}
	return rows
}
