// Package schema holds the immutable description of the searchable table
// and the bidirectional mapping between source-language (Croatian) terms and
// canonical English identifiers.
package schema

import (
	"fmt"
	"sort"

	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

// DataType is the logical column type.
type DataType string

const (
	TypeInteger   DataType = "integer"
	TypeNumeric   DataType = "numeric"
	TypeText      DataType = "text"
	TypeNumText   DataType = "numeric_text" // numbers stored as varchar
	TypeYesNo     DataType = "yes_no"       // 'da' / 'ne'
	TypeJSON      DataType = "jsonb"
	TypeTimestamp DataType = "timestamp"
)

// ValueTranslation maps one stored source value to its canonical value.
type ValueTranslation struct {
	Field     string
	Source    string
	Canonical string
}

// Field describes a single column of the searchable table.
type Field struct {
	Column      string
	Canonical   string
	Type        DataType
	Description string
	Synonyms    []string
	// Values are bijective per field; Aliases only map source to canonical.
	Values  []ValueTranslation
	Aliases []ValueTranslation
	// Domain, when set, is the closed set of stored values.
	Domain []string
}

// FeatureKind selects how a feature predicate is expressed in SQL.
type FeatureKind int

const (
	FeatureYesNo FeatureKind = iota
	FeatureJSONArray
	FeatureFilledText
)

// Feature is a searchable amenity and the column that records it.
type Feature struct {
	Name     string
	Field    string // canonical field
	Kind     FeatureKind
	Synonyms []string
	// NoneValue is the placeholder the provider stores when nothing is listed.
	NoneValue string
}

// LocationTerm is a location dictionary entry; Forms include inflected
// Croatian spellings.
type LocationTerm struct {
	Display string
	Forms   []string
}

// Catalog is the static description of the searchable table. It is built
// once and never mutated.
type Catalog struct {
	Table         string
	Description   string
	PrimaryKey    string
	Fields        []Field
	Features      []Feature
	Locations     []LocationTerm
	PropertyTerms map[model.PropertyType][]string
	byColumn      map[string]int
}

// NewCatalog returns the agency_properties catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		Table:         "agency_properties",
		Description:   "Croatian real estate listings collected from agencies, investors and shops",
		PrimaryKey:    "id",
		Fields:        catalogFields(),
		Features:      catalogFeatures(),
		Locations:     catalogLocations(),
		PropertyTerms: catalogPropertyTerms(),
		byColumn:      make(map[string]int),
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		for j := range f.Values {
			f.Values[j].Field = f.Canonical
		}
		for j := range f.Aliases {
			f.Aliases[j].Field = f.Canonical
		}
		c.byColumn[f.Column] = i
	}
	return c
}

// Field looks a field up by its database column name.
func (c *Catalog) Field(column string) (Field, bool) {
	i, ok := c.byColumn[column]
	if !ok {
		return Field{}, false
	}
	return c.Fields[i], true
}

// Columns returns every column name, sorted.
func (c *Catalog) Columns() []string {
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		cols = append(cols, f.Column)
	}
	sort.Strings(cols)
	return cols
}

// Feature returns the feature definition by canonical name.
func (c *Catalog) Feature(name string) (Feature, error) {
	for _, f := range c.Features {
		if f.Name == name {
			return f, nil
		}
	}
	return Feature{}, fmt.Errorf("unknown feature %q", name)
}
