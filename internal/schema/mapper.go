package schema

import (
	"fmt"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
)

// Mapper translates between source-language terms and canonical
// identifiers. It is built once from a Catalog and is read-only afterwards,
// so it is safe for concurrent use.
type Mapper struct {
	catalog  *Catalog
	terms    map[string]string            // folded source term or synonym -> canonical
	fields   map[string]*Field            // canonical -> field
	toCanon  map[string]map[string]string // canonical field -> folded source value -> canonical value
	toSource map[string]map[string]string // canonical field -> canonical value -> source value
	domains  map[string]map[string]struct{}
}

// NewMapper indexes cat. It fails when two different fields claim the same
// source term.
func NewMapper(cat *Catalog) (*Mapper, error) {
	m := &Mapper{
		catalog:  cat,
		terms:    make(map[string]string),
		fields:   make(map[string]*Field),
		toCanon:  make(map[string]map[string]string),
		toSource: make(map[string]map[string]string),
		domains:  make(map[string]map[string]struct{}),
	}

	for i := range cat.Fields {
		f := &cat.Fields[i]
		if _, dup := m.fields[f.Canonical]; dup {
			return nil, fmt.Errorf("duplicate canonical field %q", f.Canonical)
		}
		m.fields[f.Canonical] = f

		for _, term := range append([]string{f.Column}, f.Synonyms...) {
			key := foldKey(term)
			if owner, ok := m.terms[key]; ok && owner != f.Canonical {
				return nil, fmt.Errorf("source term %q maps to both %q and %q", term, owner, f.Canonical)
			}
			m.terms[key] = f.Canonical
		}

		canon := make(map[string]string)
		source := make(map[string]string)
		for _, v := range f.Values {
			canon[Fold(v.Source)] = v.Canonical
			source[v.Canonical] = v.Source
		}
		for _, v := range f.Aliases {
			if _, ok := canon[Fold(v.Source)]; !ok {
				canon[Fold(v.Source)] = v.Canonical
			}
		}
		m.toCanon[f.Canonical] = canon
		m.toSource[f.Canonical] = source

		if len(f.Domain) > 0 {
			d := make(map[string]struct{}, len(f.Domain))
			for _, v := range f.Domain {
				d[Fold(v)] = struct{}{}
			}
			m.domains[f.Canonical] = d
		}
	}

	return m, nil
}

// MustNewMapper is NewMapper for the built-in catalog, panicking on a
// broken catalog.
func MustNewMapper(cat *Catalog) *Mapper {
	m, err := NewMapper(cat)
	if err != nil {
		panic(err)
	}
	return m
}

// Catalog returns the catalog the mapper was built from.
func (m *Mapper) Catalog() *Catalog {
	return m.catalog
}

// TranslateField resolves a source column, synonym or canonical name to the
// canonical field identifier.
func (m *Mapper) TranslateField(term string) (string, error) {
	key := foldKey(term)
	if canonical, ok := m.terms[key]; ok {
		return canonical, nil
	}
	if _, ok := m.fields[key]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownField, term)
}

// Column returns the database column for a canonical or source term.
func (m *Mapper) Column(term string) (string, error) {
	canonical, err := m.TranslateField(term)
	if err != nil {
		return "", err
	}
	return m.fields[canonical].Column, nil
}

// TranslateValue maps a stored source value to its canonical value. Values
// without a translation, and values of unknown fields, pass through.
func (m *Mapper) TranslateValue(field, value string) string {
	canonical, err := m.TranslateField(field)
	if err != nil {
		return value
	}
	if v, ok := m.toCanon[canonical][Fold(value)]; ok {
		return v
	}
	return value
}

// Reverse maps a canonical value back to the stored source value, passing
// it through when no translation is registered.
func (m *Mapper) Reverse(field, canonicalValue string) string {
	canonical, err := m.TranslateField(field)
	if err != nil {
		return canonicalValue
	}
	if v, ok := m.toSource[canonical][canonicalValue]; ok {
		return v
	}
	return canonicalValue
}

// CheckValue fails with ErrUnsupportedValue when field has a closed domain
// and the stored value is outside it.
func (m *Mapper) CheckValue(field, storedValue string) error {
	canonical, err := m.TranslateField(field)
	if err != nil {
		return err
	}
	domain, ok := m.domains[canonical]
	if !ok {
		return nil
	}
	if _, ok := domain[Fold(storedValue)]; !ok {
		return fmt.Errorf("%w: %q for %s", apperrors.ErrUnsupportedValue, storedValue, canonical)
	}
	return nil
}

// Bijective returns the registered one-to-one translations of field.
func (m *Mapper) Bijective(field string) []ValueTranslation {
	canonical, err := m.TranslateField(field)
	if err != nil {
		return nil
	}
	return m.fields[canonical].Values
}

// FeaturePredicate renders the SQL condition that selects listings having
// the named feature.
func (m *Mapper) FeaturePredicate(name string) (string, error) {
	feat, err := m.catalog.Feature(name)
	if err != nil {
		return "", err
	}
	column, err := m.Column(feat.Field)
	if err != nil {
		return "", err
	}

	switch feat.Kind {
	case FeatureYesNo:
		return fmt.Sprintf("%s = %s", column, QuoteLiteral(m.Reverse(feat.Field, "yes"))), nil
	case FeatureJSONArray:
		return fmt.Sprintf("jsonb_array_length(%s) > 0", column), nil
	case FeatureFilledText:
		return fmt.Sprintf("(%s IS NOT NULL AND %s <> %s)", column, column, QuoteLiteral(feat.NoneValue)), nil
	default:
		return "", fmt.Errorf("feature %q has unknown kind %d", name, feat.Kind)
	}
}
