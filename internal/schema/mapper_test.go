package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(NewCatalog())
	require.NoError(t, err)
	return m
}

func TestTranslateFieldIsTotalOverCanonicalFields(t *testing.T) {
	m := newTestMapper(t)

	for _, f := range m.Catalog().Fields {
		got, err := m.TranslateField(f.Canonical)
		require.NoError(t, err, f.Canonical)
		assert.Equal(t, f.Canonical, got)

		got, err = m.TranslateField(f.Column)
		require.NoError(t, err, f.Column)
		assert.Equal(t, f.Canonical, got)
	}
}

func TestTranslateField(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		term string
		want string
	}{
		{"lokacija", "location"},
		{"LOKACIJA", "location"},
		{"broj_soba", "number_of_bedrooms"},
		{"Broj-Soba", "number_of_bedrooms"},
		{"pogled na more", "sea_view"},
		{"Pogled Na Moré", "sea_view"},
		{"kat", "floor"},
		{"energetski_razred", "energy_rating"},
		{"cijena", "price"},
		{"  sea_view  ", "sea_view"},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, err := m.TranslateField(tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateFieldUnknown(t *testing.T) {
	m := newTestMapper(t)

	for _, term := range []string{"", "swimming_pool", "password", "agency_properties"} {
		_, err := m.TranslateField(term)
		assert.True(t, errors.Is(err, apperrors.ErrUnknownField), "term %q", term)
	}
}

func TestColumn(t *testing.T) {
	m := newTestMapper(t)

	col, err := m.Column("sea_view")
	require.NoError(t, err)
	assert.Equal(t, "pogled_na_more", col)

	col, err = m.Column("elevator")
	require.NoError(t, err)
	assert.Equal(t, "lift", col)
}

func TestTranslateValue(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"yes", "sea_view", "da", "yes"},
		{"upper case source column", "LIFT", "DA", "yes"},
		{"floor", "kat", "Prizemlje", "ground_floor"},
		{"provider type", "property_type", "apartments", "apartment"},
		{"alias with diacritics", "property_type", "Kuća", "house"},
		{"alias without diacritics", "property_type", "kuca", "house"},
		{"agency", "agency_type", "investitor", "investor"},
		{"purpose", "namjena", "mješovita", "mixed_use"},
		{"unmapped value passes through", "kat", "3", "3"},
		{"free text passes through", "location", "Zagreb, Trešnjevka", "Zagreb, Trešnjevka"},
		{"unknown field passes through", "swimming_pool", "da", "da"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.TranslateValue(tt.field, tt.value))
		})
	}
}

func TestReverseRoundTrip(t *testing.T) {
	m := newTestMapper(t)

	for _, f := range m.Catalog().Fields {
		for _, v := range m.Bijective(f.Canonical) {
			assert.Equal(t, v.Source, m.Reverse(f.Canonical, m.TranslateValue(f.Canonical, v.Source)),
				"field %s value %s", f.Canonical, v.Source)
		}
	}
}

func TestReverse(t *testing.T) {
	m := newTestMapper(t)

	assert.Equal(t, "da", m.Reverse("elevator", "yes"))
	assert.Equal(t, "prizemlje", m.Reverse("floor", "ground_floor"))
	assert.Equal(t, "apartments", m.Reverse("property_type", "apartment"))
	assert.Equal(t, "2", m.Reverse("floor", "2"))
	assert.Equal(t, "x", m.Reverse("no_such_field", "x"))
}

func TestCheckValue(t *testing.T) {
	m := newTestMapper(t)

	assert.NoError(t, m.CheckValue("property_type", "houses"))
	assert.NoError(t, m.CheckValue("energy_rating", "A+"))
	assert.NoError(t, m.CheckValue("floor", "anything goes"))

	err := m.CheckValue("property_type", "castle")
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedValue))

	err = m.CheckValue("no_such_field", "x")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownField))
}

func TestFeaturePredicate(t *testing.T) {
	m := newTestMapper(t)

	tests := map[string]string{
		"sea_view": "pogled_na_more = 'da'",
		"elevator": "lift = 'da'",
		"parking":  "jsonb_array_length(parking) > 0",
		"balcony":  "(balkon_lodza_terasa IS NOT NULL AND balkon_lodza_terasa <> 'Nema ništa navedeno')",
	}
	for name, want := range tests {
		got, err := m.FeaturePredicate(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := m.FeaturePredicate("pool")
	assert.Error(t, err)
}

func TestNewMapperRejectsDuplicateTerms(t *testing.T) {
	cat := NewCatalog()
	cat.Fields = append(cat.Fields, Field{Column: "kat_zgrade", Canonical: "building_floor", Synonyms: []string{"lokacija"}})

	_, err := NewMapper(cat)
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Kuća":           "kuca",
		"ŠIBENIK":        "sibenik",
		"Lođa":           "loda",
		"Varaždin":       "varazdin",
		"  Trešnjevka  ": "tresnjevka",
		"plain":          "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "'%Zagreb%'", ContainsPattern("Zagreb"))
	assert.Equal(t, "'%O''Brien%'", ContainsPattern("O'Brien"))
	assert.Equal(t, "'%abc%'", ContainsPattern("a%bc"))
}
