package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
	"github.com/NunoFAntunes/realtor-buddy/internal/sqlguard"
)

func TestRuleGenerator(t *testing.T) {
	mapper := schema.MustNewMapper(schema.NewCatalog())
	validator := sqlguard.NewValidator(sqlguard.RulesFromCatalog(mapper.Catalog(), 50))
	gen := NewRuleGenerator(mapper, nil)
	a := newTestAnalyzer()

	tests := []struct {
		query string
		want  string
	}{
		{
			query: "apartments in Zagreb under 200000 euros",
			want: "SELECT * FROM agency_properties WHERE property_type = 'apartments' AND lokacija ILIKE '%Zagreb%' " +
				"AND price IS NOT NULL AND price <= 200000 ORDER BY price",
		},
		{
			query: "3 bedroom houses with sea view",
			want:  "SELECT * FROM agency_properties WHERE property_type = 'houses' AND broj_soba = '3' AND pogled_na_more = 'da' ORDER BY created_at DESC",
		},
		{
			query: "stan u prizemlju s garažom",
			want: "SELECT * FROM agency_properties WHERE property_type = 'apartments' AND jsonb_array_length(parking) > 0 " +
				"AND kat = 'prizemlje' ORDER BY created_at DESC",
		},
		{
			query: "apartments over 80 m2 with balcony",
			want: "SELECT * FROM agency_properties WHERE property_type = 'apartments' " +
				"AND (balkon_lodza_terasa IS NOT NULL AND balkon_lodza_terasa <> 'Nema ništa navedeno') " +
				"AND NULLIF(regexp_replace(povrsina, '[^0-9.]', '', 'g'), '')::numeric >= 80 ORDER BY created_at DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			intent, err := a.Analyze(tt.query)
			require.NoError(t, err)

			sql, err := gen.Generate(context.Background(), GenerationRequest{Query: tt.query, Intent: intent})
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)

			_, err = validator.Validate(sql)
			assert.NoError(t, err)
		})
	}
}

func TestRuleGeneratorNotUnderstood(t *testing.T) {
	gen := NewRuleGenerator(schema.MustNewMapper(schema.NewCatalog()), nil)

	_, err := gen.Generate(context.Background(), GenerationRequest{Intent: &model.QueryIntent{}})
	assert.ErrorIs(t, err, apperrors.ErrNotUnderstood)

	_, err = gen.Generate(context.Background(), GenerationRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNotUnderstood)
}

func TestRuleGeneratorCancelled(t *testing.T) {
	gen := NewRuleGenerator(schema.MustNewMapper(schema.NewCatalog()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, GenerationRequest{Intent: &model.QueryIntent{BuiltAfter: intPtr(2015)}})
	assert.ErrorIs(t, err, apperrors.ErrGenerationTimeout)
}

func TestIntentPredicatesRoomsAndBuilt(t *testing.T) {
	mapper := schema.MustNewMapper(schema.NewCatalog())
	intent := &model.QueryIntent{Rooms: []string{"3", "4", "5+"}, BuiltAfter: intPtr(2015), PriceMin: floatPtr(150000.5)}

	got := intentPredicates(mapper, intent, nil)
	assert.Equal(t, []string{
		"price IS NOT NULL",
		"price >= 150000.5",
		"broj_soba IN ('3', '4', '5+')",
		"NULLIF(regexp_replace(godina_izgradnje, '[^0-9.]', '', 'g'), '')::numeric >= 2015",
	}, got)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "200000", formatNumber(200000))
	assert.Equal(t, "1200000", formatNumber(1.2e6))
	assert.Equal(t, "75.5", formatNumber(75.5))
}
