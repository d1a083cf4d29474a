package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
)

// RuleGenerator builds SQL straight from the analyzed intent. It needs no
// model and serves as the fallback backend.
type RuleGenerator struct {
	mapper *schema.Mapper
	log    *zap.Logger
}

func NewRuleGenerator(mapper *schema.Mapper, log *zap.Logger) *RuleGenerator {
	return &RuleGenerator{mapper: mapper, log: logger.OrNop(log)}
}

func (g *RuleGenerator) Name() string { return "rules" }

// Generate ignores the prompt. An intent without usable criteria is not
// understood rather than turned into an unfiltered scan.
func (g *RuleGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrGenerationTimeout, err)
	}
	if req.Intent == nil || req.Intent.IsEmpty() {
		return "", fmt.Errorf("%w: no search criteria recognised", apperrors.ErrNotUnderstood)
	}

	preds := intentPredicates(g.mapper, req.Intent, g.log)
	if len(preds) == 0 {
		return "", fmt.Errorf("%w: no usable search criteria", apperrors.ErrNotUnderstood)
	}

	order := "ORDER BY created_at DESC"
	if req.Intent.PriceMin != nil || req.Intent.PriceMax != nil {
		order = "ORDER BY price"
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s %s",
		g.mapper.Catalog().Table, strings.Join(preds, " AND "), order), nil
}

// intentPredicates renders each intent constraint as a condition over the
// stored schema. Constraints whose stored value falls outside the column's
// domain are dropped.
func intentPredicates(m *schema.Mapper, intent *model.QueryIntent, log *zap.Logger) []string {
	log = logger.OrNop(log)
	var preds []string

	column := func(field string) string {
		c, err := m.Column(field)
		if err != nil {
			log.Warn("catalog field missing", zap.String("field", field), zap.Error(err))
		}
		return c
	}
	stored := func(field, canonical string) (string, bool) {
		v := m.Reverse(field, canonical)
		if err := m.CheckValue(field, v); err != nil {
			log.Debug("dropping predicate", zap.String("field", field), zap.Error(err))
			return "", false
		}
		return v, true
	}

	if intent.PropertyType != nil {
		if v, ok := stored("property_type", string(*intent.PropertyType)); ok {
			preds = append(preds, fmt.Sprintf("%s = %s", column("property_type"), schema.QuoteLiteral(v)))
		}
	}
	if intent.Location != nil {
		preds = append(preds, fmt.Sprintf("%s ILIKE %s", column("location"), schema.ContainsPattern(*intent.Location)))
	}
	if intent.PriceMin != nil || intent.PriceMax != nil {
		price := column("price")
		preds = append(preds, price+" IS NOT NULL")
		if intent.PriceMin != nil {
			preds = append(preds, fmt.Sprintf("%s >= %s", price, formatNumber(*intent.PriceMin)))
		}
		if intent.PriceMax != nil {
			preds = append(preds, fmt.Sprintf("%s <= %s", price, formatNumber(*intent.PriceMax)))
		}
	}
	if len(intent.Rooms) > 0 {
		values := make([]string, 0, len(intent.Rooms))
		for _, r := range intent.Rooms {
			if v, ok := stored("number_of_bedrooms", r); ok {
				values = append(values, schema.QuoteLiteral(v))
			}
		}
		switch len(values) {
		case 0:
		case 1:
			preds = append(preds, fmt.Sprintf("%s = %s", column("number_of_bedrooms"), values[0]))
		default:
			preds = append(preds, fmt.Sprintf("%s IN (%s)", column("number_of_bedrooms"), strings.Join(values, ", ")))
		}
	}
	for _, f := range intent.Features {
		p, err := m.FeaturePredicate(f)
		if err != nil {
			log.Debug("dropping feature", zap.String("feature", f), zap.Error(err))
			continue
		}
		preds = append(preds, p)
	}
	if intent.Floor != nil {
		if v, ok := stored("floor", *intent.Floor); ok {
			preds = append(preds, fmt.Sprintf("%s = %s", column("floor"), schema.QuoteLiteral(v)))
		}
	}
	if intent.AreaMin != nil {
		preds = append(preds, fmt.Sprintf("%s >= %s", numericText(column("surface_area")), formatNumber(*intent.AreaMin)))
	}
	if intent.AreaMax != nil {
		preds = append(preds, fmt.Sprintf("%s <= %s", numericText(column("surface_area")), formatNumber(*intent.AreaMax)))
	}
	if intent.BuiltAfter != nil {
		preds = append(preds, fmt.Sprintf("%s >= %d", numericText(column("construction_year")), *intent.BuiltAfter))
	}
	return preds
}

// numericText compares a number stored as free text, e.g. "75 m2".
func numericText(column string) string {
	return fmt.Sprintf("NULLIF(regexp_replace(%s, '[^0-9.]', '', 'g'), '')::numeric", column)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
