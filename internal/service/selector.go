package service

import (
	"sort"
	"strings"

	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
	"github.com/NunoFAntunes/realtor-buddy/internal/utils"
)

// Example categories used by the corpus.
const (
	CategoryBasic        = "basic"
	CategoryArea         = "area"
	CategoryFeatures     = "features"
	CategoryConstruction = "construction"
	CategoryLuxury       = "luxury"
	CategoryLocation     = "location"
	CategoryCommercial   = "commercial"
	CategoryBudget       = "budget"
	CategoryComplex      = "complex"
)

const (
	luxuryPriceFloor   = 500000
	budgetPriceCeiling = 100000
)

// Selector ranks the few-shot corpus against a query.
type Selector struct {
	examples []model.TrainingExample
}

func NewSelector(examples []model.TrainingExample) *Selector {
	return &Selector{examples: examples}
}

type scoredExample struct {
	example model.TrainingExample
	score   int
}

// Select returns at most k examples by descending score. Ties keep corpus
// order and zero-score examples fill the remaining places.
func (s *Selector) Select(intent *model.QueryIntent, rawText string, k int) []model.TrainingExample {
	if k <= 0 || len(s.examples) == 0 {
		return []model.TrainingExample{}
	}

	tokens := queryTokens(intent, rawText)
	category := InferCategory(intent)

	scored := make([]scoredExample, len(s.examples))
	for i, ex := range s.examples {
		scored[i] = scoredExample{example: ex, score: scoreExample(ex, tokens, category)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]model.TrainingExample, k)
	for i := range out {
		out[i] = scored[i].example
	}
	return out
}

func scoreExample(ex model.TrainingExample, tokens map[string]struct{}, category string) int {
	seen := make(map[string]struct{}, len(ex.Keywords))
	score := 0
	for _, kw := range ex.Keywords {
		kw = schema.Fold(kw)
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := tokens[kw]; ok {
			score++
		}
	}
	if ex.Category == category {
		score++
	}
	return score
}

// queryTokens collects the folded words of the raw text together with
// markers derived from the intent.
func queryTokens(intent *model.QueryIntent, rawText string) map[string]struct{} {
	tokens := make(map[string]struct{})
	add := func(words ...string) {
		for _, w := range words {
			if w != "" {
				tokens[w] = struct{}{}
			}
		}
	}
	add(utils.Words(schema.Fold(rawText))...)

	if intent == nil {
		return tokens
	}
	if intent.PropertyType != nil {
		pt := string(*intent.PropertyType)
		add(pt)
		switch *intent.PropertyType {
		case model.PropertyApartment:
			add("apartments")
		case model.PropertyHouse:
			add("houses")
		case model.PropertyLand:
			add("plot", "zemljiste")
		}
	}
	if intent.Location != nil {
		add(utils.Words(schema.Fold(*intent.Location))...)
	}
	for _, f := range intent.Features {
		add(f)
		add(strings.Split(f, "_")...)
	}
	if intent.Floor != nil {
		add("floor")
		add(strings.Split(*intent.Floor, "_")...)
	}
	if intent.PriceMin != nil || intent.PriceMax != nil {
		add("price")
	}
	if intent.PriceMin != nil && intent.PriceMax != nil {
		add("between")
	} else if intent.PriceMax != nil {
		add("under")
	} else if intent.PriceMin != nil {
		add("over")
	}
	if len(intent.Rooms) > 0 {
		add("bedroom", "rooms")
	}
	if intent.AreaMin != nil || intent.AreaMax != nil {
		add("area", "sqm")
	}
	if intent.BuiltAfter != nil {
		add("built", "year")
	}
	return tokens
}

// InferCategory maps an intent onto the corpus category it most resembles.
func InferCategory(intent *model.QueryIntent) string {
	if intent == nil {
		return CategoryBasic
	}
	switch {
	case intent.ConstraintCount() >= 4:
		return CategoryComplex
	case intent.PropertyType != nil && (*intent.PropertyType == model.PropertyCommercial || *intent.PropertyType == model.PropertyLand):
		return CategoryCommercial
	case intent.PropertyType != nil && *intent.PropertyType == model.PropertyLuxury,
		intent.PriceMin != nil && *intent.PriceMin >= luxuryPriceFloor:
		return CategoryLuxury
	case intent.PriceMax != nil && *intent.PriceMax <= budgetPriceCeiling:
		return CategoryBudget
	case intent.BuiltAfter != nil:
		return CategoryConstruction
	case intent.AreaMin != nil || intent.AreaMax != nil:
		return CategoryArea
	case len(intent.Features) > 0 || intent.Floor != nil:
		return CategoryFeatures
	case intent.Location != nil && intent.ConstraintCount() == 1:
		return CategoryLocation
	default:
		return CategoryBasic
	}
}
