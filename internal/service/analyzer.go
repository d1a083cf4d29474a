package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
	"github.com/NunoFAntunes/realtor-buddy/internal/utils"
)

// RoomPolicy decides which of several conflicting room counts is kept.
type RoomPolicy int

const (
	// RoomLastMatch keeps the trailing qualifier.
	RoomLastMatch RoomPolicy = iota
	RoomFirstMatch
)

// ParseRoomPolicy accepts "last" and "first".
func ParseRoomPolicy(s string) RoomPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "first") {
		return RoomFirstMatch
	}
	return RoomLastMatch
}

type phraseTerm struct {
	phrase string // folded
	value  string
}

// Analyzer extracts a QueryIntent from free text with deterministic pattern
// matching. It is immutable and safe for concurrent use.
type Analyzer struct {
	policy    RoomPolicy
	now       func() time.Time
	locations []phraseTerm // longest first
	types     []phraseTerm // longest first
	features  map[string][]string
	featOrder []string
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

func WithRoomPolicy(p RoomPolicy) AnalyzerOption {
	return func(a *Analyzer) { a.policy = p }
}

// WithClock fixes the clock used to resolve "new construction".
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer builds the dictionaries from the mapper's catalog.
func NewAnalyzer(mapper *schema.Mapper, opts ...AnalyzerOption) *Analyzer {
	cat := mapper.Catalog()
	a := &Analyzer{
		policy:   RoomLastMatch,
		now:      time.Now,
		features: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, loc := range cat.Locations {
		for _, form := range loc.Forms {
			a.locations = append(a.locations, phraseTerm{phrase: schema.Fold(form), value: loc.Display})
		}
	}
	sortLongestFirst(a.locations)

	for _, pt := range model.PropertyTypes {
		for _, term := range cat.PropertyTerms[pt] {
			a.types = append(a.types, phraseTerm{phrase: schema.Fold(term), value: string(pt)})
		}
	}
	sortLongestFirst(a.types)

	for _, f := range cat.Features {
		folded := make([]string, 0, len(f.Synonyms))
		for _, s := range f.Synonyms {
			folded = append(folded, schema.Fold(s))
		}
		a.features[f.Name] = utils.LongestFirst(folded)
		a.featOrder = append(a.featOrder, f.Name)
	}
	return a
}

func sortLongestFirst(terms []phraseTerm) {
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i].phrase) > len(terms[j].phrase)
	})
}

// Analyze returns the intent for text. Only blank input is an error; text
// with no recognisable constraint yields an empty intent.
func (a *Analyzer) Analyze(text string) (*model.QueryIntent, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyQuery
	}
	folded := schema.Fold(text)
	intent := &model.QueryIntent{}

	a.detectPrice(folded, intent)
	a.detectLocation(folded, intent)
	a.detectRooms(folded, intent)
	a.detectPropertyType(folded, intent)
	a.detectFeatures(folded, intent)
	a.detectFloor(folded, intent)
	a.detectBuiltAfter(folded, intent)

	return intent, nil
}

func (a *Analyzer) detectPrice(text string, intent *model.QueryIntent) {
	nums := scanNumbers(text)
	for i := 0; i < len(nums); i++ {
		n := nums[i]
		ranged := i+1 < len(nums) && isRange(text, n, nums[i+1])
		if ranged && mixedKinds(n, nums[i+1]) {
			// "80 m2 do 200000 eura": the connector bounds the price, the
			// leading area is a floor.
			if n.area && !n.plus && direction(text[:n.start]) == dirNone {
				intent.AreaMin = floatPtr(n.value)
				continue
			}
		} else if ranged {
			lo, hi := n, nums[i+1]
			if lo.mult == 1 && hi.mult > 1 && lo.value*hi.mult <= hi.value {
				lo.value *= hi.mult
			}
			switch {
			case lo.area || hi.area:
				intent.AreaMin, intent.AreaMax = floatPtr(lo.value), floatPtr(hi.value)
				i++
				continue
			case lo.isPrice() || hi.isPrice():
				intent.PriceMin, intent.PriceMax = floatPtr(lo.value), floatPtr(hi.value)
				i++
				continue
			}
		}

		dir := direction(text[:n.start])
		switch {
		case n.area:
			switch {
			case n.plus || dir == dirLower:
				intent.AreaMin = floatPtr(n.value)
			case dir == dirUpper:
				intent.AreaMax = floatPtr(n.value)
			}
		case n.isPrice():
			if dir == dirLower {
				intent.PriceMin = floatPtr(n.value)
			} else {
				// an undirected amount reads as a budget
				intent.PriceMax = floatPtr(n.value)
			}
		}
	}

	if intent.PriceMin != nil && intent.PriceMax != nil && *intent.PriceMin > *intent.PriceMax {
		intent.PriceMin, intent.PriceMax = intent.PriceMax, intent.PriceMin
	}
	if intent.AreaMin != nil && intent.AreaMax != nil && *intent.AreaMin > *intent.AreaMax {
		intent.AreaMin, intent.AreaMax = intent.AreaMax, intent.AreaMin
	}
}

// mixedKinds reports whether one side of a pair is an area and the other
// money, so the two cannot form one range.
func mixedKinds(a, b amount) bool {
	return (a.area && b.isPrice()) || (b.area && a.isPrice())
}

// detectLocation keeps the leftmost dictionary match, preferring the longer
// form at the same position.
func (a *Analyzer) detectLocation(text string, intent *model.QueryIntent) {
	best, bestLen := -1, 0
	var display string
	for _, t := range a.locations {
		i := utils.FindPhrase(text, t.phrase)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(t.phrase) > bestLen) {
			best, bestLen, display = i, len(t.phrase), t.value
		}
	}
	if best >= 0 {
		intent.Location = &display
	}
}

type roomMatch struct {
	pos   int
	rooms []string
}

func (a *Analyzer) detectRooms(text string, intent *model.QueryIntent) {
	var matches []roomMatch
	taken := make([]bool, len(text))

	claim := func(start, end int) bool {
		for i := start; i < end; i++ {
			if taken[i] {
				return false
			}
		}
		for i := start; i < end; i++ {
			taken[i] = true
		}
		return true
	}

	for _, m := range roomRangeRe.FindAllStringSubmatchIndex(text, -1) {
		lo, _ := strconv.Atoi(text[m[2]:m[3]])
		hi, _ := strconv.Atoi(text[m[4]:m[5]])
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo > 0 && claim(m[0], m[1]) {
			matches = append(matches, roomMatch{pos: m[0], rooms: roomRange(lo, hi)})
		}
	}
	for _, re := range []*regexp.Regexp{roomPlusRe, roomAtLeastRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			n, _ := strconv.Atoi(text[m[2]:m[3]])
			if n > 0 && claim(m[0], m[1]) {
				matches = append(matches, roomMatch{pos: m[0], rooms: roomsFrom(n)})
			}
		}
	}
	for _, m := range roomSingleRe.FindAllStringSubmatchIndex(text, -1) {
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		if n > 0 && claim(m[0], m[1]) {
			matches = append(matches, roomMatch{pos: m[0], rooms: []string{roomValue(n)}})
		}
	}
	for _, m := range roomWordRe.FindAllStringSubmatchIndex(text, -1) {
		if n := wordNumber(text[m[2]:m[3]]); n > 0 && claim(m[0], m[1]) {
			matches = append(matches, roomMatch{pos: m[0], rooms: []string{roomValue(n)}})
		}
	}
	for _, m := range roomCompoundRe.FindAllStringSubmatchIndex(text, -1) {
		if n := wordNumber(text[m[2]:m[3]]); n > 0 && claim(m[0], m[1]) {
			matches = append(matches, roomMatch{pos: m[0], rooms: []string{roomValue(n)}})
		}
	}
	for _, m := range studioRe.FindAllStringIndex(text, -1) {
		if claim(m[0], m[1]) {
			matches = append(matches, roomMatch{pos: m[0], rooms: []string{"1"}})
		}
	}

	if len(matches) == 0 {
		return
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	chosen := matches[len(matches)-1]
	if a.policy == RoomFirstMatch {
		chosen = matches[0]
	}
	intent.SetRooms(chosen.rooms)
}

// detectPropertyType masks matched phrases so that "commercial land" does
// not also count as commercial. Luxury combined with one other type yields
// the other type; any other mix is ambiguous and left unset.
func (a *Analyzer) detectPropertyType(text string, intent *model.QueryIntent) {
	found := make(map[model.PropertyType]bool)
	masked := text
	for _, t := range a.types {
		for {
			var ok bool
			masked, ok = utils.MaskPhrase(masked, t.phrase)
			if !ok {
				break
			}
			found[model.PropertyType(t.value)] = true
		}
	}

	if len(found) == 2 && found[model.PropertyLuxury] {
		delete(found, model.PropertyLuxury)
	}
	if len(found) != 1 {
		return
	}
	for pt := range found {
		intent.PropertyType = &pt
	}
}

func (a *Analyzer) detectFeatures(text string, intent *model.QueryIntent) {
	for _, name := range a.featOrder {
		for _, syn := range a.features[name] {
			i := utils.FindPhrase(text, syn)
			if i < 0 {
				continue
			}
			if !negated(text[:i]) {
				intent.AddFeature(name)
			}
			break
		}
	}
}

func (a *Analyzer) detectFloor(text string, intent *model.QueryIntent) {
	for _, f := range floorTerms {
		if f.re.MatchString(text) {
			v := f.value
			intent.Floor = &v
			return
		}
	}
	if m := floorNumberRe.FindStringSubmatch(text); m != nil {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		if n == "" {
			n = strconv.Itoa(wordNumber(m[3]))
		}
		if n != "0" {
			intent.Floor = &n
		}
	}
}

func (a *Analyzer) detectBuiltAfter(text string, intent *model.QueryIntent) {
	var year int
	for _, re := range []*regexp.Regexp{builtYearRe, yearOnwardsRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			from := m[0] - 24
			if from < 0 {
				from = 0
			}
			if renovationRe.MatchString(text[from:m[0]]) || followedByUnit(text[m[3]:]) {
				continue
			}
			year, _ = strconv.Atoi(text[m[2]:m[3]])
		}
	}
	if year == 0 && newBuildRe.MatchString(text) {
		year = a.now().Year() - 5
	}
	if year > 0 {
		intent.BuiltAfter = &year
	}
}

func roomValue(n int) string {
	if n >= 5 {
		return "5+"
	}
	return strconv.Itoa(n)
}

// roomsFrom expands "N+" into the stored values, e.g. 4+ -> {"4", "5+"}.
func roomsFrom(n int) []string {
	if n >= 5 {
		return []string{"5+"}
	}
	out := make([]string, 0, 6-n)
	for i := n; i <= 4; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return append(out, "5+")
}

func roomRange(lo, hi int) []string {
	var out []string
	for i := lo; i <= hi && i <= 5; i++ {
		out = append(out, roomValue(i))
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}
