package service

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/NunoFAntunes/realtor-buddy/internal/utils"
)

const roomNoun = `(?:bedrooms?|beds?|bdrms?|br|rooms?|sob[aeu]|sobn\w*|spavac\w+)`

var (
	numberRe    = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	groupedRe   = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
	areaUnitRe  = regexp.MustCompile(`^\s*(?:m2|m²|m\^2|sqm|sq\.?\s?m|square\s+met(?:er|re)s?|kvadrat\w*|kvm)`)
	magnitudeRe = regexp.MustCompile(`^\s*(k|m|mil|mio|milijun\w*|million\w*|tis|tisuc\w*|thousand)\b`)
	currencyRe  = regexp.MustCompile(`^\s*(?:€|eur\w*|kn\b|kuna\w*)`)
	plusRe      = regexp.MustCompile(`^\s*\+`)
	currencyEnd = regexp.MustCompile(`(?:€|\beur|\beuro|\beura)\s*$`)

	roomRangeRe    = regexp.MustCompile(`\b(\d{1,2})\s*(?:-|–|to|do)\s*(\d{1,2})[\s-]*` + roomNoun + `\b`)
	roomPlusRe     = regexp.MustCompile(`\b(\d{1,2})\s*(?:\+|or more|ili vise)[\s-]*` + roomNoun + `\b`)
	roomAtLeastRe  = regexp.MustCompile(`\b(?:at least|minimum|min|najmanje)\s+(\d{1,2})[\s-]*` + roomNoun + `\b`)
	roomSingleRe   = regexp.MustCompile(`\b(\d{1,2})[\s-]*` + roomNoun + `\b`)
	roomWordRe     = regexp.MustCompile(`\b(one|two|three|four|five|six|jedan|jedna|jednu|dva|dvije|tri|cetiri|pet|sest)[\s-]*` + roomNoun + `\b`)
	roomCompoundRe = regexp.MustCompile(`\b(jedno|dvo|tro|cetvero|cetiri|petero)sob\w*`)
	studioRe       = regexp.MustCompile(`\b(?:studios?|garsonijer\w*|garsonjer\w*)\b`)

	floorNumberRe = regexp.MustCompile(`\b(?:(\d{1,2})(?:st|nd|rd|th)?\s+floor|(\d{1,2})\.?\s*kat\w*|(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|prvi|prvom|drugi|drugom|treci|trecem|cetvrti|cetvrtom|peti|petom)\s+(?:floor|kat\w*))\b`)

	builtYearRe   = regexp.MustCompile(`\b(?:built after|built since|built in|built from|built|izgraden\w*(?:\s+(?:nakon|poslije|od))?|newer than|after|since|from|nakon|poslije|od)\s+(?:the\s+)?(?:year\s+|godine\s+)?((?:19|20)\d{2})\b`)
	yearOnwardsRe = regexp.MustCompile(`\b((?:19|20)\d{2})\s*(?:\+|onwards|or newer|and newer|or later|i novije|nadalje)`)
	renovationRe  = regexp.MustCompile(`renov|adapt|obnov`)
	newBuildRe    = regexp.MustCompile(`\b(?:novogradnj\w*|new construction|new build\w*|newly built|new development)\b`)
)

var floorTerms = []struct {
	re    *regexp.Regexp
	value string
}{
	{regexp.MustCompile(`\b(?:raised ground floor|high ground floor|visoko prizemlje|visokom prizemlju)\b`), "raised_ground_floor"},
	{regexp.MustCompile(`\b(?:ground[\s-]floor|prizemlj\w*)\b`), "ground_floor"},
	{regexp.MustCompile(`\b(?:semi[\s-]basement|suteren\w*|souterrain)\b`), "semi_basement"},
	{regexp.MustCompile(`\b(?:basement|podrum\w*)\b`), "basement"},
	{regexp.MustCompile(`\b(?:attics?|loft|penthouse\w*|potkrovlj\w*)\b`), "attic"},
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"jedan": 1, "jedna": 1, "jednu": 1, "jedno": 1,
	"dva": 2, "dvije": 2, "dvo": 2,
	"tri": 3, "tro": 3,
	"cetiri": 4, "cetvero": 4,
	"pet": 5, "petero": 5,
	"sest":  6,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"prvi": 1, "prvom": 1, "drugi": 2, "drugom": 2, "treci": 3, "trecem": 3,
	"cetvrti": 4, "cetvrtom": 4, "peti": 5, "petom": 5,
}

func wordNumber(w string) int {
	return numberWords[w]
}

type dir int

const (
	dirNone dir = iota
	dirUpper
	dirLower
)

type directionWord struct {
	word string
	dir  dir
}

var directionWords = func() []directionWord {
	words := []directionWord{
		{"under", dirUpper}, {"below", dirUpper}, {"less than", dirUpper}, {"cheaper than", dirUpper},
		{"max", dirUpper}, {"maximum", dirUpper}, {"up to", dirUpper}, {"at most", dirUpper},
		{"no more than", dirUpper}, {"budget", dirUpper}, {"budget of", dirUpper}, {"within", dirUpper},
		{"do", dirUpper}, {"ispod", dirUpper}, {"manje od", dirUpper}, {"najvise", dirUpper},
		{"jeftinije od", dirUpper}, {"budzet", dirUpper}, {"<", dirUpper}, {"<=", dirUpper},
		{"over", dirLower}, {"above", dirLower}, {"more than", dirLower}, {"min", dirLower},
		{"minimum", dirLower}, {"at least", dirLower}, {"from", dirLower}, {"starting at", dirLower},
		{"starting from", dirLower}, {"od", dirLower}, {"iznad", dirLower}, {"vise od", dirLower},
		{"preko", dirLower}, {"najmanje", dirLower}, {">", dirLower}, {">=", dirLower},
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i].word) > len(words[j].word) })
	return words
}()

// direction reads the bound implied by the words just before a number.
func direction(prefix string) dir {
	p := strings.TrimSpace(prefix)
	p = strings.TrimSpace(currencyEnd.ReplaceAllString(p, ""))
	for _, w := range directionWords {
		if !strings.HasSuffix(p, w.word) {
			continue
		}
		rest := p[:len(p)-len(w.word)]
		if w.word[0] == '<' || w.word[0] == '>' || rest == "" || strings.HasSuffix(rest, " ") {
			return w.dir
		}
	}
	return dirNone
}

var negators = map[string]bool{"no": true, "without": true, "bez": true, "nema": true, "not": true}

func negated(prefix string) bool {
	words := utils.Words(prefix)
	for i := len(words) - 1; i >= 0 && i >= len(words)-2; i-- {
		if negators[words[i]] {
			return true
		}
		if words[i] != "a" && words[i] != "an" && words[i] != "any" {
			break
		}
	}
	return false
}

type amount struct {
	start, end int
	value      float64
	mult       float64
	currency   bool
	area       bool
	plus       bool
	grouped    bool
}

func (n amount) yearLike() bool {
	return !n.currency && n.mult == 1 && !n.grouped &&
		n.value >= 1900 && n.value <= 2100 && n.value == math.Trunc(n.value)
}

// isPrice reports whether the number reads as money: it carries a currency
// or magnitude, or is large enough while not being a year or an area.
func (n amount) isPrice() bool {
	if n.area {
		return false
	}
	if n.currency || n.mult > 1 {
		return true
	}
	return n.value >= 1000 && !n.yearLike()
}

func scanNumbers(text string) []amount {
	var out []amount
	lastEnd := 0
	for _, loc := range numberRe.FindAllStringIndex(text, -1) {
		// digits glued to a word, as in "m2" or "a3", are not amounts
		if loc[0] < lastEnd || (loc[0] > 0 && isLetter(text[loc[0]-1])) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		n := amount{start: loc[0], end: loc[1], mult: 1}
		n.value, n.grouped = parseAmount(raw)

		rest := text[n.end:]
		if m := areaUnitRe.FindString(rest); m != "" {
			n.area = true
			n.end += len(m)
		} else {
			if m := magnitudeRe.FindStringSubmatch(rest); m != nil && magnitudeFits(m[1], n.value) {
				n.mult = magnitude(m[1])
				n.end += len(m[0])
			}
			if m := currencyRe.FindString(text[n.end:]); m != "" {
				n.currency = true
				n.end += len(m)
			}
			if currencyEnd.MatchString(text[:n.start]) {
				n.currency = true
			}
		}
		if m := plusRe.FindString(text[n.end:]); m != "" {
			n.plus = true
			n.end += len(m)
		}
		n.value *= n.mult
		lastEnd = n.end
		out = append(out, n)
	}
	return out
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func parseAmount(raw string) (float64, bool) {
	if groupedRe.MatchString(raw) {
		v, _ := strconv.ParseFloat(strings.NewReplacer(".", "", ",", "").Replace(raw), 64)
		return v, true
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		v, _ = strconv.ParseFloat(strings.NewReplacer(".", "", ",", "").Replace(raw), 64)
	}
	return v, false
}

func magnitude(word string) float64 {
	switch {
	case word == "k" || strings.HasPrefix(word, "tis") || word == "thousand":
		return 1e3
	default:
		return 1e6
	}
}

// "80 m" is more likely metres than eighty million.
func magnitudeFits(word string, value float64) bool {
	if word == "m" {
		return value < 100
	}
	return true
}

var groupTailRe = regexp.MustCompile(`^[.,]\d`)

// followedByUnit reports whether a number is money or an area, not a year.
func followedByUnit(rest string) bool {
	return groupTailRe.MatchString(rest) || areaUnitRe.MatchString(rest) ||
		magnitudeRe.MatchString(rest) || currencyRe.MatchString(rest)
}

func isRange(text string, lo, hi amount) bool {
	gap := strings.TrimSpace(text[lo.end:hi.start])
	switch gap {
	case "-", "–", "to", "do":
		return true
	case "and", "i":
		before := strings.TrimSpace(text[:lo.start])
		before = strings.TrimSpace(currencyEnd.ReplaceAllString(before, ""))
		return strings.HasSuffix(before, "between") || strings.HasSuffix(before, "izmedu")
	}
	return false
}
