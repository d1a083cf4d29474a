package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NunoFAntunes/realtor-buddy/internal/corpus"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
)

// SchemaDocs supplies the schema documentation embedded in prompts.
type SchemaDocs interface {
	Prose() []string
	MappingRows() []string
}

// PromptBuilder assembles generation prompts within a character budget.
type PromptBuilder struct {
	maxChars     int
	mapper       *schema.Mapper
	instructions []string
}

func NewPromptBuilder(mapper *schema.Mapper, pitfalls []corpus.Pitfall, maxChars int) *PromptBuilder {
	table := mapper.Catalog().Table
	lines := []string{
		"You are a PostgreSQL expert for a Croatian real estate database.",
		"Translate the user's search into exactly one read-only SQL query.",
		"Rules:",
		"- Answer with a single SELECT statement and nothing else.",
		fmt.Sprintf("- Query only the table %s and only the columns documented below.", table),
		"- Never modify data. No INSERT, UPDATE, DELETE, DDL, comments, UNION or multiple statements.",
		"- Match text with ILIKE '%term%'. Stored values are Croatian ('da'/'ne').",
		"- Always end with a LIMIT clause.",
	}
	if len(pitfalls) > 0 {
		lines = append(lines, "Common mistakes:")
		for _, p := range pitfalls {
			lines = append(lines, fmt.Sprintf("- Wrong: %s (%s) Better: %s", p.Bad, p.Problem, p.Better))
		}
	}
	return &PromptBuilder{maxChars: maxChars, mapper: mapper, instructions: lines}
}

type section struct {
	header string
	items  []string
}

// cost is the rune length the section adds to the prompt, including the
// blank line that follows it.
func (s section) cost(n int) int {
	if n == 0 {
		return 0
	}
	c := utf8.RuneCountInString(s.header) + 2
	for _, item := range s.items[:n] {
		c += utf8.RuneCountInString(item) + 1
	}
	return c
}

func (s section) write(b *strings.Builder, n int) {
	if n == 0 {
		return
	}
	b.WriteString(s.header)
	b.WriteByte('\n')
	for _, item := range s.items[:n] {
		b.WriteString(item)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

// fit returns how many leading items of s fit into budget.
func (s section) fit(budget int) int {
	n := len(s.items)
	for n > 0 && s.cost(n) > budget {
		n--
	}
	return n
}

// Build renders the prompt. Instructions and the request block are always
// kept whole. Over budget, schema prose gives way first, then mapping rows,
// then examples, each trimmed from its end.
func (p *PromptBuilder) Build(intent *model.QueryIntent, examples []model.TrainingExample, docs SchemaDocs, rawQuery, feedback string) string {
	instructions := section{header: "### Instructions", items: p.instructions}
	request := section{header: "### Request", items: p.requestLines(intent, rawQuery, feedback)}
	exampleSec := section{header: "### Examples", items: renderExamples(examples)}
	mappingSec := section{header: "### Column mapping", items: docs.MappingRows()}
	proseSec := section{header: "### Schema", items: docs.Prose()}

	budget := p.maxChars - instructions.cost(len(instructions.items)) - request.cost(len(request.items))
	nExamples := exampleSec.fit(budget)
	budget -= exampleSec.cost(nExamples)
	nMapping := mappingSec.fit(budget)
	budget -= mappingSec.cost(nMapping)
	nProse := proseSec.fit(budget)

	var b strings.Builder
	instructions.write(&b, len(instructions.items))
	proseSec.write(&b, nProse)
	mappingSec.write(&b, nMapping)
	exampleSec.write(&b, nExamples)
	request.write(&b, len(request.items))
	return strings.TrimRight(b.String(), "\n")
}

func renderExamples(examples []model.TrainingExample) []string {
	out := make([]string, 0, len(examples))
	for _, ex := range examples {
		out = append(out, fmt.Sprintf("Question: %s\nSQL: %s", ex.Query, ex.SQL))
	}
	return out
}

func (p *PromptBuilder) requestLines(intent *model.QueryIntent, rawQuery, feedback string) []string {
	lines := []string{"User search: " + rawQuery}
	if criteria := describeIntent(intent); len(criteria) > 0 {
		lines = append(lines, "Detected criteria:")
		lines = append(lines, criteria...)
	}
	if intent != nil {
		if preds := intentPredicates(p.mapper, intent, nil); len(preds) > 0 {
			lines = append(lines, "Suggested conditions: "+strings.Join(preds, " AND "))
		}
	}
	if feedback != "" {
		lines = append(lines,
			"Your previous answer was rejected: "+feedback,
			"Write a corrected query that follows every rule above.",
		)
	}
	return append(lines, "SQL:")
}

func describeIntent(intent *model.QueryIntent) []string {
	if intent == nil {
		return nil
	}
	var out []string
	if intent.PropertyType != nil {
		out = append(out, "- property type: "+string(*intent.PropertyType))
	}
	if intent.Location != nil {
		out = append(out, "- location: "+*intent.Location)
	}
	if intent.PriceMin != nil {
		out = append(out, fmt.Sprintf("- minimum price: %s EUR", formatNumber(*intent.PriceMin)))
	}
	if intent.PriceMax != nil {
		out = append(out, fmt.Sprintf("- maximum price: %s EUR", formatNumber(*intent.PriceMax)))
	}
	if len(intent.Rooms) > 0 {
		out = append(out, "- bedrooms: "+strings.Join(intent.Rooms, ", "))
	}
	if len(intent.Features) > 0 {
		out = append(out, "- features: "+strings.Join(intent.Features, ", "))
	}
	if intent.Floor != nil {
		out = append(out, "- floor: "+*intent.Floor)
	}
	if intent.AreaMin != nil {
		out = append(out, fmt.Sprintf("- minimum area: %s m2", formatNumber(*intent.AreaMin)))
	}
	if intent.AreaMax != nil {
		out = append(out, fmt.Sprintf("- maximum area: %s m2", formatNumber(*intent.AreaMax)))
	}
	if intent.BuiltAfter != nil {
		out = append(out, fmt.Sprintf("- built in or after: %d", *intent.BuiltAfter))
	}
	return out
}
