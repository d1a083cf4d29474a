// Package corpus loads the embedded few-shot training examples, the prompt
// pitfalls and the sample queries shown to users.
package corpus

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

//go:embed data/examples.json
var examplesJSON []byte

//go:embed data/schema.json
var schemaJSON []byte

// Pitfall is a common mistake shown to the generator with its correction.
type Pitfall struct {
	Bad     string `json:"bad"`
	Problem string `json:"problem"`
	Better  string `json:"better"`
}

// Corpus is read-only after Load.
type Corpus struct {
	Version  int                     `json:"version"`
	Examples []model.TrainingExample `json:"examples"`
	Pitfalls []Pitfall               `json:"pitfalls"`
	Samples  []model.SampleQuery     `json:"samples"`
}

// Load parses the embedded corpus after validating it against its schema.
func Load() (*Corpus, error) {
	return Parse(examplesJSON)
}

// Parse validates and decodes a corpus document.
func Parse(doc []byte) (*Corpus, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("corpus validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("corpus validation failed: %v", errs)
	}

	var c Corpus
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return &c, nil
}
