package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/crowell-labs/fedcheck/core"
)

// Extractor pulls type-specific structured fields out of a
// de-identified document via the generation capability.
type Extractor struct {
	gen Generator
}

// NewExtractor creates an extractor over the given generator.
func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

const extractorSystemPrompt = "You extract structured fields from US government " +
	"contracting documents. You answer with strict JSON only, never prose."

// fieldSpecs describes, per document type, the JSON shape the model is
// asked to return. The shapes mirror core.DocumentFields tags.
var fieldSpecs = map[core.DocumentType]string{
	core.DocCompanyProfile: `{
  "uei": "12-character identifier or empty string",
  "cage_code": "CAGE code or empty string",
  "naics_codes": ["six-digit NAICS codes"]
}`,
	core.DocPastPerformance: `{
  "contract_value": "total value, e.g. "$1,200,000.00" or a number",
  "customer": "contracting agency or empty string",
  "period_of_performance": "e.g. 2021-2024 or empty string"
}`,
	core.DocPricing: `{
  "line_items": [
    {"description": "item description", "quantity": 1, "unit_price": "$100.00"}
  ]
}`,
}

// Extract returns the field map for the given document type. Fields
// the document does not contain come back zero-valued; the evaluator
// turns gaps into verdicts, not errors.
func (e *Extractor) Extract(ctx context.Context, docType core.DocumentType, text string) (*core.DocumentFields, error) {
	spec, ok := fieldSpecs[docType]
	if !ok {
		return nil, fmt.Errorf("no extraction defined for document type %q", docType)
	}

	prompt := buildExtractPrompt(docType, spec, text)

	resp, err := e.gen.Generate(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	var fields core.DocumentFields
	if err := decodeJSONResponse(resp, &fields); err != nil {
		return nil, fmt.Errorf("extraction response: %w", err)
	}
	return &fields, nil
}

func buildExtractPrompt(docType core.DocumentType, spec, text string) string {
	var sb strings.Builder

	sb.WriteString("Extract fields from this ")
	sb.WriteString(string(docType))
	sb.WriteString(" document. Return JSON only.\n\nDocument:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nReturn a JSON object with this structure:\n")
	sb.WriteString(spec)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Omit keys you cannot find rather than guessing values\n")
	sb.WriteString("- Keep currency strings exactly as written in the document\n")
	sb.WriteString("- Return ONLY the JSON, no other text.")

	return sb.String()
}
