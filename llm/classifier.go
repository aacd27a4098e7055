package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/crowell-labs/fedcheck/core"
)

// Classification is the document-type verdict for one analysis.
type Classification struct {
	DocumentType core.DocumentType `json:"document_type"`
	Confidence   float64           `json:"confidence"`
	Reasoning    string            `json:"reasoning"`
}

// Classifier labels de-identified documents with a type and
// confidence via the generation capability.
type Classifier struct {
	gen Generator
}

// NewClassifier creates a classifier over the given generator.
func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

const classifierSystemPrompt = "You review documents exchanged in US government " +
	"contracting. You classify each document and answer with strict JSON only."

// Classify returns the document type with confidence and reasoning.
// Unrecognized labels collapse to the unknown type with the model's
// reasoning preserved.
func (c *Classifier) Classify(ctx context.Context, text string) (*Classification, error) {
	prompt := buildClassifyPrompt(text)

	resp, err := c.gen.Generate(ctx, classifierSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("classification call: %w", err)
	}

	var raw struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
		Reasoning    string  `json:"reasoning"`
	}
	if err := decodeJSONResponse(resp, &raw); err != nil {
		return nil, fmt.Errorf("classification response: %w", err)
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &Classification{
		DocumentType: core.ParseDocumentType(raw.DocumentType),
		Confidence:   confidence,
		Reasoning:    strings.TrimSpace(raw.Reasoning),
	}, nil
}

func buildClassifyPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("Classify this document. Return JSON only.\n\nDocument:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(`Return a JSON object with this structure:
{
  "document_type": "company_profile | past_performance | pricing | unknown",
  "confidence": 0.9,
  "reasoning": "one or two sentences"
}

Rules:
- company_profile: entity registration data (UEI, CAGE, NAICS codes)
- past_performance: prior contract references with values and customers
- pricing: itemized price proposals
- Use "unknown" when none of the above fits
- Confidence is 0.0-1.0

Return ONLY the JSON, no other text.`)

	return sb.String()
}
