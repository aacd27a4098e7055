package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crowell-labs/fedcheck/core"
)

// ProseWriter turns a finished checklist into the two human-readable
// outputs: a negotiation brief and a client email.
type ProseWriter struct {
	gen Generator
}

// NewProseWriter creates a prose writer over the given generator.
func NewProseWriter(gen Generator) *ProseWriter {
	return &ProseWriter{gen: gen}
}

const proseSystemPrompt = "You are a contracts analyst writing for a business " +
	"audience. You write clear, factual prose grounded only in the data provided."

// NegotiationBrief drafts an internal brief from the checklist and
// extracted fields.
func (p *ProseWriter) NegotiationBrief(ctx context.Context, docType core.DocumentType, fields *core.DocumentFields, checklist []core.ChecklistItem) (string, error) {
	prompt, err := buildProsePrompt("an internal negotiation brief", docType, fields, checklist,
		"Cover the compliance posture, lead with the most severe findings, and suggest negotiation levers.")
	if err != nil {
		return "", err
	}

	out, err := p.gen.Generate(ctx, proseSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("brief generation: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ClientEmail drafts an email to the client summarizing findings and
// next steps.
func (p *ProseWriter) ClientEmail(ctx context.Context, docType core.DocumentType, fields *core.DocumentFields, checklist []core.ChecklistItem) (string, error) {
	prompt, err := buildProsePrompt("an email to the client", docType, fields, checklist,
		"Keep it short, plain-spoken, and end with the concrete items the client must fix.")
	if err != nil {
		return "", err
	}

	out, err := p.gen.Generate(ctx, proseSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("email generation: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func buildProsePrompt(kind string, docType core.DocumentType, fields *core.DocumentFields, checklist []core.ChecklistItem, guidance string) (string, error) {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	checklistJSON, err := json.Marshal(checklist)
	if err != nil {
		return "", fmt.Errorf("marshal checklist: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Write ")
	sb.WriteString(kind)
	sb.WriteString(" about a ")
	sb.WriteString(string(docType))
	sb.WriteString(" document that was reviewed for compliance.\n\n")
	sb.WriteString("Extracted fields:\n")
	sb.Write(fieldsJSON)
	sb.WriteString("\n\nCompliance checklist:\n")
	sb.Write(checklistJSON)
	sb.WriteString("\n\n")
	sb.WriteString(guidance)
	sb.WriteString("\nDo not invent facts beyond the data above.")

	return sb.String(), nil
}
