// Package fedcheck de-identifies government-contracting documents and
// evaluates their extracted fields against a fixed compliance rule set.
// The root package wires default components together; the subpackages
// (core, llm, pipeline, store) are usable on their own.
package fedcheck

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crowell-labs/fedcheck/core"
	"github.com/crowell-labs/fedcheck/llm"
	"github.com/crowell-labs/fedcheck/pipeline"
)

// RedactText de-identifies text with the built-in PII patterns.
func RedactText(text string) (*core.RedactionResult, error) {
	return core.Redact(text)
}

// RetrieveRules ranks the default corpus against a query.
func RetrieveRules(query string, topN int) []core.RetrievedRule {
	return core.NewRetriever(core.DefaultCorpus()).Retrieve(query, topN)
}

// EvaluateFields judges extracted fields against the default corpus.
func EvaluateFields(docType core.DocumentType, fields core.DocumentFields) []core.ChecklistItem {
	return core.NewEvaluator(core.DefaultCorpus()).Evaluate(docType, fields, nil)
}

// AnalyzeDocument runs the full pipeline over raw document text: redact,
// classify, extract, retrieve, evaluate, generate prose. serverPath
// locates the stdio model server (empty consults the environment);
// cfg may be nil for defaults. Results are kept in memory only; use
// AnalyzeDocumentWithRepository to persist.
func AnalyzeDocument(ctx context.Context, text, serverPath string, cfg *llm.Config) (*pipeline.Analysis, error) {
	return AnalyzeDocumentWithRepository(ctx, text, serverPath, cfg, nil, nil)
}

// AnalyzeDocumentWithRepository is AnalyzeDocument with an explicit
// repository and logger.
func AnalyzeDocumentWithRepository(ctx context.Context, text, serverPath string, cfg *llm.Config, repo pipeline.Repository, log *zap.Logger) (*pipeline.Analysis, error) {
	gen, err := llm.NewMCPGenerator(serverPath, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	pipe := pipeline.New(gen, core.DefaultCorpus(), repo, log)

	documentID := uuid.NewString()
	redacted, err := pipe.Ingest(ctx, documentID, text)
	if err != nil {
		return nil, err
	}

	return pipe.Analyze(ctx, documentID, redacted.Text)
}
