// Package pipeline sequences one document analysis end to end:
// classify, extract, retrieve, evaluate, generate prose. Each analysis
// runs independently; the only shared state is the read-only rule
// corpus, so many pipelines may run concurrently.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crowell-labs/fedcheck/core"
	"github.com/crowell-labs/fedcheck/llm"
)

// Status tracks an analysis through its lifecycle. Transitions are
// unidirectional; completed, completed_with_warnings, and failed are
// terminal.
type Status string

const (
	StatusProcessing            Status = "processing"
	StatusCompleted             Status = "completed"
	StatusCompletedWithWarnings Status = "completed_with_warnings"
	StatusFailed                Status = "failed"
)

// Analysis ties one request to everything the pipeline produced for
// it. Partial results computed before a failure stay attached for
// diagnostics.
type Analysis struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Status     Status `json:"status"`

	Classification   *llm.Classification  `json:"classification,omitempty"`
	Fields           *core.DocumentFields `json:"fields,omitempty"`
	RetrievedRuleIDs []string             `json:"retrieved_rule_ids,omitempty"`
	Checklist        []core.ChecklistItem `json:"checklist,omitempty"`
	Brief            string               `json:"brief,omitempty"`
	Email            string               `json:"email,omitempty"`

	// WarningReason records the classifier's reasoning verbatim when
	// the pipeline abstains below the confidence threshold.
	WarningReason string `json:"warning_reason,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository is the external persistence boundary. Implementations
// store analyses and the PII audit trail; the pipeline never reads
// them back.
type Repository interface {
	SaveAnalysis(ctx context.Context, a *Analysis) error
	UpdateAnalysis(ctx context.Context, a *Analysis) error
	SavePIIAudit(ctx context.Context, documentID string, matches []core.PIIMatch) error
}

// Defaults for pipeline tuning knobs.
const (
	DefaultConfidenceThreshold = 0.8
	DefaultTopN                = 3
)

// Pipeline orchestrates the analysis stages over an injected generator,
// corpus, and repository.
type Pipeline struct {
	classifier *llm.Classifier
	extractor  *llm.Extractor
	prose      *llm.ProseWriter
	retriever  *core.Retriever
	evaluator  *core.Evaluator
	repo       Repository
	log        *zap.Logger

	confidenceThreshold float64
	topN                int
}

// Option tunes a Pipeline.
type Option func(*Pipeline)

// WithConfidenceThreshold overrides the abstention threshold.
func WithConfidenceThreshold(t float64) Option {
	return func(p *Pipeline) { p.confidenceThreshold = t }
}

// WithTopN overrides how many rules retrieval surfaces.
func WithTopN(n int) Option {
	return func(p *Pipeline) { p.topN = n }
}

// New builds a pipeline. repo may be nil for callers that keep results
// in memory; log may be nil.
func New(gen llm.Generator, corpus *core.Corpus, repo Repository, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		classifier:          llm.NewClassifier(gen),
		extractor:           llm.NewExtractor(gen),
		prose:               llm.NewProseWriter(gen),
		retriever:           core.NewRetriever(corpus),
		evaluator:           core.NewEvaluator(corpus),
		repo:                repo,
		log:                 log,
		confidenceThreshold: DefaultConfidenceThreshold,
		topN:                DefaultTopN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest de-identifies raw document text and hands the audit trail to
// the repository exactly once. The returned result's Text is what all
// later stages see; the raw text goes no further.
func (p *Pipeline) Ingest(ctx context.Context, documentID, text string) (*core.RedactionResult, error) {
	result, err := core.Redact(text)
	if err != nil {
		return nil, fmt.Errorf("redaction: %w", err)
	}

	if p.repo != nil {
		if err := p.repo.SavePIIAudit(ctx, documentID, result.Matches); err != nil {
			return nil, fmt.Errorf("persist audit trail: %w", err)
		}
	}

	p.log.Info("document ingested",
		zap.String("document_id", documentID),
		zap.Int("pii_matches", result.Count))

	return result, nil
}

// Analyze runs the pipeline over de-identified text. On abstention the
// analysis completes with warnings and no checklist. On any stage
// failure the analysis is marked failed, the triggering error message
// is recorded, and the error is returned alongside the partial record.
func (p *Pipeline) Analyze(ctx context.Context, documentID, redactedText string) (*Analysis, error) {
	now := time.Now()
	a := &Analysis{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     StatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.repo != nil {
		if err := p.repo.SaveAnalysis(ctx, a); err != nil {
			return nil, fmt.Errorf("persist analysis: %w", err)
		}
	}

	// 1. Classify
	classification, err := p.classifier.Classify(ctx, redactedText)
	if err != nil {
		return p.fail(ctx, a, fmt.Errorf("classification: %w", err))
	}
	a.Classification = classification

	p.log.Info("document classified",
		zap.String("analysis_id", a.ID),
		zap.String("document_type", string(classification.DocumentType)),
		zap.Float64("confidence", classification.Confidence))

	if classification.Confidence < p.confidenceThreshold {
		// Abstention, not an error: stop before extraction.
		a.Status = StatusCompletedWithWarnings
		a.WarningReason = classification.Reasoning
		p.finish(ctx, a)
		return a, nil
	}

	// 2. Extract fields
	fields, err := p.extractor.Extract(ctx, classification.DocumentType, redactedText)
	if err != nil {
		return p.fail(ctx, a, fmt.Errorf("extraction: %w", err))
	}
	a.Fields = fields

	// 3. Retrieve rules
	retrieved := p.retriever.Retrieve(buildQuery(classification.DocumentType, fields), p.topN)
	for _, r := range retrieved {
		a.RetrievedRuleIDs = append(a.RetrievedRuleIDs, r.Rule.ID)
	}

	// 4. Evaluate compliance
	a.Checklist = p.evaluator.Evaluate(classification.DocumentType, *fields, retrieved)

	// 5. Generate prose outputs
	brief, err := p.prose.NegotiationBrief(ctx, classification.DocumentType, fields, a.Checklist)
	if err != nil {
		return p.fail(ctx, a, fmt.Errorf("brief generation: %w", err))
	}
	a.Brief = brief

	email, err := p.prose.ClientEmail(ctx, classification.DocumentType, fields, a.Checklist)
	if err != nil {
		return p.fail(ctx, a, fmt.Errorf("email generation: %w", err))
	}
	a.Email = email

	a.Status = StatusCompleted
	p.finish(ctx, a)

	p.log.Info("analysis completed",
		zap.String("analysis_id", a.ID),
		zap.Int("checklist_items", len(a.Checklist)),
		zap.Strings("cited_rules", a.RetrievedRuleIDs))

	return a, nil
}

func (p *Pipeline) fail(ctx context.Context, a *Analysis, err error) (*Analysis, error) {
	a.Status = StatusFailed
	a.FailureReason = err.Error()
	p.finish(ctx, a)
	p.log.Error("analysis failed",
		zap.String("analysis_id", a.ID),
		zap.Error(err))
	return a, err
}

// finish stamps and persists a terminal analysis. Persistence errors
// at this point are logged, not surfaced; the in-memory record is
// already authoritative for the caller.
func (p *Pipeline) finish(ctx context.Context, a *Analysis) {
	a.UpdatedAt = time.Now()
	if p.repo == nil {
		return
	}
	if err := p.repo.UpdateAnalysis(ctx, a); err != nil {
		p.log.Error("failed to persist analysis update",
			zap.String("analysis_id", a.ID),
			zap.Error(err))
	}
}

// buildQuery composes the retrieval query from the document type and
// the extracted-field JSON. Marshaling a struct keeps key order stable,
// which keeps retrieval deterministic.
func buildQuery(docType core.DocumentType, fields *core.DocumentFields) string {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return string(docType)
	}
	return string(docType) + " " + string(fieldsJSON)
}
