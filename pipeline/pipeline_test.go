package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowell-labs/fedcheck/core"
)

// scriptedGenerator feeds canned model responses to the pipeline in
// call order: classify, extract, brief, email.
type scriptedGenerator struct {
	responses []string
	failAt    int // 1-based call index that errors; 0 disables
	failWith  error
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls++
	if g.failAt != 0 && g.calls == g.failAt {
		return "", g.failWith
	}
	if len(g.responses) == 0 {
		return "", errors.New("scriptedGenerator: out of responses")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

// memoryRepo records repository calls for assertions.
type memoryRepo struct {
	saved     []*Analysis
	updated   []*Analysis
	auditDocs []string
	auditRows int
	saveErr   error
	updateErr error
}

func (r *memoryRepo) SaveAnalysis(ctx context.Context, a *Analysis) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	snapshot := *a
	r.saved = append(r.saved, &snapshot)
	return nil
}

func (r *memoryRepo) UpdateAnalysis(ctx context.Context, a *Analysis) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	snapshot := *a
	r.updated = append(r.updated, &snapshot)
	return nil
}

func (r *memoryRepo) SavePIIAudit(ctx context.Context, documentID string, matches []core.PIIMatch) error {
	r.auditDocs = append(r.auditDocs, documentID)
	r.auditRows += len(matches)
	return nil
}

const classifyProfile = `{"document_type": "company_profile", "confidence": 0.95, "reasoning": "Registration data."}`
const extractProfile = `{"uei": "A1B2C3D4E5F6", "naics_codes": ["541511"]}`

func TestIngestRedactsAndAuditsOnce(t *testing.T) {
	repo := &memoryRepo{}
	p := New(&scriptedGenerator{}, core.DefaultCorpus(), repo, nil)

	result, err := p.Ingest(context.Background(), "doc-1", "Contact john@acme.com or 555-123-4567")
	require.NoError(t, err)

	assert.Equal(t, "Contact [EMAIL REDACTED] or [PHONE REDACTED]", result.Text)
	assert.Equal(t, []string{"doc-1"}, repo.auditDocs)
	assert.Equal(t, 2, repo.auditRows)
}

func TestIngestEmptyDocument(t *testing.T) {
	p := New(&scriptedGenerator{}, core.DefaultCorpus(), nil, nil)

	_, err := p.Ingest(context.Background(), "doc-1", "   ")
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestAnalyzeHappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		classifyProfile,
		extractProfile,
		"Brief: registration is in order.",
		"Email: please verify the NAICS mapping.",
	}}
	repo := &memoryRepo{}
	p := New(gen, core.DefaultCorpus(), repo, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "redacted text")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, "doc-1", a.DocumentID)
	assert.NotEmpty(t, a.ID)

	require.NotNil(t, a.Classification)
	assert.Equal(t, core.DocCompanyProfile, a.Classification.DocumentType)
	require.NotNil(t, a.Fields)
	assert.Equal(t, "A1B2C3D4E5F6", a.Fields.UEI)

	assert.NotEmpty(t, a.RetrievedRuleIDs)
	assert.LessOrEqual(t, len(a.RetrievedRuleIDs), DefaultTopN)

	require.Len(t, a.Checklist, 2, "company profile runs UEI and NAICS checks")
	assert.Equal(t, "Brief: registration is in order.", a.Brief)
	assert.Equal(t, "Email: please verify the NAICS mapping.", a.Email)

	// Persistence: one initial save, one terminal update.
	require.Len(t, repo.saved, 1)
	assert.Equal(t, StatusProcessing, repo.saved[0].Status)
	require.Len(t, repo.updated, 1)
	assert.Equal(t, StatusCompleted, repo.updated[0].Status)
	assert.Equal(t, 4, gen.calls)
}

// TestAnalyzeAbstainsBelowThreshold stops before extraction and keeps
// the classifier's reasoning.
func TestAnalyzeAbstainsBelowThreshold(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"document_type": "pricing", "confidence": 0.65, "reasoning": "Could be pricing or past performance."}`,
	}}
	repo := &memoryRepo{}
	p := New(gen, core.DefaultCorpus(), repo, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "ambiguous text")
	require.NoError(t, err, "abstention is not an error")

	assert.Equal(t, StatusCompletedWithWarnings, a.Status)
	assert.Equal(t, "Could be pricing or past performance.", a.WarningReason)
	assert.Nil(t, a.Fields)
	assert.Empty(t, a.Checklist)
	assert.Empty(t, a.Brief)
	assert.Equal(t, 1, gen.calls, "nothing past classification runs")

	require.Len(t, repo.updated, 1)
	assert.Equal(t, StatusCompletedWithWarnings, repo.updated[0].Status)
}

func TestAnalyzeThresholdOption(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"document_type": "company_profile", "confidence": 0.65, "reasoning": "r"}`,
		extractProfile,
		"brief",
		"email",
	}}
	p := New(gen, core.DefaultCorpus(), nil, nil, WithConfidenceThreshold(0.5))

	a, err := p.Analyze(context.Background(), "doc-1", "text")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, a.Status, "lowered threshold accepts the classification")
}

// TestAnalyzeExtractionFailure marks the analysis failed but keeps the
// classification for diagnostics.
func TestAnalyzeExtractionFailure(t *testing.T) {
	gen := &scriptedGenerator{
		responses: []string{classifyProfile},
		failAt:    2,
		failWith:  errors.New("connection refused"),
	}
	repo := &memoryRepo{}
	p := New(gen, core.DefaultCorpus(), repo, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "text")
	require.Error(t, err)

	assert.Equal(t, StatusFailed, a.Status)
	assert.Contains(t, a.FailureReason, "extraction")
	require.NotNil(t, a.Classification, "partial results survive the failure")
	assert.Nil(t, a.Fields)

	require.Len(t, repo.updated, 1)
	assert.Equal(t, StatusFailed, repo.updated[0].Status)
}

func TestAnalyzeProseFailure(t *testing.T) {
	gen := &scriptedGenerator{
		responses: []string{classifyProfile, extractProfile},
		failAt:    3,
		failWith:  errors.New("broken pipe"),
	}
	p := New(gen, core.DefaultCorpus(), nil, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "text")
	require.Error(t, err)

	assert.Equal(t, StatusFailed, a.Status)
	assert.Contains(t, a.FailureReason, "brief generation")
	assert.NotEmpty(t, a.Checklist, "evaluation finished before the prose stage failed")
}

func TestAnalyzeInitialSaveFailureAborts(t *testing.T) {
	repo := &memoryRepo{saveErr: errors.New("disk full")}
	p := New(&scriptedGenerator{}, core.DefaultCorpus(), repo, nil)

	_, err := p.Analyze(context.Background(), "doc-1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist analysis")
}

// TestAnalyzeUpdateFailureIsNotFatal pins the decision that terminal
// persistence errors are logged and swallowed.
func TestAnalyzeUpdateFailureIsNotFatal(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		classifyProfile, extractProfile, "brief", "email",
	}}
	repo := &memoryRepo{updateErr: errors.New("disk full")}
	p := New(gen, core.DefaultCorpus(), repo, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "text")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, a.Status)
}

func TestAnalyzeWithoutRepository(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		classifyProfile, extractProfile, "brief", "email",
	}}
	p := New(gen, core.DefaultCorpus(), nil, nil)

	a, err := p.Analyze(context.Background(), "doc-1", "text")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, a.Status)
}

func TestBuildQueryDeterministic(t *testing.T) {
	fields := &core.DocumentFields{UEI: "A1B2C3D4E5F6", NAICSCodes: []string{"541511"}}

	first := buildQuery(core.DocCompanyProfile, fields)
	assert.Contains(t, first, "company_profile")
	assert.Contains(t, first, "A1B2C3D4E5F6")

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, buildQuery(core.DocCompanyProfile, fields))
	}
}
