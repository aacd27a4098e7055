package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpusIsValid(t *testing.T) {
	corpus := DefaultCorpus()

	assert.Len(t, corpus.Rules, 5)
	assert.Equal(t, "1.0.0", corpus.Metadata.Version)

	for _, id := range []string{RuleUEI, RuleNAICS, RuleContractValue, RuleLineItems, RuleDataHandling} {
		rule, ok := corpus.Get(id)
		assert.True(t, ok, "default corpus must contain %s", id)
		assert.NotEmpty(t, rule.Title)
		assert.NotEmpty(t, rule.Body)
	}

	uei, _ := corpus.Get(RuleUEI)
	assert.Equal(t, SeverityCritical, uei.Severity)
	assert.Equal(t, CategoryRegistration, uei.Category)
}

func TestCorpusGetUnknownID(t *testing.T) {
	_, ok := DefaultCorpus().Get("R99")
	assert.False(t, ok)
}

func TestCorpusListCopies(t *testing.T) {
	corpus := DefaultCorpus()

	rules := corpus.List()
	rules[0].Title = "mutated"

	again := corpus.List()
	assert.NotEqual(t, "mutated", again[0].Title)
}

func TestCorpusByCategoryAndSeverity(t *testing.T) {
	corpus := DefaultCorpus()

	financial := corpus.ByCategory(CategoryFinancial)
	require.Len(t, financial, 1)
	assert.Equal(t, RuleContractValue, financial[0].ID)

	high := corpus.BySeverity(SeverityHigh)
	assert.Len(t, high, 2)

	assert.Empty(t, corpus.BySeverity(SeverityLow))
}

// TestCorpusRoundTrip saves a corpus to YAML and loads it back,
// verifying the integrity hash is populated on both sides.
func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	corpus := DefaultCorpus()
	require.NoError(t, SaveCorpus(corpus, path))

	loaded, err := LoadCorpus(path)
	require.NoError(t, err)

	assert.Equal(t, corpus.Metadata.Version, loaded.Metadata.Version)
	assert.Equal(t, len(corpus.Rules), len(loaded.Rules))
	assert.NotEmpty(t, loaded.Metadata.Hash)

	for _, want := range corpus.Rules {
		got, ok := loaded.Get(want.ID)
		require.True(t, ok)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Body, got.Body)
		assert.Equal(t, want.Severity, got.Severity)
		assert.Equal(t, want.Category, got.Category)
	}
}

func TestLoadCorpusMissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCorpusValidation(t *testing.T) {
	valid := Rule{
		ID: "X1", Title: "t", Body: "b",
		Category: CategoryPricing, Severity: SeverityLow,
	}

	cases := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"missing id", func(r *Rule) { r.ID = "" }},
		{"missing title", func(r *Rule) { r.Title = "" }},
		{"missing body", func(r *Rule) { r.Body = "" }},
		{"bad severity", func(r *Rule) { r.Severity = "catastrophic" }},
		{"bad category", func(r *Rule) { r.Category = "vibes" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := valid
			tc.mutate(&rule)
			_, err := NewCorpus(CorpusMetadata{Version: "1"}, []Rule{rule})
			assert.Error(t, err)
		})
	}

	_, err := NewCorpus(CorpusMetadata{Version: "1"}, []Rule{valid, valid})
	assert.Error(t, err, "duplicate ids must be rejected")
}

func TestCorpusBuilder(t *testing.T) {
	corpus, err := NewCorpusBuilder().
		WithMetadata("2.0.0", "test rules", "tester").
		AddRule("T1", "First", "First body", CategoryRegistration, SeverityCritical).
		AddRule("T2", "Second", "Second body", CategoryPricing, SeverityLow).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", corpus.Metadata.Version)
	assert.Len(t, corpus.Rules, 2)

	rule, ok := corpus.Get("T2")
	require.True(t, ok)
	assert.Equal(t, "Second", rule.Title)
}
