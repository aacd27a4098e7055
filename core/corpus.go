package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Severity grades how serious a rule violation is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// RuleCategory groups rules by the compliance concern they address.
type RuleCategory string

const (
	CategoryRegistration   RuleCategory = "registration"
	CategoryClassification RuleCategory = "classification"
	CategoryFinancial      RuleCategory = "financial"
	CategoryPricing        RuleCategory = "pricing"
	CategoryDataHandling   RuleCategory = "data_handling"
)

// Rule is one compliance rule in the corpus. Rules are immutable once
// the corpus is built.
type Rule struct {
	// Stable identifier cited by checklist items, e.g. "R1"
	ID string `yaml:"id"`

	// Short title, weighted higher during retrieval
	Title string `yaml:"title"`

	// Free-text body describing the requirement
	Body string `yaml:"body"`

	// Compliance concern this rule belongs to
	Category RuleCategory `yaml:"category"`

	// How serious a violation of this rule is
	Severity Severity `yaml:"severity"`
}

// CorpusMetadata describes the corpus as a whole.
type CorpusMetadata struct {
	// Version of the corpus
	Version string `yaml:"version"`

	// Description of what the corpus covers
	Description string `yaml:"description"`

	// Author of the corpus
	Author string `yaml:"author,omitempty"`

	// Hash of the serialized rules for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// Corpus is the fixed set of compliance rules, loaded once at startup
// and injected into the retriever and evaluator. It carries no mutable
// state and is safe for concurrent readers.
type Corpus struct {
	Metadata CorpusMetadata `yaml:"metadata"`
	Rules    []Rule         `yaml:"rules"`

	index map[string]int `yaml:"-"`
}

// NewCorpus validates the given rules and returns an immutable corpus.
func NewCorpus(meta CorpusMetadata, rules []Rule) (*Corpus, error) {
	c := &Corpus{Metadata: meta, Rules: rules}
	if err := validateCorpus(c); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}
	c.buildIndex()
	return c, nil
}

// LoadCorpus reads a YAML corpus file and validates it. The integrity
// hash of the raw file content is recorded in the metadata.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}

	if err := validateCorpus(&corpus); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}

	corpus.Metadata.Hash = calculateCorpusHash(data)
	corpus.buildIndex()
	return &corpus, nil
}

// SaveCorpus writes the corpus to a YAML file with an updated integrity
// hash in the metadata.
func SaveCorpus(corpus *Corpus, path string) error {
	data, err := yaml.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}

	corpus.Metadata.Hash = calculateCorpusHash(data)

	// Re-marshal with the updated hash
	data, err = yaml.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("failed to re-marshal corpus with hash: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return nil
}

func (c *Corpus) buildIndex() {
	c.index = make(map[string]int, len(c.Rules))
	for i, rule := range c.Rules {
		c.index[rule.ID] = i
	}
}

// Get returns the rule with the given identifier.
func (c *Corpus) Get(id string) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.Rules[i], true
}

// List returns all rules in corpus order.
func (c *Corpus) List() []Rule {
	out := make([]Rule, len(c.Rules))
	copy(out, c.Rules)
	return out
}

// ByCategory returns all rules tagged with the given category, in
// corpus order.
func (c *Corpus) ByCategory(category RuleCategory) []Rule {
	var out []Rule
	for _, rule := range c.Rules {
		if rule.Category == category {
			out = append(out, rule)
		}
	}
	return out
}

// BySeverity returns all rules with the given severity, in corpus order.
func (c *Corpus) BySeverity(severity Severity) []Rule {
	var out []Rule
	for _, rule := range c.Rules {
		if rule.Severity == severity {
			out = append(out, rule)
		}
	}
	return out
}

func validateCorpus(c *Corpus) error {
	seen := make(map[string]bool, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d has no id", i)
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true

		if rule.Title == "" {
			return fmt.Errorf("rule %q has no title", rule.ID)
		}
		if rule.Body == "" {
			return fmt.Errorf("rule %q has no body", rule.ID)
		}
		switch rule.Severity {
		case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		default:
			return fmt.Errorf("rule %q has unknown severity %q", rule.ID, rule.Severity)
		}
		switch rule.Category {
		case CategoryRegistration, CategoryClassification, CategoryFinancial,
			CategoryPricing, CategoryDataHandling:
		default:
			return fmt.Errorf("rule %q has unknown category %q", rule.ID, rule.Category)
		}
	}
	return nil
}

// calculateCorpusHash generates a hash of the corpus content for
// integrity checking.
func calculateCorpusHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CorpusBuilder provides a fluent interface for assembling a corpus,
// mostly useful in tests and for custom deployments.
type CorpusBuilder struct {
	meta  CorpusMetadata
	rules []Rule
}

// NewCorpusBuilder creates an empty builder.
func NewCorpusBuilder() *CorpusBuilder {
	return &CorpusBuilder{}
}

// WithMetadata sets the corpus metadata.
func (b *CorpusBuilder) WithMetadata(version, description, author string) *CorpusBuilder {
	b.meta = CorpusMetadata{Version: version, Description: description, Author: author}
	return b
}

// AddRule appends a rule to the corpus under construction.
func (b *CorpusBuilder) AddRule(id, title, body string, category RuleCategory, severity Severity) *CorpusBuilder {
	b.rules = append(b.rules, Rule{
		ID:       id,
		Title:    title,
		Body:     body,
		Category: category,
		Severity: severity,
	})
	return b
}

// Build validates and returns the corpus.
func (b *CorpusBuilder) Build() (*Corpus, error) {
	return NewCorpus(b.meta, b.rules)
}

// Rule identifiers in the default corpus, used as fixed keys by the
// compliance evaluator.
const (
	RuleUEI           = "R1"
	RuleNAICS         = "R2"
	RuleContractValue = "R3"
	RuleLineItems     = "R4"
	RuleDataHandling  = "R5"
)

// DefaultCorpus returns the built-in rule set for government-contracting
// document review.
func DefaultCorpus() *Corpus {
	corpus, err := NewCorpus(
		CorpusMetadata{
			Version:     "1.0.0",
			Description: "Default compliance rules for government contracting documents",
			Author:      "fedcheck",
		},
		[]Rule{
			{
				ID:    RuleUEI,
				Title: "Unique Entity Identifier (UEI) registration",
				Body: "Offerors must hold an active SAM.gov registration with a valid " +
					"Unique Entity Identifier. The UEI is a 12-character alphanumeric " +
					"identifier required on every company profile submitted for award.",
				Category: CategoryRegistration,
				Severity: SeverityCritical,
			},
			{
				ID:    RuleNAICS,
				Title: "NAICS code designation",
				Body: "Company profiles must list the NAICS codes under which the " +
					"offeror performs. Each code determines the applicable size " +
					"standard, and the mapping between codes and the solicited scope " +
					"of work must be verified before proposal submission.",
				Category: CategoryClassification,
				Severity: SeverityHigh,
			},
			{
				ID:    RuleContractValue,
				Title: "Past performance contract value",
				Body: "Past performance references must demonstrate experience of " +
					"meaningful size. The contract value of each cited engagement " +
					"must meet the minimum dollar threshold for relevance; smaller " +
					"awards carry little evaluative weight.",
				Category: CategoryFinancial,
				Severity: SeverityHigh,
			},
			{
				ID:    RuleLineItems,
				Title: "Pricing line item detail",
				Body: "Pricing submissions must itemize the offer into line items, " +
					"each carrying a description and a unit price. Lump-sum pricing " +
					"without structured line items is not acceptable for evaluation.",
				Category: CategoryPricing,
				Severity: SeverityMedium,
			},
			{
				ID:    RuleDataHandling,
				Title: "Safeguarding of contractor information",
				Body: "Documents exchanged during negotiation must have personally " +
					"identifiable information removed before processing. Redaction " +
					"must be irreversible and leave an auditable trail of what was " +
					"removed, by category and position.",
				Category: CategoryDataHandling,
				Severity: SeverityMedium,
			},
		},
	)
	if err != nil {
		// The built-in corpus is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return corpus
}
