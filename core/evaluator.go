package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// ChecklistStatus is the verdict of one compliance check.
type ChecklistStatus string

const (
	StatusCompliant    ChecklistStatus = "compliant"
	StatusNonCompliant ChecklistStatus = "non_compliant"
	StatusNeedsReview  ChecklistStatus = "needs_review"
)

// ChecklistItem is one rule's verdict against the extracted fields.
// Immutable after creation.
type ChecklistItem struct {
	Requirement string          `json:"requirement"`
	Status      ChecklistStatus `json:"status"`
	Evidence    string          `json:"evidence"`
	RuleID      string          `json:"rule_id"`
	Severity    Severity        `json:"severity"`
}

// ContractValueThreshold is the minimum past-performance contract value
// considered relevant.
const ContractValueThreshold = 25000.0

// ueiPattern matches the 12-character alphanumeric Unique Entity
// Identifier format.
var ueiPattern = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)

// Evaluator judges extracted fields against the fixed rule set with a
// per-document-type decision table. It is pure: it never errors and
// never mutates shared state, so it is safe to call concurrently.
type Evaluator struct {
	corpus *Corpus
}

// NewEvaluator creates an evaluator backed by the given corpus. Item
// severities are always sourced from this corpus by rule identifier,
// not from whatever the retriever happened to surface.
func NewEvaluator(corpus *Corpus) *Evaluator {
	return &Evaluator{corpus: corpus}
}

// Evaluate runs every check applicable to the document type and returns
// one checklist item per check. Missing or malformed fields become
// non_compliant items rather than errors; that is the evaluator's way
// of abstaining. The retrieved argument is accepted for contract parity
// with the retriever but does not influence verdicts.
func (e *Evaluator) Evaluate(docType DocumentType, fields DocumentFields, retrieved []RetrievedRule) []ChecklistItem {
	_ = retrieved

	switch docType {
	case DocCompanyProfile:
		return []ChecklistItem{
			e.checkUEI(fields),
			e.checkNAICS(fields),
		}
	case DocPastPerformance:
		return []ChecklistItem{
			e.checkContractValue(fields),
		}
	case DocPricing:
		return []ChecklistItem{
			e.checkLineItems(fields),
		}
	case DocUnknown:
		return nil
	}
	return nil
}

// severityFor looks the severity up in the static corpus.
func (e *Evaluator) severityFor(ruleID string) Severity {
	if rule, ok := e.corpus.Get(ruleID); ok {
		return rule.Severity
	}
	return SeverityMedium
}

func (e *Evaluator) checkUEI(fields DocumentFields) ChecklistItem {
	item := ChecklistItem{
		Requirement: "Unique Entity Identifier (UEI) must be present and match the 12-character alphanumeric format",
		RuleID:      RuleUEI,
		Severity:    e.severityFor(RuleUEI),
	}

	uei := strings.TrimSpace(fields.UEI)
	switch {
	case uei == "":
		item.Status = StatusNonCompliant
		item.Evidence = "no UEI found in the extracted fields"
	case !ueiPattern.MatchString(uei):
		item.Status = StatusNonCompliant
		item.Evidence = fmt.Sprintf("found %q, which is not a 12-character alphanumeric identifier", uei)
	default:
		item.Status = StatusCompliant
		item.Evidence = fmt.Sprintf("UEI %s matches the required format", strings.ToUpper(uei))
	}
	return item
}

func (e *Evaluator) checkNAICS(fields DocumentFields) ChecklistItem {
	item := ChecklistItem{
		Requirement: "At least one NAICS code must be designated",
		RuleID:      RuleNAICS,
		Severity:    e.severityFor(RuleNAICS),
	}

	if len(fields.NAICSCodes) == 0 {
		item.Status = StatusNonCompliant
		item.Evidence = "no NAICS codes found in the extracted fields"
		return item
	}

	// Never auto-compliant: whether the codes map to the solicited scope
	// takes a human or a size-standard lookup this tool does not perform.
	item.Status = StatusNeedsReview
	item.Evidence = fmt.Sprintf("found %d NAICS code(s): %s; scope mapping requires manual verification",
		len(fields.NAICSCodes), strings.Join(fields.NAICSCodes, ", "))
	return item
}

func (e *Evaluator) checkContractValue(fields DocumentFields) ChecklistItem {
	item := ChecklistItem{
		Requirement: fmt.Sprintf("Past performance contract value must be at least $%s",
			humanize.Commaf(ContractValueThreshold)),
		RuleID:   RuleContractValue,
		Severity: e.severityFor(RuleContractValue),
	}

	if !fields.ContractValue.Set {
		item.Status = StatusNonCompliant
		item.Evidence = "no contract value found in the extracted fields"
		return item
	}

	value, err := fields.ContractValue.Value()
	if err != nil {
		item.Status = StatusNonCompliant
		item.Evidence = fmt.Sprintf("contract value %q could not be parsed as an amount", fields.ContractValue.Raw)
		return item
	}

	if value < ContractValueThreshold {
		item.Status = StatusNonCompliant
		item.Evidence = fmt.Sprintf("contract value $%s is below the $%s minimum",
			humanize.Commaf(value), humanize.Commaf(ContractValueThreshold))
		return item
	}

	item.Status = StatusCompliant
	item.Evidence = fmt.Sprintf("contract value $%s meets the $%s minimum",
		humanize.Commaf(value), humanize.Commaf(ContractValueThreshold))
	return item
}

func (e *Evaluator) checkLineItems(fields DocumentFields) ChecklistItem {
	item := ChecklistItem{
		Requirement: "Pricing must be itemized into line items with descriptions and unit prices",
		RuleID:      RuleLineItems,
		Severity:    e.severityFor(RuleLineItems),
	}

	if len(fields.LineItems) == 0 {
		item.Status = StatusNonCompliant
		item.Evidence = "no line items found in the extracted fields"
		return item
	}

	incomplete := 0
	for _, li := range fields.LineItems {
		if strings.TrimSpace(li.Description) == "" || !li.UnitPrice.Set {
			incomplete++
		}
	}

	if incomplete > 0 {
		item.Status = StatusNeedsReview
		item.Evidence = fmt.Sprintf("found %d line item(s), but %d missing a description or unit price",
			len(fields.LineItems), incomplete)
		return item
	}

	item.Status = StatusCompliant
	item.Evidence = fmt.Sprintf("found %d fully priced line item(s)", len(fields.LineItems))
	return item
}
