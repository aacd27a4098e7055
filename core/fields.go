package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DocumentType is the closed set of document kinds the pipeline
// classifies into. The evaluator switches exhaustively over this enum.
type DocumentType string

const (
	DocCompanyProfile  DocumentType = "company_profile"
	DocPastPerformance DocumentType = "past_performance"
	DocPricing         DocumentType = "pricing"
	DocUnknown         DocumentType = "unknown"
)

// ParseDocumentType maps a free-form label to a known document type,
// falling back to DocUnknown.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocCompanyProfile:
		return DocCompanyProfile
	case DocPastPerformance:
		return DocPastPerformance
	case DocPricing:
		return DocPricing
	}
	return DocUnknown
}

// Money accepts either a JSON number or a currency-formatted string
// ("$30,000.00") from the extraction step and keeps the raw rendering
// for evidence messages.
type Money struct {
	Raw string
	Set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Raw = s
		m.Set = true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		m.Raw = n.String()
		m.Set = true
		return nil
	}
	return fmt.Errorf("money value must be a number or a string, got %s", string(data))
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Set {
		return []byte("null"), nil
	}
	return json.Marshal(m.Raw)
}

// Value strips currency symbols, grouping commas, and whitespace, then
// parses the remainder as a plain number.
func (m Money) Value() (float64, error) {
	if !m.Set {
		return 0, fmt.Errorf("no monetary value set")
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t':
			return -1
		}
		return r
	}, m.Raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable monetary value %q", m.Raw)
	}
	return v, nil
}

// LineItem is one structured entry of a pricing submission.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	UnitPrice   Money   `json:"unit_price"`
}

// DocumentFields is the typed field map produced by extraction. Fields
// are optional; which ones are meaningful depends on the document type.
// Extra holds forward-compatible keys the extractor returned beyond the
// modeled set.
type DocumentFields struct {
	// Company profile
	UEI        string   `json:"uei,omitempty"`
	CageCode   string   `json:"cage_code,omitempty"`
	NAICSCodes []string `json:"naics_codes,omitempty"`

	// Past performance
	ContractValue Money  `json:"contract_value,omitempty"`
	Customer      string `json:"customer,omitempty"`
	PeriodOfPerf  string `json:"period_of_performance,omitempty"`

	// Pricing
	LineItems []LineItem `json:"line_items,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}
