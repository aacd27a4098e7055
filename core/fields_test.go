package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, DocCompanyProfile, ParseDocumentType("company_profile"))
	assert.Equal(t, DocPastPerformance, ParseDocumentType(" Past_Performance "))
	assert.Equal(t, DocPricing, ParseDocumentType("PRICING"))
	assert.Equal(t, DocUnknown, ParseDocumentType("unknown"))
	assert.Equal(t, DocUnknown, ParseDocumentType("resume"))
	assert.Equal(t, DocUnknown, ParseDocumentType(""))
}

// TestMoneyUnmarshal covers the two renderings models actually produce
// for dollar amounts.
func TestMoneyUnmarshal(t *testing.T) {
	var m Money

	require.NoError(t, json.Unmarshal([]byte(`"$30,000.00"`), &m))
	assert.True(t, m.Set)
	assert.Equal(t, "$30,000.00", m.Raw)
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, 30000.0, v)

	m = Money{}
	require.NoError(t, json.Unmarshal([]byte(`20000`), &m))
	assert.True(t, m.Set)
	v, err = m.Value()
	require.NoError(t, err)
	assert.Equal(t, 20000.0, v)

	m = Money{}
	assert.Error(t, json.Unmarshal([]byte(`{"amount": 5}`), &m))
}

func TestMoneyValueErrors(t *testing.T) {
	_, err := Money{}.Value()
	assert.Error(t, err, "unset money has no value")

	_, err = Money{Raw: "about 30k", Set: true}.Value()
	assert.Error(t, err)
}

func TestMoneyMarshal(t *testing.T) {
	data, err := json.Marshal(Money{Raw: "$1,500", Set: true})
	require.NoError(t, err)
	assert.Equal(t, `"$1,500"`, string(data))

	data, err = json.Marshal(Money{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

// TestDocumentFieldsDecode decodes a realistic extraction payload,
// including an unmodeled key landing in Extra.
func TestDocumentFieldsDecode(t *testing.T) {
	payload := `{
		"uei": "A1B2C3D4E5F6",
		"cage_code": "1ABC2",
		"naics_codes": ["541511", "541512"],
		"contract_value": "$1,250,000",
		"customer": "GSA",
		"line_items": [
			{"description": "Labor", "quantity": 480, "unit_price": "95.50"}
		],
		"extra": {"solicitation": "47QTCA22D000X"}
	}`

	var fields DocumentFields
	require.NoError(t, json.Unmarshal([]byte(payload), &fields))

	assert.Equal(t, "A1B2C3D4E5F6", fields.UEI)
	assert.Equal(t, []string{"541511", "541512"}, fields.NAICSCodes)

	v, err := fields.ContractValue.Value()
	require.NoError(t, err)
	assert.Equal(t, 1250000.0, v)

	require.Len(t, fields.LineItems, 1)
	assert.Equal(t, "Labor", fields.LineItems[0].Description)
	price, err := fields.LineItems[0].UnitPrice.Value()
	require.NoError(t, err)
	assert.Equal(t, 95.5, price)

	assert.Equal(t, "47QTCA22D000X", fields.Extra["solicitation"])
}
