package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

const wellFormed = `{
  "gtip": "8518.30.00.00.00",
  "productName": "Kablosuz kulaklık",
  "taxes": [{"name": "KDV", "rate": "%20", "description": "Katma değer vergisi"}, {"name": "Gümrük V.", "rate": "%10", "description": ""}],
  "documents": ["CE", "TAREKS"],
  "riskAnalysis": "DİKKAT: Bluetooth cihazlar BTK iznine tabi olabilir.",
  "marketData": {"fobPrice": "$4 - $6", "trSalesPrice": "400 TL", "emailDraft": "Dear Supplier"}
}`

func TestNormalizeWellFormedIsIdentity(t *testing.T) {
	var want domain.Result
	require.NoError(t, json.Unmarshal([]byte(wellFormed), &want))

	n := Normalize(wellFormed)
	assert.False(t, n.Degraded)
	assert.Equal(t, want, n.Result)
	assert.Equal(t, "8518.30.00.00.00", n.Result.GTIP)
	require.NotNil(t, n.Result.MarketData)
	assert.Equal(t, "Dear Supplier", n.Result.MarketData.EmailDraft)
}

func TestNormalizeFencedMatchesUnwrapped(t *testing.T) {
	plain := Normalize(wellFormed)

	tests := map[string]string{
		"json tag":        "```json\n" + wellFormed + "\n```",
		"upper tag":       "```JSON\n" + wellFormed + "\n```",
		"no tag":          "```\n" + wellFormed + "\n```",
		"surrounding ws":  "\n\n  ```json\n" + wellFormed + "\n```  \n",
		"same line fence": "```json " + wellFormed + "```",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			n := Normalize(in)
			assert.False(t, n.Degraded)
			assert.Equal(t, plain.Result, n.Result)
		})
	}
}

func TestNormalizeNumericTaxRate(t *testing.T) {
	n := Normalize(`{"gtip":"8518.30.00.00.00","productName":"Kulaklık","taxes":[{"name":"KDV","rate":20}],"documents":[],"riskAnalysis":"Yok"}`)
	assert.False(t, n.Degraded)
	assert.Equal(t, "8518.30.00.00.00", n.Result.GTIP)
	require.Len(t, n.Result.Taxes, 1)
	assert.Equal(t, "20", n.Result.Taxes[0].Rate)
}

func TestNormalizeMalformedDegrades(t *testing.T) {
	tests := []string{
		"Not JSON at all",
		`{"gtip": "8518.30"`,
		`["not", "an", "object"]`,
		`{"gtip": 85183000}`,
		`{"gtip": "1"} trailing words`,
		"",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var n Normalized
			assert.NotPanics(t, func() { n = Normalize(in) })
			assert.True(t, n.Degraded)
			assert.Equal(t, "Belirlenemedi", n.Result.GTIP)
			assert.Equal(t, UndeterminedProduct, n.Result.ProductName)
			assert.Empty(t, n.Result.Taxes)
			assert.NotNil(t, n.Result.Taxes)
			assert.Empty(t, n.Result.Documents)
			assert.NotNil(t, n.Result.Documents)
			assert.Nil(t, n.Result.MarketData)
			assert.Equal(t, in, n.Result.RiskAnalysis)
		})
	}
}

func TestNormalizeFillsMissingSlices(t *testing.T) {
	n := Normalize(`{"gtip": "0101.21.00.00.00", "productName": "At", "taxes": null, "riskAnalysis": ""}`)
	assert.False(t, n.Degraded)
	assert.Equal(t, []domain.Tax{}, n.Result.Taxes)
	assert.Equal(t, []string{}, n.Result.Documents)

	b, err := json.Marshal(n.Result)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"taxes":[]`)
	assert.NotContains(t, string(b), "marketData")
}
