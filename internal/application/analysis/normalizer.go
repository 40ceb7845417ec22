package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

const (
	UndeterminedGTIP    = "Belirlenemedi"
	UndeterminedProduct = "Analiz Hatası"
)

// Normalized is the outcome of reading provider text: either a structured
// result, or a degraded one that carries the raw text.
type Normalized struct {
	Result   domain.Result
	Degraded bool
	Raw      string
}

var errNotObject = errors.New("not a json object")

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```[ \t]*$")
)

// Normalize never fails. Text that is not a JSON object becomes a degraded
// result with the raw text as risk analysis.
func Normalize(raw string) Normalized {
	cleaned := stripFences(raw)

	var res domain.Result
	if err := decodeObject(cleaned, &res); err != nil {
		return degraded(raw)
	}
	if res.Taxes == nil {
		res.Taxes = []domain.Tax{}
	}
	if res.Documents == nil {
		res.Documents = []string{}
	}
	return Normalized{Result: res, Raw: raw}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	// stray markers left inside the text
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// decodeObject accepts exactly one JSON object.
func decodeObject(s string, v *domain.Result) error {
	if !strings.HasPrefix(s, "{") {
		return errNotObject
	}
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errNotObject
	}
	return nil
}

func degraded(raw string) Normalized {
	return Normalized{
		Result: domain.Result{
			GTIP:         UndeterminedGTIP,
			ProductName:  UndeterminedProduct,
			Taxes:        []domain.Tax{},
			Documents:    []string{},
			RiskAnalysis: raw,
		},
		Degraded: true,
		Raw:      raw,
	}
}
