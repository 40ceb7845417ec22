package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RecordID identifier type
type RecordID string

// Image is the single optional product photo of a request.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is what the caller asked to analyze.
type Request struct {
	UserPrompt string
	Image      *Image
}

// Empty reports whether neither a note nor an image was supplied.
func (r Request) Empty() bool {
	return r.Image == nil && len(r.UserPrompt) == 0
}

// Tax is one duty or tax line of a classification.
type Tax struct {
	Name        string `json:"name"`
	Rate        string `json:"rate"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts the rate as a string or a bare number ("%20" or 20).
// Models answering without a response schema use both forms.
func (t *Tax) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Rate        json.RawMessage `json:"rate"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rate, err := decodeRate(raw.Rate)
	if err != nil {
		return err
	}
	*t = Tax{Name: raw.Name, Rate: rate, Description: raw.Description}
	return nil
}

func decodeRate(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("tax rate: %w", err)
	}
	return n.String(), nil
}

// MarketData is only produced for tiers with market-data access.
type MarketData struct {
	FOBPrice     string `json:"fobPrice,omitempty"`
	TRSalesPrice string `json:"trSalesPrice,omitempty"`
	EmailDraft   string `json:"emailDraft,omitempty"`
}

// Result is the structured classification report returned to the caller.
type Result struct {
	GTIP         string      `json:"gtip"`
	ProductName  string      `json:"productName"`
	Taxes        []Tax       `json:"taxes"`
	Documents    []string    `json:"documents"`
	RiskAnalysis string      `json:"riskAnalysis"`
	MarketData   *MarketData `json:"marketData,omitempty"`
}

// HistoryRecord is an immutable audit entry of one analysis
type HistoryRecord struct {
	ID         RecordID  `json:"id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UserPrompt string    `json:"user_prompt"`
	Response   Result    `json:"ai_response"`
	Model      string    `json:"model,omitempty"`
	Degraded   bool      `json:"degraded"`
	ImageURL   string    `json:"image_url,omitempty"`
}
