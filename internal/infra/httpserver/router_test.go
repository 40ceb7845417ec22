package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumrukcum/gumrukcum-api/internal/application"
	appanalysis "github.com/gumrukcum/gumrukcum-api/internal/application/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/ai/prompt"
	"github.com/gumrukcum/gumrukcum-api/internal/infra/db/sqlite"
)

const answer = "```json\n" + `{"gtip":"8518.30.00.00.00","productName":"Kulaklık","taxes":[{"name":"GV","rate":"%0","description":""}],"documents":[],"riskAnalysis":"","marketData":{"fobPrice":"$5","trSalesPrice":"300 TL","emailDraft":"Hi"}}` + "\n```"

type tokenVerifier map[string]string

func (v tokenVerifier) Verify(_ context.Context, token string) (account.Identity, error) {
	if token == "t-outage" {
		return account.Identity{}, errors.New("jwks fetch: connection refused")
	}
	if uid, ok := v[token]; ok {
		return account.Identity{UserID: uid}, nil
	}
	return account.Identity{}, account.ErrInvalidCredential
}

type stubGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []*ai.Request
}

func (g *stubGenerator) Generate(_ context.Context, req *ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.text, g.err
}

type testServer struct {
	handler  http.Handler
	gen      *stubGenerator
	profiles *sqlite.ProfileRepository
	history  *sqlite.HistoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles := sqlite.NewProfileRepository(db)
	history := sqlite.NewHistoryRepository(db)
	for _, p := range []account.Profile{
		{ID: "free-1", Credits: 1, Tier: account.TierFree},
		{ID: "broke", Credits: 0, Tier: account.TierFree},
		{ID: "pro", Credits: 0, Tier: account.TierProfessional},
	} {
		p := p
		require.NoError(t, profiles.Put(ctx, &p))
	}

	gen := &stubGenerator{text: answer}
	svc := &appanalysis.Service{
		Verifier:  tokenVerifier{"t-free": "free-1", "t-broke": "broke", "t-pro": "pro", "t-ghost": "ghost"},
		Profiles:  profiles,
		History:   history,
		Generator: gen,
		Prompts:   prompt.Customs{},
		Tiers:     account.NewTierTable(account.Models{Standard: "lite", Premium: "pro-model"}),
		Ledger:    &appanalysis.Ledger{Profiles: profiles, History: history, Clock: application.SystemClock{}},
		Timeout:   time.Second,
	}
	return &testServer{handler: NewRouter(svc, Options{}), gen: gen, profiles: profiles, history: history}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

func TestAnalyzeHappyPath(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/analyze", "t-free", `{"userPrompt":"bluetooth kulaklık"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "8518.30.00.00.00", res.GTIP)
	assert.Nil(t, res.MarketData)
	assert.NotContains(t, rec.Body.String(), "marketData")
	assert.Equal(t, "lite", rec.Header().Get("X-Analysis-Model"))

	p, err := s.profiles.Get(context.Background(), "free-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Credits)

	page, err := s.history.Paginate(context.Background(), "free-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "bluetooth kulaklık", page.Data[0].UserPrompt)
}

func TestAnalyzeLegacyPath(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/analyze", "t-pro", `{"userPrompt":"kulaklık"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marketData"`)
}

func TestAnalyzeIgnoresBodyIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/analyze", "t-broke", `{"userPrompt":"x","userId":"pro","tier":"corporate"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	b := decodeError(t, rec)
	assert.Equal(t, "insufficient_credit", b.Kind)
	assert.Equal(t, account.TierFree, b.Tier)
	require.NotNil(t, b.Credits)
	assert.Equal(t, 0, *b.Credits)
	assert.Empty(t, s.gen.calls)
}

func TestAnalyzeUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "forged"} {
		rec := s.do(http.MethodPost, "/v1/analyze", token, `{"userPrompt":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", decodeError(t, rec).Kind)
	}
	assert.Empty(t, s.gen.calls)
}

func TestAnalyzeAuthOutage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/analyze", "t-outage", `{"userPrompt":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "auth_unavailable", decodeError(t, rec).Kind)
	assert.Empty(t, s.gen.calls)
}

func TestAnalyzeBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := map[string]string{
		"malformed json": `{"userPrompt":`,
		"empty":          `{}`,
		"blank prompt":   `{"userPrompt":"   "}`,
		"bad base64":     `{"imageBase64":"@@@"}`,
		"not an image":   `{"imageBase64":"` + base64.StdEncoding.EncodeToString([]byte("plain text here")) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/v1/analyze", "t-free", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decodeError(t, rec).Kind)
		})
	}
	assert.Empty(t, s.gen.calls)
}

func TestAnalyzeWithImage(t *testing.T) {
	s := newTestServer(t)
	img := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

	rec := s.do(http.MethodPost, "/v1/analyze", "t-pro", `{"imageBase64":"data:image/png;base64,`+img+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, s.gen.calls, 1)
	parts := s.gen.calls[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "image/png", parts[0].MIMEType)

	page, err := s.history.Paginate(context.Background(), "pro", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.DefaultImagePrompt, page.Data[0].UserPrompt)
}

func TestAnalyzeProviderStatuses(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		err    error
		status int
		kind   string
	}{
		{"unavailable", "", ai.ErrProviderUnavailable, http.StatusServiceUnavailable, "provider_unavailable"},
		{"error", "", &ai.ProviderError{Model: "lite", StatusCode: 500, Body: "x"}, http.StatusBadGateway, "provider_error"},
		{"quota", "", &ai.ProviderError{Model: "lite", StatusCode: 429, Body: "quota"}, http.StatusTooManyRequests, "provider_error"},
		{"empty", "", ai.ErrEmptyGeneration, http.StatusBadGateway, "empty_generation"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.gen.text, s.gen.err = tc.text, tc.err

			rec := s.do(http.MethodPost, "/v1/analyze", "t-free", `{"userPrompt":"x"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeError(t, rec).Kind)

			p, err := s.profiles.Get(context.Background(), "free-1")
			require.NoError(t, err)
			assert.Equal(t, 1, p.Credits)
		})
	}
}

func TestAnalyzeDegradedStillOK(t *testing.T) {
	s := newTestServer(t)
	s.gen.text = "Üzgünüm, bu ürünü belirleyemedim."

	rec := s.do(http.MethodPost, "/v1/analyze", "t-free", `{"userPrompt":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Analysis-Degraded"))

	var res domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, appanalysis.UndeterminedGTIP, res.GTIP)
	assert.Equal(t, "Üzgünüm, bu ürünü belirleyemedim.", res.RiskAnalysis)
	assert.Equal(t, []domain.Tax{}, res.Taxes)
}

func TestProfileNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/v1/analyze", "t-ghost", `{"userPrompt":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "profile_not_found", decodeError(t, rec).Kind)
}

func TestProfileAndHistoryRoutes(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/analyze", "t-pro", `{"userPrompt":"x"}`).Code)
	}

	rec := s.do(http.MethodGet, "/v1/profile", "t-pro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prof map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, "professional", prof["subscription_tier"])
	assert.Equal(t, true, prof["unlimited"])
	assert.EqualValues(t, 0, prof["credits"])

	rec = s.do(http.MethodGet, "/v1/history?page=1&page_size=2", "t-pro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.PaginatedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/history", "", "").Code)
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/healthz", "/readyz", "/metrics"} {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, "", "").Code, path)
	}
}

func TestErrorResponseUnknownError(t *testing.T) {
	status, body := errorResponse(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", body.Kind)
	assert.Nil(t, body.Credits)
}
