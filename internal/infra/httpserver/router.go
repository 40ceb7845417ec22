package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appanalysis "github.com/gumrukcum/gumrukcum-api/internal/application/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	domai "github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
	"github.com/gumrukcum/gumrukcum-api/internal/middleware"
)

// DefaultMaxBodyBytes fits a maximum size image after base64 expansion.
const DefaultMaxBodyBytes = 10 << 20

// AnalysisService is what the HTTP layer needs from the pipeline.
type AnalysisService interface {
	Authenticate(ctx context.Context, header string) (account.Identity, error)
	AnalyzeAs(ctx context.Context, id account.Identity, req domain.Request) (*appanalysis.Outcome, error)
	Profile(ctx context.Context, id account.Identity) (*account.Profile, account.Capabilities, error)
	ListHistory(ctx context.Context, id account.Identity, page, pageSize int) (domain.PaginatedResult, error)
}

// Options configures the router. Zero values disable the optional parts.
type Options struct {
	MaxBodyBytes   int64
	CORSOrigins    []string
	Limiter        middleware.Limiter
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc     AnalysisService
	maxBody int64
}

func NewRouter(svc AnalysisService, opts Options) http.Handler {
	r := &Router{svc: svc, maxBody: opts.MaxBodyBytes}
	if r.maxBody <= 0 {
		r.maxBody = DefaultMaxBodyBytes
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.CORS(opts.CORSOrigins))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.BearerAuth(svc, writeError))
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}

		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Route("/v1", func(v1 chi.Router) {
			v1.Post("/analyze", r.wrap(r.handleAnalyze))
			v1.Get("/history", r.wrap(r.handleHistory))
			v1.Get("/profile", r.wrap(r.handleProfile))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeError(w, req, err)
		}
	}
}

// analyzeBody is the only shape read from the request. Identity and tier
// come from the verified token; fields like userId or tier are ignored.
type analyzeBody struct {
	UserPrompt  string `json:"userPrompt"`
	ImageBase64 string `json:"imageBase64"`
}

// POST /v1/analyze
// Body: {"userPrompt": "...", "imageBase64": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		return &appanalysis.Error{Kind: appanalysis.KindUnauthenticated, Message: msgUnauthenticated}
	}

	var body analyzeBody
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBody)
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return invalid(msgBadBody, err)
	}

	in := domain.Request{UserPrompt: middleware.SanitizeString(body.UserPrompt)}
	if body.ImageBase64 != "" {
		data, mime, err := middleware.DecodeImage(body.ImageBase64, domain.MaxImageBytes)
		if err != nil {
			return invalid(msgBadImage, err)
		}
		in.Image = &domain.Image{Data: data, MIMEType: mime}
	}

	out, err := r.svc.AnalyzeAs(req.Context(), id, in)
	if err != nil {
		middleware.RecordAnalysis(false, false, string(appanalysis.KindOf(err)))
		return err
	}
	middleware.RecordAnalysis(out.Degraded, out.Ledger.CreditDeducted, "")

	w.Header().Set("X-Analysis-Model", out.Model)
	if out.Degraded {
		w.Header().Set("X-Analysis-Degraded", "true")
	}
	return writeJSON(w, http.StatusOK, out.Result)
}

// GET /v1/history?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	id, _ := middleware.IdentityFrom(req.Context())
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.ListHistory(req.Context(), id, middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

type profileResponse struct {
	*account.Profile
	Unlimited  bool `json:"unlimited"`
	WebSearch  bool `json:"webSearch"`
	MarketData bool `json:"marketData"`
}

// GET /v1/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	id, _ := middleware.IdentityFrom(req.Context())
	p, caps, err := r.svc.Profile(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profileResponse{
		Profile:    p,
		Unlimited:  caps.UnlimitedCredits,
		WebSearch:  caps.WebSearch,
		MarketData: caps.MarketData,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func invalid(msg string, err error) error {
	return &appanalysis.Error{Kind: appanalysis.KindInvalidRequest, Message: msg, Err: err}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind"`
	Tier    account.Tier `json:"tier,omitempty"`
	Credits *int         `json:"credits,omitempty"`
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, body := errorResponse(err)

	ev := zerolog.Ctx(req.Context()).Warn()
	if status >= 500 {
		ev = zerolog.Ctx(req.Context()).Error()
	}
	ev.Err(err).Str("kind", body.Kind).Int("status", status).Msg("request failed")

	_ = writeJSON(w, status, body)
}

func errorResponse(err error) (int, errorBody) {
	var e *appanalysis.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, errorBody{Error: msgInternal, Kind: string(appanalysis.KindInternal)}
	}

	body := errorBody{Error: e.Message, Kind: string(e.Kind)}
	status := http.StatusInternalServerError
	switch e.Kind {
	case appanalysis.KindUnauthenticated:
		status = http.StatusUnauthorized
	case appanalysis.KindInvalidRequest:
		status = http.StatusBadRequest
	case appanalysis.KindInsufficientCredit:
		status = http.StatusPaymentRequired
		credits := e.Credits
		body.Tier = e.Tier
		body.Credits = &credits
	case appanalysis.KindProviderUnavailable, appanalysis.KindAuthUnavailable:
		status = http.StatusServiceUnavailable
	case appanalysis.KindProviderError, appanalysis.KindEmptyGeneration:
		status = http.StatusBadGateway
		if errors.Is(err, domai.ErrQuotaExceeded) {
			status = http.StatusTooManyRequests
		}
	}
	return status, body
}

const (
	msgUnauthenticated = "Oturum açmanız gerekiyor."
	msgBadBody         = "İstek gövdesi okunamadı."
	msgBadImage        = "Görsel okunamadı."
	msgInternal        = "Bilinmeyen sunucu hatası"
)
