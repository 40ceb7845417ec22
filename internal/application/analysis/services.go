package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

// DefaultGenerationTimeout bounds the provider call when Service.Timeout is unset.
const DefaultGenerationTimeout = 60 * time.Second

// Service runs the analysis pipeline: verify, admit, compose, generate,
// normalize, record. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	Verifier  account.Verifier
	Profiles  account.ProfileRepository
	History   domain.HistoryRepository
	Generator ai.Generator
	Prompts   ai.Prompts
	Tiers     account.TierTable
	Ledger    *Ledger
	Timeout   time.Duration
}

// Outcome is a finished analysis.
type Outcome struct {
	Result   domain.Result
	Degraded bool
	Tier     account.Tier
	Model    string
	Ledger   LedgerReport
}

// Analyze runs the whole pipeline for one request. Any returned error is an
// *Error. Ledger failures never surface here.
func (s *Service) Analyze(ctx context.Context, authHeader string, req domain.Request) (*Outcome, error) {
	id, err := s.Authenticate(ctx, authHeader)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeAs(ctx, id, req)
}

// AnalyzeAs runs the pipeline for an identity that was already verified,
// e.g. by the HTTP auth middleware.
func (s *Service) AnalyzeAs(ctx context.Context, id account.Identity, req domain.Request) (*Outcome, error) {
	start := time.Now()

	if id.UserID == "" {
		return nil, newError(KindUnauthenticated, msgInvalidAuth, account.ErrInvalidCredential)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	profile, caps, err := s.admit(ctx, id)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("user", id.UserID).Logger()

	greq, err := Compose(s.Prompts, req, caps)
	if err != nil {
		return nil, err
	}

	text, err := s.generate(ctx, greq)
	if err != nil {
		logger.Error().Err(err).Str("model", greq.Model).Msg("generation failed")
		return nil, classifyProviderError(err, greq.Model)
	}

	n := Normalize(text)
	if !caps.MarketData {
		n.Result.MarketData = nil
	}
	if n.Degraded {
		logger.Warn().Str("model", greq.Model).Int("rawLen", len(text)).Msg("unparseable generation, returning degraded result")
	}

	rep := s.Ledger.Record(ctx, id, caps, req, n, greq.Model)
	if err := rep.Err(); err != nil {
		logger.Error().Err(err).Msg("ledger write failed")
	}

	logger.Info().
		Str("tier", string(profile.Tier)).
		Str("model", greq.Model).
		Bool("image", req.Image != nil).
		Bool("degraded", n.Degraded).
		Bool("creditDeducted", rep.CreditDeducted).
		Dur("took", time.Since(start)).
		Msg("analysis completed")

	return &Outcome{Result: n.Result, Degraded: n.Degraded, Tier: profile.Tier, Model: greq.Model, Ledger: rep}, nil
}

// Profile returns the caller's entitlement record.
func (s *Service) Profile(ctx context.Context, id account.Identity) (*account.Profile, account.Capabilities, error) {
	p, err := s.Profiles.Get(ctx, id.UserID)
	if err != nil {
		return nil, account.Capabilities{}, profileError(err)
	}
	return p, s.Tiers.Lookup(p.Tier), nil
}

// ListHistory returns the caller's records, newest first.
func (s *Service) ListHistory(ctx context.Context, id account.Identity, page, pageSize int) (domain.PaginatedResult, error) {
	res, err := s.History.Paginate(ctx, id.UserID, page, pageSize)
	if err != nil {
		return domain.PaginatedResult{}, newError(KindInternal, msgInternal, err)
	}
	return res, nil
}

// admit is the advisory credit check; the ledger re-validates on write.
func (s *Service) admit(ctx context.Context, id account.Identity) (*account.Profile, account.Capabilities, error) {
	p, caps, err := s.Profile(ctx, id)
	if err != nil {
		return nil, caps, err
	}
	if !p.Admitted(caps) {
		return nil, caps, &Error{
			Kind:    KindInsufficientCredit,
			Message: msgNoCredit,
			Tier:    p.Tier,
			Credits: p.Credits,
		}
	}
	return p, caps, nil
}

func (s *Service) generate(ctx context.Context, req *ai.Request) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Generator.Generate(ctx, req)
}

func profileError(err error) error {
	if errors.Is(err, account.ErrProfileNotFound) {
		return newError(KindProfileNotFound, msgNoProfile, err)
	}
	return newError(KindInternal, msgInternal, err)
}

func classifyProviderError(err error, model string) error {
	var pe *ai.ProviderError
	switch {
	case errors.Is(err, ai.ErrEmptyGeneration):
		return newError(KindEmptyGeneration, msgNoGeneration, err)
	case errors.As(err, &pe):
		return newError(KindProviderError, fmt.Sprintf(msgProviderFailed, model), err)
	default:
		return newError(KindProviderUnavailable, msgProviderDown, err)
	}
}
