package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gumrukcum/gumrukcum-api/internal/application"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

const ledgerTimeout = 10 * time.Second

// Ledger performs the best-effort writes that follow a generation: credit
// deduction, image archiving and the history entry.
type Ledger struct {
	Profiles account.ProfileRepository
	History  domain.HistoryRepository
	Images   domain.ImageArchive // optional
	Clock    application.Clock
}

// LedgerReport tells what the ledger managed to write. It is informational
// only; callers log it and move on.
type LedgerReport struct {
	CreditDeducted bool
	RecordID       domain.RecordID
	ImageURL       string

	CreditErr  error
	ImageErr   error
	HistoryErr error
}

// Err joins every write failure, or returns nil.
func (r LedgerReport) Err() error {
	return errors.Join(r.CreditErr, r.ImageErr, r.HistoryErr)
}

// Record runs all writes. The caller's cancellation is ignored so that a
// client hanging up after the generation still gets billed and recorded.
func (l *Ledger) Record(ctx context.Context, id account.Identity, caps account.Capabilities, req domain.Request, n Normalized, model string) LedgerReport {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	var rep LedgerReport

	if !caps.UnlimitedCredits {
		if err := l.Profiles.DecrementCredit(ctx, id.UserID); err != nil {
			rep.CreditErr = fmt.Errorf("decrement credit: %w", err)
		} else {
			rep.CreditDeducted = true
		}
	}

	recID := domain.RecordID(uuid.New().String())

	if l.Images != nil && req.Image != nil {
		key := fmt.Sprintf("%s/%s%s", id.UserID, recID, imageExt(req.Image.MIMEType))
		url, err := l.Images.PutImage(ctx, key, req.Image)
		if err != nil {
			rep.ImageErr = fmt.Errorf("archive image: %w", err)
		} else {
			rep.ImageURL = url
		}
	}

	prompt := strings.TrimSpace(req.UserPrompt)
	if prompt == "" {
		prompt = domain.DefaultImagePrompt
	}
	rec := &domain.HistoryRecord{
		ID:         recID,
		UserID:     id.UserID,
		CreatedAt:  l.Clock.Now(),
		UserPrompt: prompt,
		Response:   n.Result,
		Model:      model,
		Degraded:   n.Degraded,
		ImageURL:   rep.ImageURL,
	}
	if err := l.History.Append(ctx, rec); err != nil {
		rep.HistoryErr = fmt.Errorf("append history: %w", err)
	} else {
		rep.RecordID = recID
	}
	return rep
}

func imageExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
