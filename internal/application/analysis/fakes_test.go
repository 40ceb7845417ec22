package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gumrukcum/gumrukcum-api/internal/application"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testTiers = account.NewTierTable(account.Models{Standard: "model-lite", Premium: "model-pro"})

const imageOnlyText = "analyze the product in the image"

// stubPrompts mirrors the shape of the real prompt set: the market variant
// mentions FOB pricing and adds marketData to the schema.
type stubPrompts struct{}

func (stubPrompts) SystemInstruction(withMarket bool) string {
	if withMarket {
		return "customs broker; estimate FOB price"
	}
	return "customs broker"
}

func (stubPrompts) UserText(note string, hasImage bool) string {
	if strings.TrimSpace(note) == "" {
		return imageOnlyText
	}
	return "note: " + note
}

func (stubPrompts) ResultSchema(withMarket bool) *ai.Schema {
	s := &ai.Schema{Type: ai.TypeObject, Properties: map[string]*ai.Schema{
		"gtip": {Type: ai.TypeString},
	}}
	if withMarket {
		s.Properties["marketData"] = &ai.Schema{Type: ai.TypeObject}
	}
	return s
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (account.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(account.Identity), args.Error(1)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, req *ai.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type fakeProfiles struct {
	mu         sync.Mutex
	profiles   map[string]*account.Profile
	gets       int
	decrements int
	getErr     error
	decErr     error
}

func newFakeProfiles(ps ...account.Profile) *fakeProfiles {
	f := &fakeProfiles{profiles: map[string]*account.Profile{}}
	for i := range ps {
		p := ps[i]
		f.profiles[p.ID] = &p
	}
	return f
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*account.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, account.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) DecrementCredit(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decrements++
	if f.decErr != nil {
		return f.decErr
	}
	p, ok := f.profiles[userID]
	if !ok || p.Credits <= 0 {
		return account.ErrNoCredit
	}
	p.Credits--
	return nil
}

func (f *fakeProfiles) credits(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[userID].Credits
}

type fakeHistory struct {
	mu        sync.Mutex
	records   []*domain.HistoryRecord
	appendErr error
	calls     int
}

func (f *fakeHistory) Append(_ context.Context, rec *domain.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeHistory) Paginate(_ context.Context, userID string, page, pageSize int) (domain.PaginatedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.HistoryRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return domain.NewPage(out, page, pageSize, int64(len(out))), nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) PutImage(_ context.Context, key string, _ *domain.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "http://archive/" + key, nil
}

var errBoom = errors.New("boom")

type harness struct {
	svc      *Service
	verifier *mockVerifier
	gen      *mockGenerator
	profiles *fakeProfiles
	history  *fakeHistory
}

func newHarness(ps ...account.Profile) *harness {
	h := &harness{
		verifier: &mockVerifier{},
		gen:      &mockGenerator{},
		profiles: newFakeProfiles(ps...),
		history:  &fakeHistory{},
	}
	h.svc = &Service{
		Verifier:  h.verifier,
		Profiles:  h.profiles,
		History:   h.history,
		Generator: h.gen,
		Prompts:   stubPrompts{},
		Tiers:     testTiers,
		Ledger: &Ledger{
			Profiles: h.profiles,
			History:  h.history,
			Clock:    application.FixedClock(testNow),
		},
		Timeout: time.Second,
	}
	return h
}

// as makes the verifier accept "Bearer <userID>-token" for userID.
func (h *harness) as(userID string) string {
	h.verifier.On("Verify", mock.Anything, userID+"-token").
		Return(account.Identity{UserID: userID, Email: userID + "@example.com"}, nil)
	return "Bearer " + userID + "-token"
}
