package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"complaintdraft-backend/llm"
	"complaintdraft-backend/models"
	"complaintdraft-backend/repository"
	"complaintdraft-backend/schema"
	"complaintdraft-backend/storage"
	"complaintdraft-backend/triage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUnavailable = errors.New("generation service unavailable")

func reply(out string) llm.GeneratorFunc {
	return func(ctx context.Context, req llm.Request) (string, error) {
		return out, nil
	}
}

func fail(err error) llm.GeneratorFunc {
	return func(ctx context.Context, req llm.Request) (string, error) {
		return "", err
	}
}

// recordingGenerator remembers every request it served
type recordingGenerator struct {
	mu       sync.Mutex
	out      string
	requests []llm.Request
}

func (g *recordingGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.out, nil
}

type fakeArchive struct {
	mu     sync.Mutex
	err    error
	drafts []*models.Draft
}

func (a *fakeArchive) Create(ctx context.Context, draft *models.Draft) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.drafts = append(a.drafts, draft)
	return nil
}

type generators struct {
	extract llm.Generator
	caution llm.Generator
	compose llm.Generator
}

type fixture struct {
	svc     *IntakeService
	store   *repository.MemorySessionStore
	exports storage.Storage
	archive *fakeArchive
}

func newFixture(t *testing.T, gens generators, opts ...IntakeServiceOption) *fixture {
	t.Helper()

	source, err := storage.NewLocalStorage("../data")
	require.NoError(t, err)
	exports, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	if gens.extract == nil {
		gens.extract = reply("{}")
	}
	if gens.caution == nil {
		gens.caution = reply("NONE")
	}
	if gens.compose == nil {
		gens.compose = reply("draft text")
	}

	f := &fixture{
		store:   repository.NewMemorySessionStore(),
		exports: exports,
		archive: &fakeArchive{},
	}
	base := []IntakeServiceOption{
		IntakeWithSessionStore(f.store),
		IntakeWithSchemaLoader(schema.NewLoader(source)),
		IntakeWithTriageEvaluator(triage.NewEvaluator(source)),
		IntakeWithExtractor(NewElementExtractor(gens.extract, "test-model", nil)),
		IntakeWithCautionClassifier(NewCautionClassifier(gens.caution, "test-model")),
		IntakeWithComposer(NewComplaintComposer(gens.compose, "test-model")),
		IntakeWithDraftArchive(f.archive),
		IntakeWithDraftStorage(exports),
		IntakeWithLogger(zap.NewNop()),
	}
	f.svc = NewIntakeService(append(base, opts...)...)
	return f
}

func (f *fixture) start(t *testing.T, offense string) string {
	t.Helper()
	res, err := f.svc.Init(context.Background(), offense)
	require.NoError(t, err)
	return res.SessionID.String()
}

func offenseABC() *models.Offense {
	return &models.Offense{
		Offense: "abc",
		Title:   "ABC",
		Elements: []models.Element{
			{ID: "a", Label: "Element A", Questions: []models.Question{{ID: "qa", Text: "Tell me about A?"}}},
			{ID: "b", Label: "Element B", Questions: []models.Question{{ID: "qb", Text: "Tell me about B?"}, {ID: "qb2", Text: "More about B?"}}},
			{ID: "c", Label: "Element C"},
		},
	}
}
