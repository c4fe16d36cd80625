package schema

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"complaintdraft-backend/models"
	"complaintdraft-backend/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// countingStorage counts downloads per path
type countingStorage struct {
	storage.Storage
	mu    sync.Mutex
	count map[string]int
	total atomic.Int32
}

func (c *countingStorage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	c.mu.Lock()
	c.count[p]++
	c.mu.Unlock()
	c.total.Add(1)
	return c.Storage.Download(ctx, p)
}

func writeDoc(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func newTestLoader(t *testing.T, opts ...LoaderOption) (*Loader, *countingStorage, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	cs := &countingStorage{Storage: local, count: make(map[string]int)}
	return NewLoader(cs, opts...), cs, dir
}

const fraudDoc = `
offense: fraud
title: Fraud
statute_reference: Criminal Act Art. 347
includes: [complainant, accused]
templates:
  heading: Complaint
elements:
  - id: deception
    label: Deception
    required: true
    slots:
      must: [deceptive_act]
    questions:
      - {id: q_dec, text: "What did they tell you?", slot: deceptive_act}
  - id: loss
    label: Financial loss
    required: true
    slots:
      must: [loss_amount]
      nice_to_have: [transfer_date]
    questions:
      - {id: q_amount, text: "How much did you lose?", slot: loss_amount}
      - {id: q_date, text: "When did you transfer it?", slot: transfer_date}
`

const complainantDoc = `
mixin: complainant
questions:
  - {id: c_name, text: "Your name?", slot: complainant_name}
  - {id: c_contact, text: "Your phone number?", slot: complainant_contact}
`

const accusedDoc = `
mixin: accused
questions:
  - {id: a_name, text: "Their name?", slot: accused_name}
`

func TestLoad_MergesMixinsInIncludeOrder(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/fraud.yaml", fraudDoc)
	writeDoc(t, dir, "mixins/complainant.yaml", complainantDoc)
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	offense, err := loader.Load(context.Background(), "fraud")
	require.NoError(t, err)

	want := []models.Question{
		{ID: "c_name", Text: "Your name?", Slot: "complainant_name"},
		{ID: "c_contact", Text: "Your phone number?", Slot: "complainant_contact"},
		{ID: "a_name", Text: "Their name?", Slot: "accused_name"},
	}
	if diff := cmp.Diff(want, offense.PartyInfo); diff != "" {
		t.Errorf("party_info mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Fraud", offense.Title)
	assert.Equal(t, "Criminal Act Art. 347", offense.StatuteReference)
	assert.Equal(t, []string{"deception", "loss"}, offense.ElementIDs())
	assert.Equal(t, "Complaint", offense.Templates["heading"])
}

func TestLoad_ReversedIncludesReverseMixinOrder(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/swapped.yaml", `
offense: swapped
title: Swapped
elements:
  - id: only
    label: Only
    questions: []
includes: [accused, complainant]
`)
	writeDoc(t, dir, "mixins/complainant.yaml", complainantDoc)
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	offense, err := loader.Load(context.Background(), "swapped")
	require.NoError(t, err)

	var ids []string
	for _, q := range offense.PartyInfo {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"a_name", "c_name", "c_contact"}, ids)
}

func TestLoad_MissingMixinDegrades(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	loader, _, dir := newTestLoader(t, WithLogger(zap.New(core)))
	writeDoc(t, dir, "offenses/fraud.yaml", fraudDoc)
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	offense, err := loader.Load(context.Background(), "fraud")
	require.NoError(t, err)

	require.Len(t, offense.PartyInfo, 1)
	assert.Equal(t, "a_name", offense.PartyInfo[0].ID)

	entries := logs.FilterField(zap.String("mixin", "complainant")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestLoad_MixinNameMismatch(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/fraud.yaml", fraudDoc)
	writeDoc(t, dir, "mixins/complainant.yaml", accusedDoc) // copy-paste error
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	_, err := loader.Load(context.Background(), "fraud")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMixinNameMismatch)
	assert.True(t, IsConfigurationError(err))
}

func TestLoad_SlotCoverageError(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/broken.yaml", `
offense: broken
title: Broken
elements:
  - id: deception
    label: Deception
    slots:
      must: [deceptive_act]
    questions:
      - {id: q1, text: "What happened?", slot: deceptive_act}
  - id: loss
    label: Loss
    slots:
      must: [loss_amount]
    questions:
      - {id: q2, text: "Tell me more."}
`)

	_, err := loader.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlotCoverage)

	var coverage *SlotCoverageError
	require.ErrorAs(t, err, &coverage)
	assert.Equal(t, "loss", coverage.ElementID)
	assert.Equal(t, []string{"loss_amount"}, coverage.Missing)
	assert.Contains(t, err.Error(), "loss_amount")
}

func TestLoad_SchemaNotFound(t *testing.T) {
	loader, _, _ := newTestLoader(t)

	_, err := loader.Load(context.Background(), "arson")
	assert.ErrorIs(t, err, ErrSchemaNotFound)
	assert.False(t, IsConfigurationError(err))
}

func TestLoad_InvalidKey(t *testing.T) {
	loader, cs, _ := newTestLoader(t)

	for _, key := range []string{"", "../secrets", "Fraud", "fraud.yaml"} {
		_, err := loader.Load(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
	assert.Zero(t, cs.total.Load())
}

func TestLoad_SchemaKeyMismatch(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/insult.yaml", fraudDoc)

	_, err := loader.Load(context.Background(), "insult")
	assert.ErrorIs(t, err, ErrSchemaKeyMismatch)
}

func TestLoad_MalformedDocument(t *testing.T) {
	loader, _, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/fraud.yaml", "elements: [unterminated")

	_, err := loader.Load(context.Background(), "fraud")
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestLoad_MemoizedAcrossConcurrentCallers(t *testing.T) {
	loader, cs, dir := newTestLoader(t)
	writeDoc(t, dir, "offenses/fraud.yaml", fraudDoc)
	writeDoc(t, dir, "mixins/complainant.yaml", complainantDoc)
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	const callers = 16
	results := make([]*models.Offense, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := loader.Load(context.Background(), "fraud")
			assert.NoError(t, err)
			results[i] = o
		}(i)
	}
	wg.Wait()

	for _, o := range results {
		assert.Same(t, results[0], o)
	}
	assert.Equal(t, 1, cs.count[OffensePath("fraud")])
	assert.Equal(t, 1, cs.count[MixinPath("complainant")])
}

func TestLoad_FailuresAreNotCached(t *testing.T) {
	loader, _, dir := newTestLoader(t)

	_, err := loader.Load(context.Background(), "fraud")
	require.ErrorIs(t, err, ErrSchemaNotFound)

	writeDoc(t, dir, "offenses/fraud.yaml", fraudDoc)
	writeDoc(t, dir, "mixins/complainant.yaml", complainantDoc)
	writeDoc(t, dir, "mixins/accused.yaml", accusedDoc)

	offense, err := loader.Load(context.Background(), "fraud")
	require.NoError(t, err)
	assert.Equal(t, "fraud", offense.Offense)
}

func TestPreload_ShippedDocuments(t *testing.T) {
	source, err := storage.NewLocalStorage("../data")
	require.NoError(t, err)
	loader := NewLoader(source)

	require.NoError(t, loader.Preload(context.Background(), "fraud", "insult", "civil_notice", "civil_loan"))

	fraud, err := loader.Load(context.Background(), "fraud")
	require.NoError(t, err)
	assert.NotEmpty(t, fraud.PartyInfo)
}
