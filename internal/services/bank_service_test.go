package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-trainer/trainer-service/internal/events"
	"github.com/quiz-trainer/trainer-service/internal/models"
	"github.com/quiz-trainer/trainer-service/internal/repositories"
	"github.com/quiz-trainer/trainer-service/internal/validator"
)

// memoryBankRepository is an in-memory BankRepository for service tests.
type memoryBankRepository struct {
	nextID  uint
	banks   map[uint]*models.Bank
	records map[uint]*models.BankRecord
}

func newMemoryBankRepository() *memoryBankRepository {
	return &memoryBankRepository{
		nextID:  1,
		banks:   make(map[uint]*models.Bank),
		records: make(map[uint]*models.BankRecord),
	}
}

func (r *memoryBankRepository) Create(ctx context.Context, bank *models.Bank) (*models.BankRecord, error) {
	record := &models.BankRecord{
		ID:            r.nextID,
		Title:         bank.Title,
		Source:        bank.Source,
		Version:       bank.Version,
		QuestionCount: len(bank.Questions),
	}
	r.banks[record.ID] = bank
	r.records[record.ID] = record
	r.nextID++
	return record, nil
}

func (r *memoryBankRepository) Replace(ctx context.Context, id uint, bank *models.Bank) (*models.BankRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	record.Title = bank.Title
	record.QuestionCount = len(bank.Questions)
	r.banks[id] = bank
	return record, nil
}

func (r *memoryBankRepository) GetByID(ctx context.Context, id uint) (*models.Bank, *models.BankRecord, error) {
	bank, ok := r.banks[id]
	if !ok {
		return nil, nil, repositories.ErrNotFound
	}
	return bank, r.records[id], nil
}

func (r *memoryBankRepository) List(ctx context.Context) ([]*models.BankRecord, error) {
	records := make([]*models.BankRecord, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	return records, nil
}

func (r *memoryBankRepository) Delete(ctx context.Context, id uint) error {
	if _, ok := r.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.records, id)
	delete(r.banks, id)
	return nil
}

func newTestBankService(t *testing.T) (BankService, *memoryBankRepository) {
	t.Helper()
	repo := newMemoryBankRepository()
	svc := NewBankService(repo, testLogger(), validator.New(), events.NewMockEventPublisher(testLogger()))
	return svc, repo
}

func TestBankParse_ObjectForm(t *testing.T) {
	svc, _ := newTestBankService(t)

	bank, err := svc.Parse([]byte(`{
		"title": "Networking basics",
		"version": "2",
		"questions": [
			{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Networking basics", bank.Title)
	assert.Equal(t, "2", bank.Version)
	assert.Len(t, bank.Questions, 1)
}

func TestBankParse_BareArrayForm(t *testing.T) {
	svc, _ := newTestBankService(t)

	bank, err := svc.Parse([]byte(`[
		{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]},
		{"id": "q2", "type": "multi_choice", "choices": [{"id": "a", "is_correct": true}, {"id": "b"}]}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "Untitled bank", bank.Title)
	assert.Len(t, bank.Questions, 2)
}

func TestBankParse_RejectsMalformedInput(t *testing.T) {
	svc, _ := newTestBankService(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{broken"},
		{"null", "null"},
		{"object without questions", `{"title": "no questions here"}`},
		{"scalar", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidBankFormat)
		})
	}
}

func TestBankMerge_FirstLoadedWins(t *testing.T) {
	svc, _ := newTestBankService(t)

	existing := &models.Bank{
		Title: "Base",
		Questions: []models.Question{
			{ID: "q1", Type: models.SingleChoice, Prompt: "original q1"},
			{ID: "q2", Type: models.SingleChoice},
		},
	}
	incoming := &models.Bank{
		Title: "Extra",
		Questions: []models.Question{
			{ID: "q2", Type: models.SingleChoice, Prompt: "conflicting q2"},
			{ID: "q3", Type: models.SingleChoice},
		},
	}

	merged := svc.Merge(existing, incoming)

	// Exactly one question appended; the duplicate id kept its original body.
	require.Len(t, merged.Questions, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, questionIDs(merged))
	assert.Equal(t, "", merged.QuestionByID("q2").Prompt)

	// Inputs stay untouched.
	assert.Len(t, existing.Questions, 2)
	assert.Len(t, incoming.Questions, 2)
}

func questionIDs(b *models.Bank) []string {
	ids := make([]string, len(b.Questions))
	for i := range b.Questions {
		ids[i] = b.Questions[i].ID
	}
	return ids
}

func TestBankImport_StoresAndAnnounces(t *testing.T) {
	repo := newMemoryBankRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewBankService(repo, testLogger(), validator.New(), publisher)

	raw, err := json.Marshal(models.BankFile{
		Title: "Announced",
		Questions: []models.Question{
			{ID: "q1", Type: models.SingleChoice, Choices: []models.Choice{{ID: "a", IsCorrect: true}}},
		},
	})
	require.NoError(t, err)

	record, bank, err := svc.Import(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Announced", record.Title)
	assert.Equal(t, 1, record.QuestionCount)
	assert.Len(t, bank.Questions, 1)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, "bank.imported", string(published[0].Type))
}

func TestBankImport_RejectsDuplicateQuestionIDs(t *testing.T) {
	svc, repo := newTestBankService(t)

	_, _, err := svc.Import(context.Background(), []byte(`[
		{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]},
		{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]}
	]`))
	require.Error(t, err)
	assert.True(t, IsRejectedImport(err))
	assert.Empty(t, repo.records, "rejected import must not persist anything")
}

func TestBankImport_RejectsEmptyBank(t *testing.T) {
	svc, repo := newTestBankService(t)

	for _, raw := range []string{`[]`, `{"title": "Hollow", "questions": []}`} {
		_, _, err := svc.Import(context.Background(), []byte(raw))
		assert.ErrorIs(t, err, ErrBankEmpty)
	}
	assert.Empty(t, repo.records)
}

func TestBankMergeStored_PersistsMergedVersion(t *testing.T) {
	svc, _ := newTestBankService(t)
	ctx := context.Background()

	record, _, err := svc.Import(ctx, []byte(`{
		"title": "Base",
		"questions": [{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]}]
	}`))
	require.NoError(t, err)

	_, merged, err := svc.MergeStored(ctx, record.ID, []byte(`{
		"title": "Extra",
		"questions": [
			{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]},
			{"id": "q2", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]}
		]
	}`))
	require.NoError(t, err)
	assert.Len(t, merged.Questions, 2)

	stored, _, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, questionIDs(stored))
}

func TestBankGet_UnknownIDIsNotFound(t *testing.T) {
	svc, _ := newTestBankService(t)

	_, _, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBankNotFound)
	assert.True(t, IsNotFound(err))

	assert.ErrorIs(t, svc.Delete(context.Background(), 404), ErrBankNotFound)
}
