package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quiz-trainer/trainer-service/internal/events"
	"github.com/quiz-trainer/trainer-service/internal/models"
	"github.com/quiz-trainer/trainer-service/internal/repositories"
	"github.com/quiz-trainer/trainer-service/internal/validator"
)

type bankService struct {
	repo      repositories.BankRepository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewBankService(repo repositories.BankRepository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) BankService {
	return &bankService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Parse accepts either a bare array of question records or an object with a
// questions field. Anything else is ErrInvalidBankFormat; the caller keeps
// its prior state.
func (s *bankService) Parse(raw []byte) (*models.Bank, error) {
	var questions []models.Question
	if err := json.Unmarshal(raw, &questions); err == nil && questions != nil {
		return &models.Bank{Title: "Untitled bank", Questions: questions}, nil
	}

	var file models.BankFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBankFormat, err)
	}
	if file.Questions == nil {
		return nil, fmt.Errorf("%w: missing questions field", ErrInvalidBankFormat)
	}

	title := file.Title
	if title == "" {
		title = "Untitled bank"
	}
	return &models.Bank{
		Title:     title,
		Source:    file.Source,
		Version:   file.Version,
		Questions: file.Questions,
	}, nil
}

// Merge appends incoming questions whose ids are absent from existing.
// First-loaded wins: ids already present are dropped silently. Question
// values are shared, never copied; banks are immutable after load.
func (s *bankService) Merge(existing, incoming *models.Bank) *models.Bank {
	merged := &models.Bank{
		Title:     existing.Title + " + " + incoming.Title,
		Source:    existing.Source,
		Version:   existing.Version,
		Questions: append([]models.Question(nil), existing.Questions...),
	}

	added := 0
	for i := range incoming.Questions {
		q := incoming.Questions[i]
		if existing.HasQuestion(q.ID) {
			continue
		}
		merged.Questions = append(merged.Questions, q)
		added++
	}

	s.logger.Info("Merged banks",
		"existing", existing.Title,
		"incoming", incoming.Title,
		"added", added,
		"skipped", len(incoming.Questions)-added)

	return merged
}

func (s *bankService) Import(ctx context.Context, raw []byte) (*models.BankRecord, *models.Bank, error) {
	bank, err := s.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	record, err := s.Store(ctx, bank)
	if err != nil {
		return nil, nil, err
	}
	return record, bank, nil
}

func (s *bankService) Store(ctx context.Context, bank *models.Bank) (*models.BankRecord, error) {
	if len(bank.Questions) == 0 {
		return nil, ErrBankEmpty
	}

	warnings, err := s.validator.ValidateBank(bank)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.logger.Warn("Bank validation warning", "bank", bank.Title, "warning", w)
	}

	record, err := s.repo.Create(ctx, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to store bank: %w", err)
	}

	s.logger.Info("Bank imported",
		"bank_id", record.ID,
		"title", bank.Title,
		"questions", len(bank.Questions))

	s.publishImported(ctx, bank, "json")
	return record, nil
}

func (s *bankService) MergeStored(ctx context.Context, id uint, raw []byte) (*models.BankRecord, *models.Bank, error) {
	existing, _, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	incoming, err := s.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := s.validator.ValidateBank(incoming)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		s.logger.Warn("Bank validation warning", "bank", incoming.Title, "warning", w)
	}

	merged := s.Merge(existing, incoming)
	record, err := s.repo.Replace(ctx, id, merged)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist merged bank: %w", err)
	}
	return record, merged, nil
}

func (s *bankService) Get(ctx context.Context, id uint) (*models.Bank, *models.BankRecord, error) {
	bank, record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrBankNotFound
		}
		return nil, nil, fmt.Errorf("failed to get bank: %w", err)
	}
	return bank, record, nil
}

func (s *bankService) List(ctx context.Context) ([]*models.BankRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	return records, nil
}

func (s *bankService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrBankNotFound
		}
		return fmt.Errorf("failed to delete bank: %w", err)
	}
	return nil
}

// publishImported announces a new bank; failures never interrupt the import.
func (s *bankService) publishImported(ctx context.Context, bank *models.Bank, format string) {
	if s.publisher == nil {
		return
	}
	event := events.NewSessionEvent(events.EventBankImported, events.BankImportedEvent{
		Title:         bank.Title,
		QuestionCount: len(bank.Questions),
		Format:        format,
	})
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish bank imported event", "error", err)
	}
}
