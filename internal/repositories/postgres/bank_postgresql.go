package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quiz-trainer/trainer-service/internal/models"
	"github.com/quiz-trainer/trainer-service/internal/repositories"
)

// BankPostgreSQL persists loaded banks with the question payload as one
// JSONB document per bank.
type BankPostgreSQL struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) repositories.BankRepository {
	return &BankPostgreSQL{db: db}
}

// Migrate creates the bank catalog table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.BankRecord{})
}

func (r *BankPostgreSQL) Create(ctx context.Context, bank *models.Bank) (*models.BankRecord, error) {
	record, err := toRecord(bank)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create bank record: %w", err)
	}
	return record, nil
}

func (r *BankPostgreSQL) Replace(ctx context.Context, id uint, bank *models.Bank) (*models.BankRecord, error) {
	record, err := toRecord(bank)
	if err != nil {
		return nil, err
	}
	record.ID = id

	result := r.db.WithContext(ctx).Model(&models.BankRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":          record.Title,
		"source":         record.Source,
		"version":        record.Version,
		"question_count": record.QuestionCount,
		"questions":      record.Questions,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to replace bank %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}
	return record, nil
}

func (r *BankPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Bank, *models.BankRecord, error) {
	var record models.BankRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, repositories.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get bank %d: %w", id, err)
	}

	var questions []models.Question
	if err := json.Unmarshal(record.Questions, &questions); err != nil {
		return nil, nil, fmt.Errorf("failed to decode bank %d questions: %w", id, err)
	}

	bank := &models.Bank{
		Title:     record.Title,
		Source:    record.Source,
		Version:   record.Version,
		Questions: questions,
	}
	return bank, &record, nil
}

func (r *BankPostgreSQL) List(ctx context.Context) ([]*models.BankRecord, error) {
	var records []*models.BankRecord
	if err := r.db.WithContext(ctx).
		Select("id", "title", "source", "version", "question_count", "created_at", "updated_at").
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	return records, nil
}

func (r *BankPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BankRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete bank %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func toRecord(bank *models.Bank) (*models.BankRecord, error) {
	payload, err := json.Marshal(bank.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank questions: %w", err)
	}
	return &models.BankRecord{
		Title:         bank.Title,
		Source:        bank.Source,
		Version:       bank.Version,
		QuestionCount: len(bank.Questions),
		Questions:     datatypes.JSON(payload),
	}, nil
}
