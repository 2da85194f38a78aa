package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError checks whether an error represents a missing record.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// SnapshotStore is the persistence gateway's durable KV capability: one
// opaque blob per key. Writes are best-effort from the caller's point of
// view; Load reports absence separately from failure.
type SnapshotStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
}

// BankRepository is the durable bank catalog. Banks are written and read
// wholesale; merge produces a new record version, never a partial mutation.
type BankRepository interface {
	Create(ctx context.Context, bank *models.Bank) (*models.BankRecord, error)
	Replace(ctx context.Context, id uint, bank *models.Bank) (*models.BankRecord, error)
	GetByID(ctx context.Context, id uint) (*models.Bank, *models.BankRecord, error)
	List(ctx context.Context) ([]*models.BankRecord, error)
	Delete(ctx context.Context, id uint) error
}
