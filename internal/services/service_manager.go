package services

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/quiz-trainer/trainer-service/internal/config"
	"github.com/quiz-trainer/trainer-service/internal/events"
	"github.com/quiz-trainer/trainer-service/internal/repositories/postgres"
	redisrepo "github.com/quiz-trainer/trainer-service/internal/repositories/redis"
	"github.com/quiz-trainer/trainer-service/internal/validator"
)

// ServiceManager wires the service graph and owns its shared resources.
type ServiceManager interface {
	Scoring() ScoringService
	Bank() BankService
	Session() SessionService
	ImportExport() ImportExportService
	Close() error
}

type serviceManager struct {
	scoring      ScoringService
	bank         BankService
	session      SessionService
	importExport ImportExportService
	publisher    events.EventPublisher
}

func NewServiceManager(db *gorm.DB, redisClient *goredis.Client, cfg *config.Config, logger *slog.Logger) (ServiceManager, error) {
	if err := postgres.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate bank catalog: %w", err)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	v := validator.New()
	scoring := NewScoringService(logger)
	bank := NewBankService(postgres.NewBankRepository(db), logger, v, publisher)
	session := NewSessionService(SessionServiceConfig{
		Scorer:      scoring,
		Banks:       bank,
		Snapshots:   redisrepo.NewSnapshotStore(redisClient),
		Publisher:   publisher,
		Validator:   v,
		Logger:      logger,
		SnapshotKey: cfg.SnapshotNamespace + ":session",
	})

	return &serviceManager{
		scoring:      scoring,
		bank:         bank,
		session:      session,
		importExport: NewImportExportService(bank, logger),
		publisher:    publisher,
	}, nil
}

func (m *serviceManager) Scoring() ScoringService           { return m.scoring }
func (m *serviceManager) Bank() BankService                 { return m.bank }
func (m *serviceManager) Session() SessionService           { return m.session }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }

func (m *serviceManager) Close() error {
	m.session.Close()
	return m.publisher.Close()
}
