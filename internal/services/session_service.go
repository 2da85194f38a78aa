package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quiz-trainer/trainer-service/internal/events"
	"github.com/quiz-trainer/trainer-service/internal/models"
	"github.com/quiz-trainer/trainer-service/internal/random"
	"github.com/quiz-trainer/trainer-service/internal/repositories"
	"github.com/quiz-trainer/trainer-service/internal/validator"
)

// sessionService owns the Session exclusively. A single mutex serializes
// every external event (user action, timer fire, import) so each runs to
// completion before the next is accepted.
type sessionService struct {
	mu        sync.Mutex
	logger    *slog.Logger
	scorer    ScoringService
	banks     BankService
	snapshots repositories.SnapshotStore
	publisher events.EventPublisher
	validator *validator.Validator

	snapshotKey string

	bank     *models.Bank
	bankID   *uint
	settings models.Settings
	seed     string // effective seed; drawn at start when settings leave it empty
	session  *models.Session

	draft   *models.Answer
	shownAt time.Time

	timer           *time.Timer
	timerQuestionID string
}

type SessionServiceConfig struct {
	Scorer      ScoringService
	Banks       BankService
	Snapshots   repositories.SnapshotStore
	Publisher   events.EventPublisher
	Validator   *validator.Validator
	Logger      *slog.Logger
	SnapshotKey string
}

func NewSessionService(cfg SessionServiceConfig) SessionService {
	return &sessionService{
		logger:      cfg.Logger,
		scorer:      cfg.Scorer,
		banks:       cfg.Banks,
		snapshots:   cfg.Snapshots,
		publisher:   cfg.Publisher,
		validator:   cfg.Validator,
		snapshotKey: cfg.SnapshotKey,
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Start(ctx context.Context, bank *models.Bank, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.examRunningLocked() {
		return ErrSettingsLocked
	}
	return s.startLocked(ctx, bank, nil, settings)
}

func (s *sessionService) StartFromStored(ctx context.Context, bankID uint, settings models.Settings) error {
	bank, _, err := s.banks.Get(ctx, bankID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.examRunningLocked() {
		return ErrSettingsLocked
	}
	return s.startLocked(ctx, bank, &bankID, settings)
}

// Restart discards the current session and draws a brand-new permutation
// from the same bank and settings.
func (s *sessionService) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bank == nil {
		return ErrSessionNotStarted
	}
	// With an explicit seed the same permutation comes back; an empty seed
	// draws a fresh one.
	return s.startLocked(ctx, s.bank, s.bankID, s.settings)
}

func (s *sessionService) startLocked(ctx context.Context, bank *models.Bank, bankID *uint, settings models.Settings) error {
	if err := s.validator.ValidateStruct(&settings); err != nil {
		return err
	}

	// Inline banks never went through the catalog, so the structural rules
	// (unique ids, known types, no case-in-case nesting) are enforced here.
	warnings, err := s.validator.ValidateBank(bank)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		s.logger.Warn("Bank validation warning", "bank", bank.Title, "warning", w)
	}

	pool := filterByDifficulty(bank.Questions, settings.Difficulty)
	if len(pool) == 0 {
		// Leave whatever session existed untouched; the caller surfaces
		// "no questions match" to the user.
		return ErrEmptyQuestionPool
	}

	seed := settings.Seed
	if seed == "" && (settings.ShuffleQuestions || settings.ShuffleChoices) {
		seed = uuid.NewString()
	}

	order := make([]string, len(pool))
	for i := range pool {
		order[i] = pool[i].ID
	}
	if settings.ShuffleQuestions {
		order = random.Permute(order, random.NewSeededSource(seed))
	}
	if settings.QuestionCount > 0 && settings.QuestionCount < len(order) {
		order = order[:settings.QuestionCount]
	}

	s.stopTimerLocked()

	s.bank = bank
	s.bankID = bankID
	s.settings = settings
	s.seed = seed
	s.session = &models.Session{
		QuestionOrder: order,
		Answers:       make(map[string]*models.Answer),
		CurrentIndex:  0,
		StartedAt:     time.Now(),
		Finished:      false,
	}
	s.resetDraftLocked()
	s.armTimerLocked()

	s.logger.Info("Session started",
		"bank", bank.Title,
		"questions", len(order),
		"shuffled", settings.ShuffleQuestions,
		"seed", seed)

	s.publishLocked(ctx, events.NewSessionEvent(events.EventSessionStarted, events.SessionStartedEvent{
		BankTitle:     bank.Title,
		QuestionCount: len(order),
		Seed:          seed,
		StartedAt:     s.session.StartedAt,
	}))
	s.persistLocked(ctx)
	return nil
}

// ===== DRAFT MUTATION =====

func (s *sessionService) Respond(ctx context.Context, update ResponseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}

	question := s.bank.QuestionByID(s.session.CurrentQuestionID())
	if question == nil {
		return ErrQuestionNotInBank
	}
	return applyUpdate(question, s.draft, update)
}

// applyUpdate mutates only the draft, dispatching on the question type.
func applyUpdate(q *models.Question, draft *models.Answer, update ResponseUpdate) error {
	switch q.Type {
	case models.SingleChoice:
		draft.SelectedIDs = []string{update.ChoiceID}

	case models.MultiChoice:
		if draft.HasSelection(update.ChoiceID) {
			kept := draft.SelectedIDs[:0]
			for _, id := range draft.SelectedIDs {
				if id != update.ChoiceID {
					kept = append(kept, id)
				}
			}
			draft.SelectedIDs = kept
		} else {
			draft.SelectedIDs = append(draft.SelectedIDs, update.ChoiceID)
		}

	case models.Matching:
		if draft.MatchPairs == nil {
			draft.MatchPairs = make(map[string]string)
		}
		if update.MatchRightID == "" {
			delete(draft.MatchPairs, update.MatchLeftID)
		} else {
			draft.MatchPairs[update.MatchLeftID] = update.MatchRightID
		}

	case models.Ordering:
		draft.Ordering = append([]string(nil), update.Ordering...)

	case models.Matrix:
		if draft.MatrixCells == nil {
			draft.MatrixCells = make(map[string]string)
		}
		draft.MatrixCells[update.MatrixRowID] = update.MatrixColID

	case models.CaseStudy:
		if update.Part == nil {
			return NewValidationError("part", "case questions require a part update", update.PartID)
		}
		for i := range q.Parts {
			part := &q.Parts[i]
			if part.ID != update.PartID {
				continue
			}
			if draft.PartAnswers == nil {
				draft.PartAnswers = make(map[string]*models.Answer)
			}
			partDraft := draft.PartAnswers[part.ID]
			if partDraft == nil {
				partDraft = models.NewAnswer(part.ID)
				draft.PartAnswers[part.ID] = partDraft
			}
			return applyUpdate(part, partDraft, *update.Part)
		}
		return NewValidationError("part_id", "unknown case part", update.PartID)

	default:
		return fmt.Errorf("%w: %s", ErrUnscorableQuestionType, q.Type)
	}
	return nil
}

// ===== COMMIT / NAVIGATE =====

func (s *sessionService) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}
	s.commitLocked(ctx)
	s.persistLocked(ctx)
	return nil
}

// commitLocked scores the draft and overwrites the recorded answer.
// Committing twice without further interaction produces an equivalent
// record: the score is recomputed from the same draft and the elapsed clock
// restarts at each commit.
func (s *sessionService) commitLocked(ctx context.Context) {
	questionID := s.session.CurrentQuestionID()
	question := s.bank.QuestionByID(questionID)
	if question == nil {
		return
	}

	result, err := s.scorer.Score(question, s.draft)
	if err != nil {
		// An unscorable question degrades to a zero-point incorrect record
		// so the session stays usable.
		s.logger.Warn("Scoring failed, recording zero-point result",
			"question_id", questionID,
			"error", err)
		result = ScoreResult{Correct: false, Points: 0}
	}

	now := time.Now()
	s.draft.TimeSpentSec += int(now.Sub(s.shownAt).Seconds())
	s.shownAt = now

	record := s.draft.Clone()
	record.IsCorrect = &result.Correct
	record.Score = result.Points
	s.session.Answers[questionID] = record

	s.publishLocked(ctx, events.NewSessionEvent(events.EventAnswerCommitted, events.AnswerCommittedEvent{
		QuestionID:   questionID,
		IsCorrect:    result.Correct,
		Points:       result.Points,
		TimeSpentSec: record.TimeSpentSec,
	}))
}

func (s *sessionService) Navigate(ctx context.Context, req NavigateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		return err
	}

	// Commit-then-move is a fixed contract; the commit happens even when
	// the cursor ends up clamped in place.
	s.commitLocked(ctx)

	target := s.session.CurrentIndex
	switch {
	case req.Index != nil:
		target = *req.Index
	case req.Direction == "next":
		target++
	case req.Direction == "prev":
		target--
	}
	s.moveCursorLocked(target)

	s.persistLocked(ctx)
	return nil
}

// moveCursorLocked clamps the target into range; the cursor never wraps.
func (s *sessionService) moveCursorLocked(target int) {
	if target < 0 {
		target = 0
	}
	if last := len(s.session.QuestionOrder) - 1; target > last {
		target = last
	}
	if target == s.session.CurrentIndex {
		return
	}
	s.session.CurrentIndex = target
	s.resetDraftLocked()
	s.armTimerLocked()
}

func (s *sessionService) ToggleReviewFlag(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}

	questionID := s.session.CurrentQuestionID()
	s.draft.MarkedForReview = !s.draft.MarkedForReview

	// The flag also lands on the recorded entry immediately, scored or not.
	record := s.session.Answers[questionID]
	if record == nil {
		record = models.NewAnswer(questionID)
		s.session.Answers[questionID] = record
	}
	record.MarkedForReview = s.draft.MarkedForReview

	s.persistLocked(ctx)
	return nil
}

func (s *sessionService) Finish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}

	s.commitLocked(ctx)
	s.session.Finished = true
	s.stopTimerLocked()

	summary := s.summaryLocked()
	s.logger.Info("Session finished",
		"answered", summary.Answered,
		"correct", summary.CorrectCount,
		"gained", summary.GainedPoints,
		"possible", summary.PossiblePoints)

	s.publishLocked(ctx, events.NewSessionEvent(events.EventSessionFinished, events.SessionFinishedEvent{
		Answered:       summary.Answered,
		CorrectCount:   summary.CorrectCount,
		GainedPoints:   summary.GainedPoints,
		PossiblePoints: summary.PossiblePoints,
	}))
	s.persistLocked(ctx)
	return nil
}

// ===== TIMER =====

func (s *sessionService) ExpireTimer(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return ErrSessionNotStarted
	}
	if s.settings.TimerSec == nil {
		return ErrTimerNotConfigured
	}
	s.expireLocked(ctx)
	s.persistLocked(ctx)
	return nil
}

// expireLocked commits the draft and advances; on the last question it
// commits only; finishing is the caller's decision.
func (s *sessionService) expireLocked(ctx context.Context) {
	index := s.session.CurrentIndex
	questionID := s.session.CurrentQuestionID()

	s.commitLocked(ctx)
	s.publishLocked(ctx, events.NewSessionEvent(events.EventTimerExpired, events.TimerExpiredEvent{
		QuestionID: questionID,
		Index:      index,
	}))

	if index < len(s.session.QuestionOrder)-1 {
		s.moveCursorLocked(index + 1)
	} else {
		// Nothing left to advance to; a rearmed timer would just keep
		// re-committing the same question.
		s.stopTimerLocked()
	}
}

// armTimerLocked rearms the per-question timer for the current question.
// The fired callback re-checks the question identity so a stale fire against
// an already-left question is a no-op.
func (s *sessionService) armTimerLocked() {
	s.stopTimerLocked()

	if s.settings.TimerSec == nil || s.session == nil || s.session.Finished {
		return
	}

	questionID := s.session.CurrentQuestionID()
	s.timerQuestionID = questionID
	s.timer = time.AfterFunc(time.Duration(*s.settings.TimerSec)*time.Second, func() {
		s.onTimerFired(questionID)
	})
}

func (s *sessionService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerQuestionID = ""
}

func (s *sessionService) onTimerFired(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() || s.session.Finished {
		return
	}
	if s.session.CurrentQuestionID() != questionID || s.timerQuestionID != questionID {
		return // stale fire after navigation
	}

	ctx := context.Background()
	s.logger.Info("Question timer expired", "question_id", questionID)
	s.expireLocked(ctx)
	s.persistLocked(ctx)
}

func (s *sessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// ===== VIEWS =====

func (s *sessionService) View(ctx context.Context) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := &SessionView{
		State:    "not_started",
		Settings: s.settings,
	}
	if s.bank != nil {
		view.BankTitle = s.bank.Title
	}
	if !s.startedLocked() {
		return view, nil
	}

	view.State = "in_progress"
	if s.session.Finished {
		view.State = "finished"
	}
	view.CurrentIndex = s.session.CurrentIndex
	view.TotalQuestions = len(s.session.QuestionOrder)
	view.StartedAt = s.session.StartedAt
	view.Finished = s.session.Finished
	view.Summary = s.summaryLocked()
	view.Draft = s.draft.Clone()
	view.MarkedForReview = s.draft.MarkedForReview

	if question := s.bank.QuestionByID(s.session.CurrentQuestionID()); question != nil {
		qv := s.questionViewLocked(question)
		view.Question = &qv
	}
	return view, nil
}

// questionViewLocked projects a question for display: correctness markers
// stripped and, when configured, choices permuted under the per-question
// seed so the layout is stable across views of the same session.
func (s *sessionService) questionViewLocked(q *models.Question) QuestionView {
	view := QuestionView{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Choices: stripCorrectness(q.Choices),
		Right:   stripCorrectness(q.RightChoices),
		Rows:    stripCorrectness(q.Rows),
		Cols:    stripCorrectness(q.Cols),
	}

	if s.settings.ShuffleChoices && q.Type != models.Ordering {
		src := random.NewSeededSource(random.ChoiceSeed(s.seed, q.ID))
		view.Choices = random.Permute(view.Choices, src)
	}

	for i := range q.Parts {
		view.Parts = append(view.Parts, s.questionViewLocked(&q.Parts[i]))
	}
	return view
}

func stripCorrectness(choices []models.Choice) []models.Choice {
	if choices == nil {
		return nil
	}
	out := make([]models.Choice, len(choices))
	for i, c := range choices {
		out[i] = models.Choice{ID: c.ID, Text: c.Text}
	}
	return out
}

func (s *sessionService) summaryLocked() models.ScoreSummary {
	summary := models.ScoreSummary{}
	for _, id := range s.session.QuestionOrder {
		if q := s.bank.QuestionByID(id); q != nil {
			summary.PossiblePoints += q.MaxPoints()
		}
		answer := s.session.Answers[id]
		if answer == nil || answer.IsCorrect == nil {
			continue
		}
		summary.Answered++
		if *answer.IsCorrect {
			summary.CorrectCount++
		}
		summary.GainedPoints += answer.Score
	}
	return summary
}

// ===== EXPORT / IMPORT =====

func (s *sessionService) Export(ctx context.Context) (*models.SessionExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.startedLocked() {
		return nil, ErrSessionNotStarted
	}

	answers := make(map[string]*models.Answer, len(s.session.Answers))
	for id, a := range s.session.Answers {
		answers[id] = a.Clone()
	}

	return &models.SessionExport{
		Bank:               s.bank,
		TestType:           s.settings.TestType,
		Seed:               s.seed,
		RandomizeQuestions: s.settings.ShuffleQuestions,
		RandomizeChoices:   s.settings.ShuffleChoices,
		DurationMinutes:    s.settings.DurationMinutes,
		Started:            s.session.StartedAt,
		QuestionOrder:      append([]string(nil), s.session.QuestionOrder...),
		CurrentIndex:       s.session.CurrentIndex,
		Answers:            answers,
	}, nil
}

func (s *sessionService) ImportSession(ctx context.Context, export *models.SessionExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if export == nil || export.Bank == nil || len(export.QuestionOrder) == 0 {
		return ErrInvalidSessionExport
	}
	for _, id := range export.QuestionOrder {
		if !export.Bank.HasQuestion(id) {
			return fmt.Errorf("%w: question %q not in bank", ErrInvalidSessionExport, id)
		}
	}
	if export.CurrentIndex < 0 || export.CurrentIndex >= len(export.QuestionOrder) {
		return fmt.Errorf("%w: cursor out of range", ErrInvalidSessionExport)
	}
	warnings, err := s.validator.ValidateBank(export.Bank)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSessionExport, err)
	}
	for _, w := range warnings {
		s.logger.Warn("Bank validation warning", "bank", export.Bank.Title, "warning", w)
	}

	s.stopTimerLocked()

	s.bank = export.Bank
	s.bankID = nil
	s.seed = export.Seed
	s.settings = models.Settings{
		TestType:         export.TestType,
		Seed:             export.Seed,
		ShuffleQuestions: export.RandomizeQuestions,
		ShuffleChoices:   export.RandomizeChoices,
		DurationMinutes:  export.DurationMinutes,
	}

	answers := make(map[string]*models.Answer, len(export.Answers))
	for id, a := range export.Answers {
		answers[id] = a.Clone()
	}
	s.session = &models.Session{
		QuestionOrder: append([]string(nil), export.QuestionOrder...),
		Answers:       answers,
		CurrentIndex:  export.CurrentIndex,
		StartedAt:     export.Started,
	}
	s.resetDraftLocked()

	s.logger.Info("Session imported",
		"bank", s.bank.Title,
		"questions", len(s.session.QuestionOrder),
		"answered", len(answers))

	s.persistLocked(ctx)
	return nil
}

// ===== PERSISTENCE =====

// persistLocked mirrors the current state into the snapshot store.
// Best-effort: a failed write is logged and the transition proceeds.
func (s *sessionService) persistLocked(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	snapshot := models.Snapshot{
		Settings: s.settings,
		Session:  s.session,
	}
	// The effective seed survives restarts so choice permutations stay stable.
	snapshot.Settings.Seed = s.seed
	if s.bankID != nil {
		snapshot.BankID = s.bankID
	} else {
		snapshot.Bank = s.bank
	}

	blob, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn("Failed to encode snapshot", "error", err)
		return
	}
	if err := s.snapshots.Save(ctx, s.snapshotKey, blob); err != nil {
		s.logger.Warn("Failed to write snapshot, continuing in memory", "error", err)
	}
}

// Restore loads the last good snapshot. Absence and parse failures both fall
// back to defaults and are never fatal.
func (s *sessionService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots == nil {
		return nil
	}

	blob, found, err := s.snapshots.Load(ctx, s.snapshotKey)
	if err != nil {
		s.logger.Warn("Failed to read snapshot, starting fresh", "error", err)
		return nil
	}
	if !found {
		return nil
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		s.logger.Warn("Snapshot failed to parse, starting fresh", "error", err)
		return nil
	}

	bank := snapshot.Bank
	bankID := snapshot.BankID
	if bank == nil && bankID != nil {
		bank, _, err = s.banks.Get(ctx, *bankID)
		if err != nil {
			s.logger.Warn("Snapshot bank could not be reloaded, starting fresh",
				"bank_id", *bankID, "error", err)
			return nil
		}
	}

	s.settings = snapshot.Settings
	s.seed = snapshot.Settings.Seed

	// A snapshot whose session names no bank at all is unusable; keep the
	// restored settings and fall back to a fresh session.
	if bank == nil {
		if snapshot.Session != nil && len(snapshot.Session.QuestionOrder) > 0 {
			s.logger.Warn("Snapshot session references no bank, starting fresh")
		}
		return nil
	}

	s.bank = bank
	s.bankID = bankID
	s.session = snapshot.Session
	if s.startedLocked() {
		s.resetDraftLocked()
		s.armTimerLocked()
		s.logger.Info("Session restored",
			"bank", bank.Title,
			"index", s.session.CurrentIndex,
			"answered", len(s.session.Answers))
	}
	return nil
}

// ===== HELPERS =====

func (s *sessionService) startedLocked() bool {
	return s.session != nil && len(s.session.QuestionOrder) > 0
}

// examRunningLocked reports whether an unfinished exam holds the settings
// lock. Practice sessions never lock; Finish or Restart releases an exam.
func (s *sessionService) examRunningLocked() bool {
	return s.startedLocked() && !s.session.Finished && s.settings.TestType == models.TestTypeExam
}

// resetDraftLocked seeds the draft for the current question from its
// committed answer, if any, and restarts the display clock.
func (s *sessionService) resetDraftLocked() {
	questionID := s.session.CurrentQuestionID()
	if committed := s.session.Answers[questionID]; committed != nil {
		s.draft = committed.Clone()
	} else {
		s.draft = models.NewAnswer(questionID)
	}
	s.shownAt = time.Now()
}

func (s *sessionService) publishLocked(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil &&
		!errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to publish session event",
			"event_type", event.Type,
			"error", err)
	}
}

func filterByDifficulty(questions []models.Question, level models.DifficultyLevel) []models.Question {
	if level == "" || level == models.DifficultyAny {
		return questions
	}
	var filtered []models.Question
	for i := range questions {
		if questions[i].Difficulty == level {
			filtered = append(filtered, questions[i])
		}
	}
	return filtered
}
