package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

type importExportService struct {
	banks  BankService
	logger *slog.Logger
}

func NewImportExportService(banks BankService, logger *slog.Logger) ImportExportService {
	return &importExportService{
		banks:  banks,
		logger: logger,
	}
}

// ===== SPREADSHEET IMPORT =====

// Spreadsheet imports cover choice questions only; matching, ordering, matrix
// and case questions do not flatten into rows and arrive via the JSON format.
var requiredColumns = []string{"question_type", "question_text", "correct_answer"}

func (s *importExportService) ImportBankFromFile(ctx context.Context, reader io.Reader, filename string) (*models.ImportResult, error) {
	s.logger.Info("Starting file import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return s.ImportBankFromCSV(ctx, reader)
	case ".xlsx", ".xls":
		return s.ImportBankFromExcel(ctx, reader)
	case ".json":
		raw, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		_, bank, err := s.banks.Import(ctx, raw)
		if err != nil {
			return nil, err
		}
		return &models.ImportResult{
			TotalRows:    len(bank.Questions),
			SuccessCount: len(bank.Questions),
			Bank:         bank,
		}, nil
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportBankFromCSV(ctx context.Context, reader io.Reader) (*models.ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	result, err := s.importRows(ctx, records, "csv")
	if err != nil {
		return nil, err
	}

	s.logger.Info("CSV import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

func (s *importExportService) ImportBankFromExcel(ctx context.Context, reader io.Reader) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	result, err := s.importRows(ctx, rows, "xlsx")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

func (s *importExportService) importRows(ctx context.Context, rows [][]string, format string) (*models.ImportResult, error) {
	if len(rows) < 2 {
		return nil, NewValidationError("file", "must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &models.ImportResult{TotalRows: len(rows) - 1}

	var questions []models.Question
	for rowIndex, record := range rows[1:] {
		question, rowErrors := s.parseRow(record, headerMap, rowIndex+2)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		questions = append(questions, *question)
		result.SuccessCount++
	}

	if len(questions) == 0 {
		return result, nil
	}

	bank := &models.Bank{
		Title:     fmt.Sprintf("Imported bank (%s)", format),
		Source:    format,
		Questions: questions,
	}
	if _, err := s.banks.Store(ctx, bank); err != nil {
		return nil, err
	}
	result.Bank = bank
	return result, nil
}

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int) (*models.Question, []models.ImportValidationError) {
	var errors []models.ImportValidationError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	questionType := models.QuestionType(strings.ToLower(getColumn("question_type")))
	if questionType != models.SingleChoice && questionType != models.MultiChoice {
		errors = append(errors, models.ImportValidationError{
			Row: rowNum, Field: "question_type",
			Message: "spreadsheet import supports single_choice and multi_choice only",
		})
		return nil, errors
	}

	prompt := getColumn("question_text")
	if prompt == "" {
		errors = append(errors, models.ImportValidationError{
			Row: rowNum, Field: "question_text", Message: "required field",
		})
		return nil, errors
	}

	id := getColumn("id")
	if id == "" {
		id = fmt.Sprintf("import-%d", rowNum)
	}

	choices, correctErrs := parseChoiceColumns(getColumn, rowNum)
	if len(correctErrs) > 0 {
		return nil, correctErrs
	}

	question := &models.Question{
		ID:      id,
		Type:    questionType,
		Prompt:  prompt,
		Choices: choices,
	}

	if points := getColumn("points"); points != "" {
		if p, err := strconv.ParseFloat(points, 64); err == nil && p > 0 {
			question.Scoring = &models.ScoringPolicy{Points: p}
		}
	}

	switch strings.ToLower(getColumn("difficulty")) {
	case "easy":
		question.Difficulty = models.DifficultyEasy
	case "medium":
		question.Difficulty = models.DifficultyMedium
	case "hard":
		question.Difficulty = models.DifficultyHard
	}

	if tags := getColumn("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			question.Tags = append(question.Tags, strings.TrimSpace(tag))
		}
	}
	question.Explanation = getColumn("explanation")

	return question, nil
}

var optionColumns = []string{"option_a", "option_b", "option_c", "option_d", "option_e", "option_f"}

func parseChoiceColumns(getColumn func(string) string, rowNum int) ([]models.Choice, []models.ImportValidationError) {
	var errors []models.ImportValidationError

	var choices []models.Choice
	for i, colName := range optionColumns {
		text := getColumn(colName)
		if text == "" {
			continue
		}
		choices = append(choices, models.Choice{
			ID:   string(rune('a' + i)),
			Text: text,
		})
	}
	if len(choices) < 2 {
		errors = append(errors, models.ImportValidationError{
			Row: rowNum, Field: "options", Message: "must have at least 2 options",
		})
		return nil, errors
	}

	// correct_answer lists letters, e.g. "A" or "A,C".
	marked := 0
	for _, part := range strings.Split(strings.ToUpper(getColumn("correct_answer")), ",") {
		part = strings.TrimSpace(part)
		if len(part) != 1 || part < "A" {
			continue
		}
		index := int(part[0] - 'A')
		if index < len(choices) {
			choices[index].IsCorrect = true
			marked++
		}
	}
	if marked == 0 {
		errors = append(errors, models.ImportValidationError{
			Row: rowNum, Field: "correct_answer",
			Message: "must mark at least one correct option (A-F)",
		})
		return nil, errors
	}

	return choices, nil
}

// ===== RESULTS REPORT =====

// ResultsReport renders a plain-text summary of a session: the overall score
// followed by one block per incorrectly answered question.
func (s *importExportService) ResultsReport(bank *models.Bank, settings models.Settings, session *models.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Results: %s\n", bank.Title)
	mode := settings.TestType
	if mode == "" {
		mode = models.TestTypePractice
	}
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	if settings.Seed != "" {
		fmt.Fprintf(&b, "Seed: %s\n", settings.Seed)
	}

	summary := summarize(bank, session)
	fmt.Fprintf(&b, "Score: %d/%d correct, %.1f/%.1f points\n",
		summary.CorrectCount, len(session.QuestionOrder),
		summary.GainedPoints, summary.PossiblePoints)

	for i, id := range session.QuestionOrder {
		answer := session.Answers[id]
		if answer == nil || answer.IsCorrect == nil || *answer.IsCorrect {
			continue
		}
		question := bank.QuestionByID(id)
		if question == nil {
			continue
		}
		b.WriteString("\n")
		writeQuestionBlock(&b, i+1, question, answer)
	}

	return b.String()
}

func summarize(bank *models.Bank, session *models.Session) models.ScoreSummary {
	summary := models.ScoreSummary{}
	for _, id := range session.QuestionOrder {
		if q := bank.QuestionByID(id); q != nil {
			summary.PossiblePoints += q.MaxPoints()
		}
		answer := session.Answers[id]
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

func writeQuestionBlock(b *strings.Builder, number int, q *models.Question, a *models.Answer) {
	fmt.Fprintf(b, "%d. %s\n", number, q.Prompt)

	switch q.Type {
	case models.SingleChoice, models.MultiChoice:
		fmt.Fprintf(b, "   Your answer: %s\n", joinChoiceTexts(q, a.SelectedIDs))
		fmt.Fprintf(b, "   Correct answer: %s\n", joinChoiceTexts(q, q.CorrectChoiceIDs()))
	case models.Ordering:
		fmt.Fprintf(b, "   Your order: %s\n", joinChoiceTexts(q, a.Ordering))
		fmt.Fprintf(b, "   Correct order: %s\n", joinChoiceTexts(q, q.CorrectOrder))
	case models.Matching:
		for left, right := range q.Pairs {
			if a.MatchPairs[left] != right {
				fmt.Fprintf(b, "   %s: chose %s, correct %s\n",
					q.ChoiceText(left), q.ChoiceText(a.MatchPairs[left]), q.ChoiceText(right))
			}
		}
	case models.Matrix:
		for row, col := range q.CorrectCells {
			if a.MatrixCells[row] != col {
				fmt.Fprintf(b, "   %s: chose %s, correct %s\n",
					q.ChoiceText(row), q.ChoiceText(a.MatrixCells[row]), q.ChoiceText(col))
			}
		}
	case models.CaseStudy:
		for i := range q.Parts {
			part := &q.Parts[i]
			partAnswer := a.PartAnswers[part.ID]
			if partAnswer == nil {
				partAnswer = models.NewAnswer(part.ID)
			}
			writeQuestionBlock(b, i+1, part, partAnswer)
		}
	}

	if len(q.Tags) > 0 {
		fmt.Fprintf(b, "   Tags: %s\n", strings.Join(q.Tags, ", "))
	}
	if q.Explanation != "" {
		fmt.Fprintf(b, "   Explanation: %s\n", q.Explanation)
	}
}

func joinChoiceTexts(q *models.Question, ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = q.ChoiceText(id)
	}
	return strings.Join(texts, "; ")
}
