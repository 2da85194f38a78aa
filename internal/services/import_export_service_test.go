package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

func newTestImportExport(t *testing.T) (ImportExportService, *memoryBankRepository) {
	t.Helper()
	banks, repo := newTestBankService(t)
	return NewImportExportService(banks, testLogger()), repo
}

const sampleCSV = `question_type,question_text,option_a,option_b,option_c,correct_answer,points,difficulty,tags,explanation
single_choice,What is the capital of France?,Paris,London,Berlin,A,2,easy,"geography,europe",Paris has been the capital since 508.
multi_choice,Which are prime numbers?,2,4,7,"A,C",3,medium,math,
`

func TestImportBankFromCSV(t *testing.T) {
	svc, repo := newTestImportExport(t)

	result, err := svc.ImportBankFromCSV(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	require.NotNil(t, result.Bank)
	require.Len(t, result.Bank.Questions, 2)

	first := result.Bank.Questions[0]
	assert.Equal(t, models.SingleChoice, first.Type)
	assert.Equal(t, "What is the capital of France?", first.Prompt)
	assert.Equal(t, []string{"a"}, first.CorrectChoiceIDs())
	assert.Equal(t, 2.0, first.MaxPoints())
	assert.Equal(t, models.DifficultyEasy, first.Difficulty)
	assert.Equal(t, []string{"geography", "europe"}, first.Tags)

	second := result.Bank.Questions[1]
	assert.Equal(t, models.MultiChoice, second.Type)
	assert.Equal(t, []string{"a", "c"}, second.CorrectChoiceIDs())

	// The bank landed in the catalog.
	assert.Len(t, repo.records, 1)
}

func TestImportBankFromCSV_CollectsRowErrors(t *testing.T) {
	svc, repo := newTestImportExport(t)

	csv := `question_type,question_text,option_a,option_b,correct_answer
matching,Unsupported in spreadsheets,x,y,A
single_choice,,Paris,London,A
single_choice,Only one option,Paris,,A
single_choice,No correct marker,Paris,London,
single_choice,Fine question,Paris,London,A
`
	result, err := svc.ImportBankFromCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 4, result.ErrorCount)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "question_type", result.Errors[0].Field)
	assert.Len(t, repo.records, 1)
}

func TestImportBankFromCSV_MissingRequiredColumn(t *testing.T) {
	svc, _ := newTestImportExport(t)

	_, err := svc.ImportBankFromCSV(context.Background(),
		strings.NewReader("question_text,option_a\nhello,world\n"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestImportBankFromCSV_NoValidRowsStoresNothing(t *testing.T) {
	svc, repo := newTestImportExport(t)

	csv := "question_type,question_text,correct_answer\nmatching,nope,A\n"
	result, err := svc.ImportBankFromCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Nil(t, result.Bank)
	assert.Empty(t, repo.records)
}

func TestImportBankFromExcel(t *testing.T) {
	svc, _ := newTestImportExport(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"question_type", "question_text", "option_a", "option_b", "correct_answer"},
		{"single_choice", "Pick A", "first", "second", "A"},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	result, err := svc.ImportBankFromExcel(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	require.NotNil(t, result.Bank)
	assert.Equal(t, "Pick A", result.Bank.Questions[0].Prompt)
}

func TestImportBankFromFile_DispatchesOnExtension(t *testing.T) {
	svc, _ := newTestImportExport(t)
	ctx := context.Background()

	result, err := svc.ImportBankFromFile(ctx, strings.NewReader(sampleCSV), "bank.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	jsonBank := `{"title": "From JSON", "questions": [
		{"id": "q1", "type": "single_choice", "choices": [{"id": "a", "is_correct": true}]}
	]}`
	result, err = svc.ImportBankFromFile(ctx, strings.NewReader(jsonBank), "bank.json")
	require.NoError(t, err)
	assert.Equal(t, "From JSON", result.Bank.Title)

	_, err = svc.ImportBankFromFile(ctx, strings.NewReader("x"), "bank.pdf")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestResultsReport(t *testing.T) {
	svc, _ := newTestImportExport(t)

	bank := &models.Bank{
		Title: "Geography",
		Questions: []models.Question{
			{
				ID:     "q1",
				Type:   models.SingleChoice,
				Prompt: "Capital of France?",
				Choices: []models.Choice{
					{ID: "a", Text: "Paris", IsCorrect: true},
					{ID: "b", Text: "London"},
				},
				Tags:        []string{"europe"},
				Explanation: "Paris is the capital.",
			},
			{
				ID:     "q2",
				Type:   models.SingleChoice,
				Prompt: "Capital of Japan?",
				Choices: []models.Choice{
					{ID: "a", Text: "Tokyo", IsCorrect: true},
					{ID: "b", Text: "Kyoto"},
				},
			},
		},
	}

	wrong := false
	right := true
	session := &models.Session{
		QuestionOrder: []string{"q1", "q2"},
		Answers: map[string]*models.Answer{
			"q1": {QuestionID: "q1", SelectedIDs: []string{"b"}, IsCorrect: &wrong, Score: 0},
			"q2": {QuestionID: "q2", SelectedIDs: []string{"a"}, IsCorrect: &right, Score: 1},
		},
		Finished: true,
	}

	report := svc.ResultsReport(bank, models.Settings{TestType: models.TestTypeExam, Seed: "s1"}, session)

	assert.Contains(t, report, "Results: Geography")
	assert.Contains(t, report, "Mode: exam")
	assert.Contains(t, report, "Seed: s1")
	assert.Contains(t, report, "Score: 1/2 correct, 1.0/2.0 points")
	assert.Contains(t, report, "Capital of France?")
	assert.Contains(t, report, "Your answer: London")
	assert.Contains(t, report, "Correct answer: Paris")
	assert.Contains(t, report, "Explanation: Paris is the capital.")
	assert.NotContains(t, report, "Capital of Japan?", "correct answers are omitted")
}
