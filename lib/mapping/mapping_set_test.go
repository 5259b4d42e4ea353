package mapping

import (
	"testing"
	"time"

	"admission-backend/models"
	dbmodels "admission-backend/models/db"

	"github.com/stretchr/testify/require"
)

var testQuestions = []models.Question{
	{Code: "G01Q01", Text: "Civilité", Type: models.QuestionTypeChoice, Required: true},
	{Code: "G01Q02", Text: "Nom", Type: models.QuestionTypeText, Required: true},
	{Code: "G01Q03", Text: "Prénom", Type: models.QuestionTypeText},
	{Code: "G01Q04", Text: "Sport préféré", Type: models.QuestionTypeText},
	{Code: "G02Q01", Text: "Scan du bac", Type: models.QuestionTypeUpload},
}

func findLine(m *dbmodels.FormMapping, code string) *dbmodels.FormMappingLine {
	for idx := range m.Lines {
		if m.Lines[idx].QuestionCode == code {
			return &m.Lines[idx]
		}
	}
	return nil
}

func TestMappingSet(t *testing.T) {
	t.Run(`Regenerate check`, func(t *testing.T) {
		m := NewMapping("tpl")
		stats, err := Regenerate(m, testQuestions)
		require.Nil(t, err)
		require.Equal(t, 5, stats.NewLines)
		require.Equal(t, 4, stats.Suggested)
		require.Len(t, m.Lines, 5)
		require.Equal(t, 10, m.Lines[0].Sequence)
		require.Equal(t, 50, m.Lines[4].Sequence)

		civility := findLine(m, "G01Q01")
		require.Equal(t, models.FieldCivility, civility.TargetField)
		require.Equal(t, 95, civility.ConfidenceScore)
		require.Equal(t, models.MappingLineValidated, civility.Status)
		require.True(t, civility.IsRequired)

		firstName := findLine(m, "G01Q03")
		require.Equal(t, models.FieldFirstName, firstName.TargetField)

		sport := findLine(m, "G01Q04")
		require.True(t, sport.TargetField.IsEmpty())
		require.Equal(t, models.MappingLineDraft, sport.Status)

		scan := findLine(m, "G02Q01")
		require.True(t, scan.IsAttachment)
		require.Equal(t, models.FieldBacScan, scan.TargetField)
		require.Equal(t, models.MappingKindDirect, scan.MappingKind)
	})

	t.Run(`Regenerate keeps validated lines check`, func(t *testing.T) {
		m := NewMapping("tpl")
		_, err := Regenerate(m, testQuestions)
		require.Nil(t, err)
		civility := findLine(m, "G01Q01")
		require.Nil(t, civility.AssignTarget(models.CustomField("titre"), 100))
		sport := findLine(m, "G01Q04")
		require.Nil(t, sport.AssignTarget(models.CustomField("sport"), 60))

		changed := []models.Question{
			{Code: "G01Q01", Text: "Titre de civilité", Type: models.QuestionTypeChoice},
			{Code: "G01Q04", Text: "Sport pratiqué", Type: models.QuestionTypeText, Required: true},
			{Code: "G03Q01", Text: "Adresse e-mail", Type: models.QuestionTypeText},
		}
		stats, err := Regenerate(m, changed)
		require.Nil(t, err)
		require.Equal(t, 1, stats.NewLines)
		require.Equal(t, 1, stats.UpdatedLines)
		require.Len(t, m.Lines, 6)

		civility = findLine(m, "G01Q01")
		require.Equal(t, models.CustomField("titre"), civility.TargetField)
		require.Equal(t, "Civilité", civility.QuestionText)

		sport = findLine(m, "G01Q04")
		require.Equal(t, "Sport pratiqué", sport.QuestionText)
		require.True(t, sport.IsRequired)
		require.Equal(t, models.CustomField("sport"), sport.TargetField)

		// вопрос исчез из анкеты, строка остается
		require.NotNil(t, findLine(m, "G02Q01"))
		require.Equal(t, models.FieldEmail, findLine(m, "G03Q01").TargetField)
		require.Equal(t, 60, findLine(m, "G03Q01").Sequence)
	})

	t.Run(`Validate check`, func(t *testing.T) {
		m := NewMapping("tpl")
		err := Validate(m, time.Now())
		var validationErr ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, models.MappingStateDraft, m.State)

		_, err = Regenerate(m, append(testQuestions, models.Question{Code: "G05Q01", Text: "Hobby", Required: true}))
		require.Nil(t, err)
		err = Validate(m, time.Now())
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, []string{"G05Q01"}, validationErr.MissingCodes)
		require.Equal(t, models.MappingStateDraft, m.State)
		require.Nil(t, m.ValidatedAt)

		hobby := findLine(m, "G05Q01")
		require.Nil(t, hobby.AssignTarget(models.CustomField("hobby"), 0))
		require.Equal(t, models.MappingLineToVerify, hobby.Status)
		err = Validate(m, time.Now())
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "обязательные вопросы не проверены", validationErr.Reason)
		require.Equal(t, []string{"G05Q01"}, validationErr.MissingCodes)
		require.Equal(t, models.MappingStateDraft, m.State)

		sport := findLine(m, "G01Q04")
		sport.TargetField = "sport_level"
		err = Validate(m, time.Now())
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, []string{"G01Q04"}, validationErr.MissingCodes)
		sport.TargetField = ""

		require.Nil(t, hobby.Validate())
		require.Nil(t, Validate(m, time.Now()))
		require.Equal(t, models.MappingStateValidated, m.State)
		require.NotNil(t, m.ValidatedAt)

		ResetToDraft(m)
		require.Equal(t, models.MappingStateDraft, m.State)
		require.Nil(t, m.ValidatedAt)
	})

	t.Run(`bulk validation check`, func(t *testing.T) {
		m := NewMapping("tpl")
		_, err := Regenerate(m, testQuestions)
		require.Nil(t, err)
		// Prénom: first_name 95 - уже проверена; Nom: last_name 95 - тоже
		require.Equal(t, 0, ValidateHighConfidence(m))

		line := findLine(m, "G01Q02")
		require.Nil(t, line.AssignTarget(models.FieldLastName, 70))
		require.Equal(t, models.MappingLineToVerify, line.Status)
		require.Equal(t, 0, ValidateHighConfidence(m))
		require.Equal(t, 1, ValidateAllMapped(m))
		require.Equal(t, models.MappingLineValidated, line.Status)
		require.Equal(t, 0, ValidateAllMapped(m))
	})

	t.Run(`ApplySuggestions check`, func(t *testing.T) {
		m := NewMapping("tpl")
		m.Lines = []dbmodels.FormMappingLine{
			{QuestionCode: "A", QuestionText: "Votre email", Status: models.MappingLineDraft, MappingKind: models.MappingKindDirect},
			{QuestionCode: "B", QuestionText: "Ville actuelle", Status: models.MappingLineDraft, MappingKind: models.MappingKindDirect},
			{QuestionCode: "C", QuestionText: "Prénom", Status: models.MappingLineToVerify, TargetField: models.FieldNotes, ConfidenceScore: 60},
		}
		suggested, validated, err := ApplySuggestions(m)
		require.Nil(t, err)
		require.Equal(t, 2, suggested)
		// уверенность 95 проверяет строку уже при применении подсказки
		require.Equal(t, 0, validated)
		require.Equal(t, models.MappingLineValidated, m.Lines[0].Status)
		require.Equal(t, models.FieldCity, m.Lines[1].TargetField)
		require.Equal(t, models.MappingLineToVerify, m.Lines[1].Status)
		require.Equal(t, models.FieldNotes, m.Lines[2].TargetField)
	})

	t.Run(`confidence range check`, func(t *testing.T) {
		line := dbmodels.FormMappingLine{QuestionCode: "A", Status: models.MappingLineDraft}
		require.ErrorIs(t, line.AssignTarget(models.FieldCity, 101), dbmodels.ErrConfidenceRange)
		require.ErrorIs(t, line.SetConfidence(-1), dbmodels.ErrConfidenceRange)
		require.Nil(t, line.AssignTarget(models.FieldCity, 0))
		require.Equal(t, models.ConfidenceManualDefault, line.ConfidenceScore)
		require.Nil(t, line.AssignTarget("", 0))
		require.Equal(t, 0, line.ConfidenceScore)
		require.Equal(t, models.MappingLineDraft, line.Status)
		require.Error(t, line.AssignTarget("unknown_field", 80))
	})
}
