package formschema

import (
	"admission-backend/models"
	limesurveyapimodels "admission-backend/models/api/limesurvey"
	"html"
	"regexp"
	"strings"
)

// коды типов вопросов LimeSurvey
var questionTypes = map[string]models.QuestionType{
	"S": models.QuestionTypeText,     // короткий текст
	"T": models.QuestionTypeText,     // длинный текст
	"U": models.QuestionTypeText,     // огромный текст
	";": models.QuestionTypeText,     // массив текстов
	"X": models.QuestionTypeText,     // текстовый дисплей
	"N": models.QuestionTypeNumeric,  // число
	"K": models.QuestionTypeNumeric,  // несколько чисел
	"D": models.QuestionTypeDate,     // дата
	"L": models.QuestionTypeChoice,   // список
	"O": models.QuestionTypeChoice,   // список с комментарием
	"R": models.QuestionTypeChoice,   // ранжирование
	"!": models.QuestionTypeChoice,   // выпадающий список
	"Y": models.QuestionTypeChoice,   // да/нет
	"G": models.QuestionTypeChoice,   // пол
	"5": models.QuestionTypeChoice,   // 5 баллов
	"I": models.QuestionTypeChoice,   // язык
	"M": models.QuestionTypeMultiple, // множественный выбор
	"P": models.QuestionTypeMultiple, // множественный выбор с комментариями
	"|": models.QuestionTypeUpload,   // загрузка файла
	"*": models.QuestionTypeUpload,
}

func QuestionType(code string) models.QuestionType {
	if t, ok := questionTypes[strings.TrimSpace(code)]; ok {
		return t
	}
	return models.QuestionTypeText
}

// IsRequired признак обязательности: bool либо "Y"/"N" без учета регистра
func IsRequired(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "Y")
	}
	return false
}

var (
	tagRe        = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText убирает html разметку из текста вопроса
func CleanText(text string) string {
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Normalize приводит схему анкеты LimeSurvey к списку вопросов.
// Подвопросы попадают в атрибуты родителя, строки без кода пропускаются, дубликаты кода отбрасываются (остается первый)
func Normalize(raw limesurveyapimodels.RawSchema) []models.Question {
	groups := make(map[string]string, len(raw.Groups))
	for _, group := range raw.Groups {
		groups[group.GID.String()] = CleanText(group.GroupName)
	}

	subQuestions := map[string]map[string]any{}
	for _, rawQuestion := range raw.Questions {
		parent := rawQuestion.ParentQID.String()
		if parent == "" || parent == "0" || rawQuestion.Title == "" {
			continue
		}
		if subQuestions[parent] == nil {
			subQuestions[parent] = map[string]any{}
		}
		subQuestions[parent][rawQuestion.Title] = CleanText(rawQuestion.Question)
	}

	result := make([]models.Question, 0, len(raw.Questions))
	seen := make(map[string]bool, len(raw.Questions))
	for _, rawQuestion := range raw.Questions {
		code := strings.TrimSpace(rawQuestion.Title)
		if code == "" || rawQuestion.QID == "" {
			continue
		}
		if parent := rawQuestion.ParentQID.String(); parent != "" && parent != "0" {
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true

		question := models.Question{
			Code:     code,
			Text:     CleanText(rawQuestion.Question),
			Type:     QuestionType(rawQuestion.Type),
			Group:    groups[rawQuestion.GID.String()],
			Required: IsRequired(rawQuestion.Mandatory),
		}
		if question.Text == "" {
			question.Text = code
		}
		attributes := map[string]any{}
		for key, value := range rawQuestion.Attributes {
			attributes[key] = value
		}
		attributes["qid"] = rawQuestion.QID.String()
		attributes["lime_type"] = rawQuestion.Type
		if sub, ok := subQuestions[rawQuestion.QID.String()]; ok {
			attributes["subquestions"] = sub
		}
		if rawQuestion.Relevance != "" && rawQuestion.Relevance != "1" {
			attributes["relevance"] = rawQuestion.Relevance
		}
		question.Attributes = attributes
		result = append(result, question)
	}
	return result
}
