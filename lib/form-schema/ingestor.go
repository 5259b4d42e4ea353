package formschema

import (
	"context"
	"fmt"

	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/models"
	limesurveyapimodels "admission-backend/models/api/limesurvey"

	log "github.com/sirupsen/logrus"
)

// SchemaFetchError не удалось получить схему анкеты. Повтор - на стороне вызывающего
type SchemaFetchError struct {
	SurveyID string
	Err      error
}

func (e SchemaFetchError) Error() string {
	return fmt.Sprintf("ошибка получения схемы анкеты %s: %v", e.SurveyID, e.Err)
}

func (e SchemaFetchError) Unwrap() error {
	return e.Err
}

type Provider interface {
	Fetch(ctx context.Context, conn limesurveyclient.Connection, surveyID string) ([]models.Question, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewInstance(limesurveyclient.Instance)
}

func NewInstance(client limesurveyclient.Provider) Provider {
	return &impl{client: client}
}

type impl struct {
	client limesurveyclient.Provider
}

func (i impl) Fetch(ctx context.Context, conn limesurveyclient.Connection, surveyID string) ([]models.Question, error) {
	logger := log.
		WithField("survey_id", surveyID).
		WithField("server_id", conn.ServerID)

	groups, err := i.client.ListGroups(ctx, conn, surveyID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения групп вопросов")
		return nil, SchemaFetchError{SurveyID: surveyID, Err: err}
	}
	questions, err := i.client.ListQuestions(ctx, conn, surveyID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения вопросов анкеты")
		return nil, SchemaFetchError{SurveyID: surveyID, Err: err}
	}
	result := Normalize(limesurveyapimodels.RawSchema{
		Groups:    groups,
		Questions: questions,
	})
	logger.
		WithField("question_count", len(result)).
		Info("схема анкеты получена")
	return result, nil
}
