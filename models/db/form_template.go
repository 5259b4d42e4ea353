package dbmodels

import (
	"admission-backend/models"
	formtemplateapimodels "admission-backend/models/api/form-template"
	"time"

	"gorm.io/datatypes"
)

// FormTemplate анкета LimeSurvey, из ответов которой создаются кандидаты
type FormTemplate struct {
	BaseModel
	ServerID              string                                 `gorm:"type:varchar(36);uniqueIndex:idx_form_template_survey;not null"`
	Server                *LimeSurveyServer                      `gorm:"foreignKey:ServerID"`
	SurveyID              string                                 `gorm:"type:varchar(64);uniqueIndex:idx_form_template_survey;not null"`
	Title                 string                                 `gorm:"type:varchar(512)"`
	Questions             datatypes.JSONType[[]models.Question]  `json:"-"`
	QuestionCount         int
	SyncStatus            models.SyncStatus                      `gorm:"type:varchar(20)"`
	SyncError             string
	LastSyncDate          *time.Time
	MappingValidated      bool
	AutoCreateStatus      models.AutoCreateStatus                `gorm:"type:varchar(20)"`
	RequiredResponseKeys  datatypes.JSONType[[]string]
	TotalAutoCreated      int
	LastCandidateCreation *time.Time
}

func (t FormTemplate) GetQuestions() []models.Question {
	return t.Questions.Data()
}

func (t FormTemplate) GetRequiredResponseKeys() []string {
	return t.RequiredResponseKeys.Data()
}

func (t FormTemplate) ToModel() formtemplateapimodels.FormTemplateView {
	result := formtemplateapimodels.FormTemplateView{
		ID:                   t.ID,
		ServerID:             t.ServerID,
		SurveyID:             t.SurveyID,
		Title:                t.Title,
		QuestionCount:        t.QuestionCount,
		SyncStatus:           t.SyncStatus,
		SyncError:            t.SyncError,
		MappingValidated:     t.MappingValidated,
		AutoCreateStatus:     t.AutoCreateStatus,
		RequiredResponseKeys: t.GetRequiredResponseKeys(),
		TotalAutoCreated:     t.TotalAutoCreated,
	}
	if t.LastSyncDate != nil {
		result.LastSyncDate = t.LastSyncDate.Format(time.DateTime)
	}
	if t.LastCandidateCreation != nil {
		result.LastCandidateCreation = t.LastCandidateCreation.Format(time.DateTime)
	}
	return result
}
