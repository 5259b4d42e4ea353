package dbmodels

import (
	"admission-backend/models"
	formtemplateapimodels "admission-backend/models/api/form-template"
	"time"
)

// LimeSurveyServer подключение к серверу LimeSurvey
type LimeSurveyServer struct {
	BaseModel
	Name               string                  `gorm:"type:varchar(255);not null"`
	BaseURL            string                  `gorm:"type:varchar(512);not null"`
	RPCPath            string                  `gorm:"type:varchar(255)"`
	APIUsername        string                  `gorm:"type:varchar(255)"`
	APIPassword        string                  `gorm:"type:varchar(255)"`
	WebhookToken       string                  `gorm:"type:varchar(64);index"`
	ConnectionStatus   models.ConnectionStatus `gorm:"type:varchar(20)"`
	ConnectionError    string
	LastConnectionTest *time.Time
}

func (s LimeSurveyServer) ToModel() formtemplateapimodels.ServerView {
	result := formtemplateapimodels.ServerView{
		ID:               s.ID,
		Name:             s.Name,
		BaseURL:          s.BaseURL,
		RPCPath:          s.RPCPath,
		APIUsername:      s.APIUsername,
		ConnectionStatus: s.ConnectionStatus,
		ConnectionError:  s.ConnectionError,
	}
	if s.LastConnectionTest != nil {
		result.LastConnectionTest = s.LastConnectionTest.Format(time.DateTime)
	}
	return result
}
