package dbmodels

import (
	"admission-backend/models"
	candidateapimodels "admission-backend/models/api/candidate"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Candidate карточка кандидата, созданная из ответа на анкету
type Candidate struct {
	BaseModel
	FormTemplateID string                 `gorm:"type:varchar(36);uniqueIndex:idx_candidate_response;not null"`
	FormTemplate   *FormTemplate          `gorm:"foreignKey:FormTemplateID"`
	ResponseID     string                 `gorm:"type:varchar(64);uniqueIndex:idx_candidate_response;not null"`
	ImportBatchID  *string                `gorm:"type:varchar(36);index"`
	Status         models.CandidateStatus `gorm:"type:varchar(20);index"`
	StageID        *string                `gorm:"type:varchar(36);index"`
	SubmissionDate *time.Time
	MappingPending bool `gorm:"index"`
	ResponseData   datatypes.JSON
	CustomFields   datatypes.JSONMap

	Civility         string `gorm:"type:varchar(10)"`
	FirstName        string
	LastName         string
	CinNumber        string `gorm:"index"`
	MassarCode       string
	BirthDate        *time.Time
	BirthCity        string
	BirthCountry     string
	Nationality      string
	Email            string `gorm:"index"`
	Phone            string
	Address          string
	PostalCode       string
	City             string
	ResidenceCountry string

	BacSeries  string
	BacYear    *int
	BacSchool  string
	BacCountry string

	University     string
	DegreeField    string
	UniversityCity string
	DegreeYear     *int

	AvgYear1 *float64
	AvgYear2 *float64
	AvgYear3 *float64
	AvgSem1  *float64
	AvgSem2  *float64
	AvgSem3  *float64
	AvgSem4  *float64
	AvgSem5  *float64
	AvgSem6  *float64

	AcademicLevel   string
	AcademicScore   *float64
	ExperienceScore *float64
	MotivationScore *float64
	EvaluationNote  string
	Notes           string

	EvaluationStatus models.EvaluationStatus `gorm:"type:varchar(20);default:pending"`
	EvaluatedAt      *time.Time

	PaymentConfirmed   bool
	DocumentsValidated bool
	IdentityVerified   bool
	AcademicValidated  bool
	InterviewScheduled bool
	InterviewDone      bool

	Attachments []CandidateAttachment `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE"`
}

func (c Candidate) Name() string {
	return strings.TrimSpace(strings.Join([]string{c.FirstName, c.LastName}, " "))
}

func (c Candidate) GetResponseData() map[string]any {
	result := map[string]any{}
	if len(c.ResponseData) == 0 {
		return result
	}
	_ = json.Unmarshal(c.ResponseData, &result)
	return result
}

func (c Candidate) GetEvaluationStatus() models.EvaluationStatus {
	if c.EvaluationStatus == "" {
		return models.EvaluationPending
	}
	return c.EvaluationStatus
}

// EvaluationScore среднее заполненных оценок, нулевые не учитываются
func (c Candidate) EvaluationScore() float64 {
	sum, count := 0.0, 0
	for _, score := range []*float64{c.AcademicScore, c.ExperienceScore, c.MotivationScore} {
		if score != nil && *score > 0 {
			sum += *score
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// HasAllScores все три оценки выставлены
func (c Candidate) HasAllScores() bool {
	for _, score := range []*float64{c.AcademicScore, c.ExperienceScore, c.MotivationScore} {
		if score == nil || *score <= 0 {
			return false
		}
	}
	return true
}

// IsComplete досье полное: есть ответ и документы, оплата, документы и личность подтверждены.
// Для списка вложения должны быть загружены
func (c Candidate) IsComplete() bool {
	return len(c.GetResponseData()) > 0 &&
		len(c.Attachments) > 0 &&
		c.PaymentConfirmed &&
		c.DocumentsValidated &&
		c.IdentityVerified
}

func (c Candidate) ToModel() candidateapimodels.CandidateView {
	result := candidateapimodels.CandidateView{
		ID:             c.ID,
		FormTemplateID: c.FormTemplateID,
		ResponseID:     c.ResponseID,
		Name:           c.Name(),
		Status:         c.Status,
		MappingPending: c.MappingPending,
		Fields:         c.FieldValues(),
		CustomFields:   map[string]any(c.CustomFields),

		EvaluationStatus: c.GetEvaluationStatus(),
		EvaluationScore:  c.EvaluationScore(),
		IsComplete:       c.IsComplete(),
	}
	if c.StageID != nil {
		result.StageID = *c.StageID
	}
	if c.EvaluatedAt != nil {
		result.EvaluatedAt = c.EvaluatedAt.Format(time.DateTime)
	}
	if c.ImportBatchID != nil {
		result.ImportBatchID = *c.ImportBatchID
	}
	if c.SubmissionDate != nil {
		result.SubmissionDate = c.SubmissionDate.Format(time.DateTime)
	}
	return result
}

func (c Candidate) ToModelExt() candidateapimodels.CandidateViewExt {
	result := candidateapimodels.CandidateViewExt{
		CandidateView: c.ToModel(),
		ResponseData:  c.GetResponseData(),
		Attachments:   make([]candidateapimodels.AttachmentView, 0, len(c.Attachments)),
	}
	for _, attachment := range c.Attachments {
		result.Attachments = append(result.Attachments, attachment.ToModel())
	}
	return result
}

// CandidateAttachment документ кандидата, сохраненный в S3
type CandidateAttachment struct {
	BaseModel
	CandidateID  string             `gorm:"type:varchar(36);index;not null"`
	QuestionCode string             `gorm:"type:varchar(128)"`
	TargetField  models.TargetField `gorm:"type:varchar(128)"`
	Name         string
	MimeType     string `gorm:"type:varchar(128)"`
	Size         int64
	ObjectKey    string
}

func (a CandidateAttachment) ToModel() candidateapimodels.AttachmentView {
	return candidateapimodels.AttachmentView{
		ID:           a.ID,
		QuestionCode: a.QuestionCode,
		TargetField:  a.TargetField,
		Name:         a.Name,
		MimeType:     a.MimeType,
		Size:         a.Size,
	}
}
